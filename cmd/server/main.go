// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"labtrace/internal/audit"
	auditpg "labtrace/internal/audit/postgres"
	"labtrace/internal/audit/publisher"
	"labtrace/internal/gateway"
	"labtrace/internal/gateway/lock"
	gwmetrics "labtrace/internal/gateway/metrics"
	"labtrace/internal/identity"
	"labtrace/internal/permission"
	"labtrace/internal/platform/config"
	"labtrace/internal/platform/httpserver"
	"labtrace/internal/platform/logger"
	platformredis "labtrace/internal/platform/redis"
	"labtrace/internal/storage"
	storagepg "labtrace/internal/storage/postgres"
	httptransport "labtrace/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	perms, err := permission.New(permission.DefaultTable())
	if err != nil {
		return err
	}

	var (
		store      storage.Store
		txRunner   storage.TxRunner
		auditStore audit.Store
	)
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		pg := storagepg.New(db)
		store, txRunner = pg, pg
		auditStore = auditpg.NewStore(db)
		log.Info("using postgres stores")
	} else {
		mem := storage.NewInMemoryStore()
		store, txRunner = mem, mem
		auditStore = audit.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	var locks lock.Locker = lock.NewKeyedMutex()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		locks = lock.NewRedisLocker(redisClient.Client)
		log.Info("using redis entity locks")
	}

	feedSize := 0
	if len(cfg.Kafka.Brokers) > 0 {
		feedSize = cfg.Kafka.FeedSize
	}
	trail := audit.NewService(auditStore, log, feedSize)

	gw := gateway.New(perms, store, txRunner, trail, locks, log, gwmetrics.New())

	tokens := identity.NewService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.TokenTTL)
	router := httptransport.NewRouter(httptransport.NewHandler(gw, log), tokens, log)
	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := publisher.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		g.Go(func() error {
			defer pub.Close()
			if err := pub.Run(ctx, trail.Feed()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		log.Info("audit export enabled", slog.String("topic", cfg.Kafka.Topic))
	}

	g.Go(func() error {
		log.Info("starting labtrace", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
