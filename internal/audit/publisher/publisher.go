// Package publisher drains the audit export feed into Kafka. Export is
// best-effort by contract: the durable trail is the store, the topic is a
// downstream copy for monitoring pipelines, so a broker outage never blocks
// or fails a mutation.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"labtrace/internal/audit"
)

type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the brokers and ensures the export topic exists.
func New(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, -1, -1, nil, topic)
	if err != nil {
		return fmt.Errorf("ensuring topic %q: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("ensuring topic %q: %w", topic, resp.Err)
	}
	return nil
}

// Run drains feed until the context is cancelled or the feed closes. Records
// are keyed by entity id so per-entity ordering survives partitioning.
func (p *Publisher) Run(ctx context.Context, feed <-chan audit.Record) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-feed:
			if !ok {
				return nil
			}
			p.produce(ctx, rec)
		}
	}
}

func (p *Publisher) produce(ctx context.Context, rec audit.Record) {
	value, err := json.Marshal(rec)
	if err != nil {
		p.logger.ErrorContext(ctx, "audit record marshal failed",
			slog.Uint64("seq", rec.Seq),
			slog.String("error", err.Error()),
		)
		return
	}

	p.client.Produce(ctx, &kgo.Record{
		Topic: p.topic,
		Key:   []byte(rec.EntityID),
		Value: value,
	}, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("audit export produce failed",
				slog.Uint64("seq", rec.Seq),
				slog.String("error", err.Error()),
			)
		}
	})
}

func (p *Publisher) Close() {
	p.client.Flush(context.Background())
	p.client.Close()
}
