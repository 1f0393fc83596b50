// Package gateway is the single choke point for entity mutations. Every
// write walks the same path: resolve the transition, check the actor's
// capability, mutate, and append exactly one audit record. Nothing mutates
// an entity without passing through here.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"labtrace/internal/audit"
	"labtrace/internal/entity"
	"labtrace/internal/gateway/lock"
	"labtrace/internal/gateway/metrics"
	"labtrace/internal/lifecycle"
	"labtrace/internal/permission"
	"labtrace/internal/storage"
	"labtrace/pkg/domain"
	dErrors "labtrace/pkg/domain-errors"
	"labtrace/pkg/platform/sentinel"
	"labtrace/pkg/requestcontext"
)

// Access-control operations that are not lifecycle transitions but are
// audited under the same record shape.
const (
	actionGrantAccess  lifecycle.Transition = "grant_access"
	actionRevokeAccess lifecycle.Transition = "revoke_access"
	actionChangeRole   lifecycle.Transition = "change_role"
)

// Intent is one requested mutation. EntityID is empty when the transition
// starts from the nonexistent state; the gateway assigns the id.
type Intent struct {
	Kind       domain.Kind
	EntityID   domain.EntityID
	Transition lifecycle.Transition
	Payload    entity.Payload
}

type Gateway struct {
	perms   *permission.Model
	store   storage.Store
	tx      storage.TxRunner
	trail   *audit.Service
	locks   lock.Locker
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func New(perms *permission.Model, store storage.Store, tx storage.TxRunner, trail *audit.Service, locks lock.Locker, logger *slog.Logger, m *metrics.Metrics) *Gateway {
	return &Gateway{
		perms:   perms,
		store:   store,
		tx:      tx,
		trail:   trail,
		locks:   locks,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("labtrace/gateway"),
	}
}

// Apply executes one gated mutation. The per-entity lock covers the whole
// load-check-mutate-record section, so concurrent intents on the same entity
// resolve in some serial order and the audit trail replays to the final
// state. Exactly one audit record is appended per call, whatever the
// outcome; if that record cannot be made durable, the mutation fails.
func (g *Gateway) Apply(ctx context.Context, intent Intent) (entity.Record, error) {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "gateway.Apply", trace.WithAttributes(
		attribute.String("entity.kind", intent.Kind.String()),
		attribute.String("entity.transition", string(intent.Transition)),
	))
	defer span.End()
	defer func() { g.metrics.ObserveApply(time.Since(start)) }()

	machine, ok := lifecycle.ForKind(intent.Kind)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown entity kind")
	}

	release, err := g.locks.Acquire(ctx, lockKey(intent.Kind, intent.EntityID))
	if err != nil {
		g.metrics.IncDecision(intent.Kind.String(), "error")
		return nil, err
	}
	defer release()

	current, from, err := g.currentState(ctx, intent)
	if err != nil {
		g.metrics.IncDecision(intent.Kind.String(), "error")
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}

	actor := requestcontext.Actor(ctx)

	rule, ok := machine.Resolve(from, intent.Transition)
	if !ok {
		if err := g.record(ctx, actor, intent, from, "", "", audit.OutcomeDeniedTransition); err != nil {
			return nil, err
		}
		g.metrics.IncDecision(intent.Kind.String(), string(audit.OutcomeDeniedTransition))
		return nil, dErrors.New(dErrors.CodeIllegalTransition,
			"transition "+string(intent.Transition)+" is not defined for "+intent.Kind.String()+" in state "+string(from))
	}

	if !g.perms.Allowed(actor.Role, rule.Requires) {
		if err := g.record(ctx, actor, intent, from, rule.To, rule.Requires, audit.OutcomeDeniedPermission); err != nil {
			return nil, err
		}
		g.metrics.IncDecision(intent.Kind.String(), string(audit.OutcomeDeniedPermission))
		g.logger.WarnContext(ctx, "mutation denied",
			slog.String("actor_id", actor.ID.String()),
			slog.String("actor_role", string(actor.Role)),
			slog.String("entity_kind", intent.Kind.String()),
			slog.String("transition", string(intent.Transition)),
			slog.String("capability", rule.Requires.String()),
		)
		return nil, dErrors.New(dErrors.CodePermissionDenied,
			"role "+string(actor.Role)+" lacks "+rule.Requires.String())
	}

	var result entity.Record
	err = g.tx.RunInTx(ctx, func(ctx context.Context) error {
		updated, err := g.mutate(ctx, intent, current, rule, actor)
		if err != nil {
			return err
		}
		result = updated
		intent.EntityID = updated.ID()
		return g.record(ctx, actor, intent, from, rule.To, rule.Requires, audit.OutcomeAllowed)
	})
	if err != nil {
		g.metrics.IncDecision(intent.Kind.String(), "error")
		span.SetStatus(codes.Error, "mutation failed")
		return nil, err
	}

	g.metrics.IncDecision(intent.Kind.String(), string(audit.OutcomeAllowed))
	span.SetAttributes(attribute.String("entity.id", string(result.ID())))
	return result, nil
}

// currentState loads the entity, or reports StateNonexistent for intents
// that start one. An explicit id that does not exist is NotFound, never a
// silent create.
func (g *Gateway) currentState(ctx context.Context, intent Intent) (entity.Record, lifecycle.State, error) {
	if intent.EntityID == "" {
		return nil, lifecycle.StateNonexistent, nil
	}
	rec, err := g.store.Load(ctx, intent.Kind, intent.EntityID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, "", dErrors.New(dErrors.CodeNotFound,
				intent.Kind.String()+" "+string(intent.EntityID)+" not found")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodePersistenceFailure, "loading entity")
	}
	return rec, rec.Status(), nil
}

// mutate applies the resolved rule to the entity. The caller runs it inside
// the transaction, alongside the audit append.
func (g *Gateway) mutate(ctx context.Context, intent Intent, current entity.Record, rule lifecycle.Rule, actor domain.Actor) (entity.Record, error) {
	now := requestcontext.Now(ctx)

	if current == nil {
		seq, err := g.store.NextSeq(ctx, intent.Kind)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "issuing entity id")
		}
		rec, err := entity.New(intent.Kind, seq, intent.Payload, actor, now)
		if err != nil {
			return nil, err
		}
		rec.SetStatus(rule.To)
		if err := g.store.Save(ctx, rec); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "persisting entity")
		}
		return rec, nil
	}

	if rule.To == lifecycle.StateDeleted {
		if err := g.store.Delete(ctx, intent.Kind, intent.EntityID); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "deleting entity")
		}
		deleted := current.Clone()
		deleted.SetStatus(lifecycle.StateDeleted)
		return deleted, nil
	}

	updated := current.Clone()
	updated.SetStatus(rule.To)
	applyEffects(updated, intent, actor, now)
	if err := g.store.Save(ctx, updated); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "persisting entity")
	}
	return updated, nil
}

// applyEffects carries the kind-specific side effects of a transition:
// custody tracking on samples, approval stamping on experiments.
func applyEffects(rec entity.Record, intent Intent, actor domain.Actor, now time.Time) {
	switch r := rec.(type) {
	case *entity.Sample:
		switch intent.Transition {
		case lifecycle.Transfer, lifecycle.Arrive, lifecycle.Quarantine:
			if loc := intent.Payload["location"]; loc != "" {
				r.Location = loc
			}
			r.AppendCustody(entity.CustodyEvent{
				Action:  string(intent.Transition),
				ActorID: actor.ID,
				Detail:  r.Location,
				At:      now,
			})
		}
	case *entity.Experiment:
		if intent.Transition == lifecycle.Approve {
			r.ApproverID = actor.ID
			if raw := intent.Payload["yield"]; raw != "" {
				if y, err := strconv.ParseFloat(raw, 64); err == nil {
					r.Yield = &y
				}
			}
		}
	}
}

// record appends the single audit record for this call. Append errors
// propagate: an unrecordable mutation must not happen, and an unrecordable
// denial must not be reported as a clean denial.
func (g *Gateway) record(ctx context.Context, actor domain.Actor, intent Intent, from, to lifecycle.State, capability domain.Capability, outcome audit.Outcome) error {
	return g.trail.Append(ctx, &audit.Record{
		Timestamp:  requestcontext.Now(ctx),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Capability: capability,
		EntityKind: intent.Kind,
		EntityID:   intent.EntityID,
		Transition: intent.Transition,
		FromState:  from,
		ToState:    to,
		Outcome:    outcome,
		RequestID:  requestcontext.RequestID(ctx),
		ClientIP:   requestcontext.ClientIP(ctx),
		UserAgent:  requestcontext.UserAgent(ctx),
	})
}

func lockKey(kind domain.Kind, id domain.EntityID) string {
	if id == "" {
		return kind.String() + "/new"
	}
	return kind.String() + "/" + string(id)
}

// Get returns the current record for display. Reads are ungated beyond
// authentication; field-level redaction is a transport concern.
func (g *Gateway) Get(ctx context.Context, kind domain.Kind, id domain.EntityID) (entity.Record, error) {
	rec, err := g.store.Load(ctx, kind, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, kind.String()+" "+string(id)+" not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "loading entity")
	}
	return rec, nil
}

// Matrix enumerates the effective permission table.
func (g *Gateway) Matrix() []permission.Grant {
	return g.perms.Matrix()
}

// QueryAudit serves the trail behind the canViewAudit read gate. Denied
// reads are themselves recorded.
func (g *Gateway) QueryAudit(ctx context.Context, f audit.Filter) ([]audit.Record, error) {
	actor := requestcontext.Actor(ctx)
	if !g.perms.Allowed(actor.Role, domain.CapViewAudit) {
		err := g.trail.Append(ctx, &audit.Record{
			Timestamp:  requestcontext.Now(ctx),
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Capability: domain.CapViewAudit,
			Transition: "view_audit",
			Outcome:    audit.OutcomeDeniedPermission,
			RequestID:  requestcontext.RequestID(ctx),
			ClientIP:   requestcontext.ClientIP(ctx),
			UserAgent:  requestcontext.UserAgent(ctx),
		})
		if err != nil {
			return nil, err
		}
		return nil, dErrors.New(dErrors.CodePermissionDenied,
			"role "+string(actor.Role)+" lacks "+domain.CapViewAudit.String())
	}
	g.metrics.IncAuditQuery()
	return g.trail.Query(ctx, f)
}
