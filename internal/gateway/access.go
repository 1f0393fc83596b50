package gateway

import (
	"context"
	"errors"

	"labtrace/internal/audit"
	"labtrace/internal/entity"
	"labtrace/internal/lifecycle"
	"labtrace/pkg/domain"
	dErrors "labtrace/pkg/domain-errors"
	"labtrace/pkg/platform/sentinel"
	"labtrace/pkg/requestcontext"
)

// GrantAccess adds a user to a notebook's access list. Not a lifecycle
// transition, but gated and audited through the same machinery.
func (g *Gateway) GrantAccess(ctx context.Context, notebookID domain.EntityID, userID domain.ActorID) (*entity.Notebook, error) {
	return g.accessChange(ctx, notebookID, userID, actionGrantAccess, true)
}

// RevokeAccess removes a user from a notebook's access list. Revoking a user
// who was never granted is a no-op, not an error; the attempt is still
// audited.
func (g *Gateway) RevokeAccess(ctx context.Context, notebookID domain.EntityID, userID domain.ActorID) (*entity.Notebook, error) {
	return g.accessChange(ctx, notebookID, userID, actionRevokeAccess, false)
}

func (g *Gateway) accessChange(ctx context.Context, notebookID domain.EntityID, userID domain.ActorID, action lifecycle.Transition, grant bool) (*entity.Notebook, error) {
	actor := requestcontext.Actor(ctx)

	release, err := g.locks.Acquire(ctx, lockKey(domain.KindNotebook, notebookID))
	if err != nil {
		return nil, err
	}
	defer release()

	rec, err := g.store.Load(ctx, domain.KindNotebook, notebookID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "notebook "+string(notebookID)+" not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "loading notebook")
	}
	notebook, ok := rec.(*entity.Notebook)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "stored record is not a notebook")
	}

	auditRec := &audit.Record{
		Timestamp:  requestcontext.Now(ctx),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Capability: domain.CapGrantAccess,
		EntityKind: domain.KindNotebook,
		EntityID:   notebookID,
		Transition: action,
		FromState:  notebook.State,
		ToState:    notebook.State,
		Detail:     "user " + userID.String(),
		RequestID:  requestcontext.RequestID(ctx),
		ClientIP:   requestcontext.ClientIP(ctx),
		UserAgent:  requestcontext.UserAgent(ctx),
	}

	if !g.perms.Allowed(actor.Role, domain.CapGrantAccess) {
		auditRec.Outcome = audit.OutcomeDeniedPermission
		if err := g.trail.Append(ctx, auditRec); err != nil {
			return nil, err
		}
		g.metrics.IncDecision(domain.KindNotebook.String(), string(audit.OutcomeDeniedPermission))
		return nil, dErrors.New(dErrors.CodePermissionDenied,
			"role "+string(actor.Role)+" lacks "+domain.CapGrantAccess.String())
	}

	updated := notebook.Clone().(*entity.Notebook)
	if updated.Granted == nil {
		updated.Granted = make(map[domain.ActorID]bool)
	}
	if grant {
		updated.Granted[userID] = true
	} else {
		delete(updated.Granted, userID)
	}

	err = g.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := g.store.Save(ctx, updated); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistenceFailure, "persisting notebook")
		}
		auditRec.Outcome = audit.OutcomeAllowed
		return g.trail.Append(ctx, auditRec)
	})
	if err != nil {
		g.metrics.IncDecision(domain.KindNotebook.String(), "error")
		return nil, err
	}

	g.metrics.IncDecision(domain.KindNotebook.String(), string(audit.OutcomeAllowed))
	return updated, nil
}

// ChangeRole reassigns a user's role. Gated on canManageRoles, which admins
// alone hold in the default table.
func (g *Gateway) ChangeRole(ctx context.Context, userID domain.EntityID, newRole domain.Role) (*entity.User, error) {
	actor := requestcontext.Actor(ctx)

	if !newRole.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown role "+string(newRole))
	}

	release, err := g.locks.Acquire(ctx, lockKey(domain.KindUser, userID))
	if err != nil {
		return nil, err
	}
	defer release()

	rec, err := g.store.Load(ctx, domain.KindUser, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user "+string(userID)+" not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistenceFailure, "loading user")
	}
	user, ok := rec.(*entity.User)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInternal, "stored record is not a user")
	}

	auditRec := &audit.Record{
		Timestamp:  requestcontext.Now(ctx),
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Capability: domain.CapManageRoles,
		EntityKind: domain.KindUser,
		EntityID:   userID,
		Transition: actionChangeRole,
		FromState:  user.State,
		ToState:    user.State,
		Detail:     string(user.Role) + " to " + string(newRole),
		RequestID:  requestcontext.RequestID(ctx),
		ClientIP:   requestcontext.ClientIP(ctx),
		UserAgent:  requestcontext.UserAgent(ctx),
	}

	if !g.perms.Allowed(actor.Role, domain.CapManageRoles) {
		auditRec.Outcome = audit.OutcomeDeniedPermission
		if err := g.trail.Append(ctx, auditRec); err != nil {
			return nil, err
		}
		g.metrics.IncDecision(domain.KindUser.String(), string(audit.OutcomeDeniedPermission))
		return nil, dErrors.New(dErrors.CodePermissionDenied,
			"role "+string(actor.Role)+" lacks "+domain.CapManageRoles.String())
	}

	updated := user.Clone().(*entity.User)
	updated.Role = newRole

	err = g.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := g.store.Save(ctx, updated); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistenceFailure, "persisting user")
		}
		auditRec.Outcome = audit.OutcomeAllowed
		return g.trail.Append(ctx, auditRec)
	})
	if err != nil {
		g.metrics.IncDecision(domain.KindUser.String(), "error")
		return nil, err
	}

	g.metrics.IncDecision(domain.KindUser.String(), string(audit.OutcomeAllowed))
	return updated, nil
}
