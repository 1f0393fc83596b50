package testutil

import (
	"net/http"

	"labtrace/pkg/domain"
	"labtrace/pkg/requestcontext"
)

// WithActor adds an authenticated actor to the request context. This
// simulates what the auth middleware would do for authenticated requests.
func WithActor(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// NewActor builds an actor with a fresh id and the given role.
func NewActor(role domain.Role) domain.Actor {
	return domain.Actor{ID: domain.NewActorID(), Role: role}
}
