// Package auth resolves the bearer token on each request into an
// authenticated Actor. Token issuance, sessions, and 2FA are external; this
// middleware only verifies what the identity provider minted and places the
// resulting actor in the context for the gateway.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"labtrace/pkg/domain"
	"labtrace/pkg/requestcontext"
)

// TokenVerifier turns a raw bearer token into an authenticated actor.
type TokenVerifier interface {
	Verify(tokenString string) (domain.Actor, error)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":%q,"message":%q}`, errCode, errDesc))
}

// RequireActor rejects requests without a valid bearer token and injects the
// verified actor into the request context.
func RequireActor(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid Authorization header")
				return
			}

			actor, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, actor)))
		})
	}
}
