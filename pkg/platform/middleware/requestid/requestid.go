// Package requestid assigns a correlation id to every request. Incoming
// X-Request-ID headers are honored so upstream proxies can stitch traces
// together; otherwise a fresh UUID is generated.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"labtrace/pkg/requestcontext"
)

// Header is the canonical request id header.
const Header = "X-Request-ID"

// Middleware stores the request id in the context and echoes it back in the
// response headers.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(Header)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(Header, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
