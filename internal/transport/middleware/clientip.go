package middleware

import (
	"net/http"

	"github.com/frahmantamala/jobly/internal"
	"github.com/frahmantamala/jobly/pkg/logger"
)

// ClientIP records the caller address in the context for audit entries.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := internal.ClientIP(r)

		ctx := internal.ContextWithClientIP(r.Context(), ip)
		ctx = logger.With(ctx, "client_ip", ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
