package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/jobly/internal"
	"github.com/frahmantamala/jobly/internal/auth"
	"github.com/frahmantamala/jobly/internal/core/user"
)

// RequireRecruiter admits only authenticated recruiters.
func RequireRecruiter(next http.Handler) http.Handler {
	return requireUser(user.IsRecruiter, "Only recruiters can access this resource", internal.ErrCodeRecruiterOnly)(next)
}

// RequireAdmin admits only staff accounts.
func RequireAdmin(next http.Handler) http.Handler {
	return requireUser(user.IsAdmin, "Administrator access required", internal.ErrCodeAdminOnly)(next)
}

func requireUser(allow func(*user.User) bool, message string, code internal.ErrorCode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := auth.UserFromContext(r.Context())
			if !ok || u == nil {
				writeAppError(w, internal.NewUnauthorizedError("Authentication required", internal.ErrCodeInvalidToken))
				return
			}

			if !allow(u) {
				slog.Warn("access denied", "user_id", u.ID, "role", u.Role, "is_staff", u.IsStaff, "path", r.URL.Path)
				writeAppError(w, internal.NewForbiddenError(message, code))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
