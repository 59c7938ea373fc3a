package auth

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/frahmantamala/jobly/internal"
	"github.com/frahmantamala/jobly/internal/transport"
	"github.com/frahmantamala/jobly/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.handleAuthError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if verr := dto.Validate(); verr != nil {
		h.HandleServiceError(w, r, verr)
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.handleAuthError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// Me returns the authenticated principal.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := h.Service.ValidateAccessToken(token)
		if err != nil {
			logger.From(r.Context()).Info("token validation failed", "error", err)
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		uid, err := strconv.ParseInt(claims.UserID, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		u, err := h.Service.GetUser(r.Context(), uid)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				h.WriteError(w, http.StatusUnauthorized, "user not found")
				return
			}
			h.HandleServiceError(w, r, err)
			return
		}
		if !u.IsActive {
			h.WriteError(w, http.StatusUnauthorized, "user is inactive")
			return
		}

		ctx := ContextWithUser(r.Context(), u)
		ctx = logger.With(ctx, "user_id", u.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		h.HandleServiceError(w, r, internal.ErrInvalidCredentials)
	case errors.Is(err, ErrUserInactive):
		h.HandleServiceError(w, r, internal.ErrUserInactive)
	case errors.Is(err, ErrTokenExpired):
		h.HandleServiceError(w, r, internal.ErrTokenExpired)
	case errors.Is(err, ErrInvalidToken):
		h.HandleServiceError(w, r, internal.ErrInvalidToken)
	default:
		h.HandleServiceError(w, r, err)
	}
}
