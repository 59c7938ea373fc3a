package job

import (
	"net/http"

	"github.com/frahmantamala/jobly/internal/auth"
	"github.com/frahmantamala/jobly/internal/transport"
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

// PromotionStatus lists promotion state for every job the recruiter owns.
func (h *Handler) PromotionStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	statuses, err := h.Service.PromotionStatus(r.Context(), u.ID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": statuses,
	})
}
