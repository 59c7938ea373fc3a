package payment

import (
	"net/http"

	"github.com/frahmantamala/jobly/internal"
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

func requestMeta(r *http.Request) RequestMeta {
	return RequestMeta{IPAddress: internal.ClientIPFromContext(r.Context())}
}

// Initiate handles POST /api/v1/payments/initiate
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto InitiateDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.Initiate(r.Context(), u, dto, requestMeta(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, resp)
}

// CheckStatus handles POST /api/v1/payments/check-status
func (h *Handler) CheckStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto CheckStatusDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.CheckStatus(r.Context(), u, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) listQuery(r *http.Request) ListQuery {
	return ListQuery{
		Status:  r.URL.Query().Get("status"),
		Page:    h.QueryInt(r, "page", 1),
		PerPage: h.QueryInt(r, "per_page", defaultPerPage),
	}
}

// List handles GET /api/v1/payments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	resp, err := h.Service.List(r.Context(), u, h.listQuery(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// Mine handles GET /api/v1/payments/mine
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	resp, err := h.Service.Mine(r.Context(), u, h.listQuery(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// Detail handles GET /api/v1/payments/{id}
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := h.PathInt64(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	resp, err := h.Service.Detail(r.Context(), u, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// Logs handles GET /api/v1/payments/{id}/logs
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, ok := h.PathInt64(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	logs, err := h.Service.Logs(r.Context(), u, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(logs),
		"results": logs,
	})
}
