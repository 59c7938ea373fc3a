package promotion

import (
	"net/http"

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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.Service.ListActive(r.Context())
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	out := make([]PackageResponse, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, p.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(out),
		"results": out,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathInt64(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid package id")
		return
	}

	p, err := h.Service.GetActiveByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p.ToResponse())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto PackageRequestDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, p.ToResponse())
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathInt64(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid package id")
		return
	}

	var dto PackageRequestDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p.ToResponse())
}
