package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/jobly/internal"
	"github.com/frahmantamala/jobly/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response for failures raised in the transport
// layer itself (bad JSON, missing token).
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Warn("http error", "status", status, "message", message)

	errType := internal.ErrorTypeValidation
	switch {
	case status == http.StatusUnauthorized:
		errType = internal.ErrorTypeUnauthorized
	case status == http.StatusForbidden:
		errType = internal.ErrorTypeForbidden
	case status == http.StatusNotFound:
		errType = internal.ErrorTypeNotFound
	case status >= 500:
		errType = internal.ErrorTypeInternal
	}

	h.WriteJSON(w, status, internal.Response{Error: &internal.AppError{
		Type:    errType,
		Code:    internal.ErrorCode(http.StatusText(status)),
		Message: message,
	}})
}

// HandleServiceError renders an AppError with its own status code. Anything
// else is logged and hidden behind a generic 500.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		lg := logger.From(r.Context())
		if appErr.StatusCode >= 500 {
			lg.Error("request failed", "code", appErr.Code, "error", appErr.Error())
		} else {
			lg.Info("request rejected", "code", appErr.Code, "message", appErr.Message)
		}
		status, body := appErr.ToHTTPResponse()
		h.WriteJSON(w, status, body)
		return
	}

	logger.From(r.Context()).Error("unhandled service error", "error", err)
	status, body := internal.NewInternalError("An unexpected error occurred", err).ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// DecodeJSON decodes the request body and rejects unknown fields.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// PathInt64 parses a numeric chi URL parameter.
func (h *BaseHandler) PathInt64(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// QueryInt reads a positive integer query parameter, falling back to def.
func (h *BaseHandler) QueryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}
