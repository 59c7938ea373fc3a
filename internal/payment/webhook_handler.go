package payment

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/frahmantamala/jobly/internal/transport"
	"github.com/frahmantamala/jobly/pkg/logger"
)

const maxCallbackBytes = 64 << 10

// WebhookHandler receives gateway IPN deliveries. It is unauthenticated;
// every delivery is re-validated with the gateway before it takes effect.
type WebhookHandler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// HandleIPN handles POST /api/v1/payments/ipn
func (h *WebhookHandler) HandleIPN(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCallbackBytes)

	dto, err := decodeCallback(r)
	if err != nil {
		logger.From(r.Context()).Warn("invalid ipn payload", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid callback payload")
		return
	}

	logger.From(r.Context()).Info("ipn received", "transaction_id", dto.TranID, "gateway_status", dto.Status)

	resp, err := h.Service.HandleCallback(r.Context(), dto, requestMeta(r))
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func decodeCallback(r *http.Request) (CallbackDTO, error) {
	var dto CallbackDTO

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&dto)
		return dto, err
	}

	if err := r.ParseForm(); err != nil {
		return dto, err
	}
	dto = CallbackDTO{
		TranID:     r.PostForm.Get("tran_id"),
		ValID:      r.PostForm.Get("val_id"),
		Status:     r.PostForm.Get("status"),
		Amount:     r.PostForm.Get("amount"),
		Currency:   r.PostForm.Get("currency"),
		CardType:   r.PostForm.Get("card_type"),
		CardNo:     r.PostForm.Get("card_no"),
		CardIssuer: r.PostForm.Get("card_issuer"),
		BankTranID: r.PostForm.Get("bank_tran_id"),
		Error:      r.PostForm.Get("error"),
	}
	return dto, nil
}
