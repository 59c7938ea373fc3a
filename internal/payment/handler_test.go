package payment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/jobly/internal"
	"github.com/frahmantamala/jobly/internal/auth"
	paymentmodel "github.com/frahmantamala/jobly/internal/core/datamodel/payment"
	"github.com/frahmantamala/jobly/internal/core/user"
	"github.com/frahmantamala/jobly/internal/payment"
	"github.com/frahmantamala/jobly/internal/transport"
)

type stubService struct {
	payment.ServiceAPI
	callback    payment.CallbackDTO
	meta        payment.RequestMeta
	listQuery   payment.ListQuery
	callbackErr error
}

func (s *stubService) HandleCallback(ctx context.Context, dto payment.CallbackDTO, meta payment.RequestMeta) (*payment.CallbackResponse, error) {
	s.callback = dto
	s.meta = meta
	if s.callbackErr != nil {
		return nil, s.callbackErr
	}
	return &payment.CallbackResponse{Status: paymentmodel.StatusCompleted, TransactionID: dto.TranID}, nil
}

func (s *stubService) List(ctx context.Context, u *user.User, q payment.ListQuery) (*payment.ListResponse, error) {
	s.listQuery = q
	return &payment.ListResponse{Page: q.Page, PerPage: q.PerPage, Results: []payment.ListItemResponse{}}, nil
}

var _ = Describe("Payment handlers", func() {
	var (
		stub    *stubService
		router  chi.Router
		base    *transport.BaseHandler
		webhook *payment.WebhookHandler
	)

	BeforeEach(func() {
		stub = &stubService{}
		base = transport.NewBaseHandler(slogger)
		webhook = payment.NewWebhookHandler(base, stub)
		h := payment.NewHandler(base, stub)

		router = chi.NewRouter()
		router.Post("/api/v1/payments/ipn", func(w http.ResponseWriter, r *http.Request) {
			r = r.WithContext(internal.ContextWithClientIP(r.Context(), "198.51.100.9"))
			webhook.HandleIPN(w, r)
		})
		router.Get("/api/v1/payments", func(w http.ResponseWriter, r *http.Request) {
			h.List(w, r.WithContext(auth.ContextWithUser(r.Context(), recruiter)))
		})
		router.Get("/api/v1/payments/{id}", h.Detail)
	})

	It("accepts form-encoded IPN posts", func() {
		form := url.Values{}
		form.Set("tran_id", "JOB-ABC")
		form.Set("val_id", "VAL-9")
		form.Set("status", "VALID")
		form.Set("amount", "500.00")
		form.Set("card_no", "4111XXXXXXXX1111")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/ipn", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(stub.callback.TranID).To(Equal("JOB-ABC"))
		Expect(stub.callback.ValID).To(Equal("VAL-9"))
		Expect(stub.meta.IPAddress).To(Equal("198.51.100.9"))
		Expect(rec.Body.String()).To(ContainSubstring(`"status":"completed"`))
	})

	It("accepts JSON IPN posts with extra gateway fields", func() {
		body := `{"tran_id":"JOB-XYZ","val_id":"VAL-1","status":"VALID","store_amount":"490.00","risk_level":"0"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/ipn", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(stub.callback.TranID).To(Equal("JOB-XYZ"))
	})

	It("maps service errors onto their status", func() {
		stub.callbackErr = payment.ErrPaymentNotFound

		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/ipn", strings.NewReader(`{"tran_id":"JOB-NOPE"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(ContainSubstring("PAYMENT_NOT_FOUND"))
	})

	It("rejects malformed JSON", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/ipn", strings.NewReader(`{"tran_id":`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("passes pagination query parameters through", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payments?status=pending&page=3&per_page=5", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(stub.listQuery).To(Equal(payment.ListQuery{Status: "pending", Page: 3, PerPage: 5}))
	})

	It("requires an authenticated user for detail", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/payments/1", nil))

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})
})
