package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/jobly/internal/auth"
	"github.com/frahmantamala/jobly/internal/core/user"
	"github.com/frahmantamala/jobly/internal/job"
	"github.com/frahmantamala/jobly/internal/payment"
	"github.com/frahmantamala/jobly/internal/promotion"
	"github.com/frahmantamala/jobly/internal/transport"
)

// stubAuth treats the bearer token as the user id.
type stubAuth struct {
	auth.ServiceAPI
	users map[string]*user.User
}

func (s stubAuth) ValidateAccessToken(token string) (*auth.Claims, error) {
	if _, ok := s.users[token]; !ok {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: token}, nil
}

func (s stubAuth) GetUser(ctx context.Context, id int64) (*user.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

type stubPackages struct {
	promotion.ServiceAPI
	created bool
}

func (s *stubPackages) ListActive(ctx context.Context) ([]*promotion.Package, error) {
	return []*promotion.Package{}, nil
}

func (s *stubPackages) Create(ctx context.Context, dto promotion.PackageRequestDTO) (*promotion.Package, error) {
	s.created = true
	return &promotion.Package{ID: 1, Name: dto.Name, Price: dto.Price, DurationDays: dto.DurationDays}, nil
}

type stubPayments struct {
	payment.ServiceAPI
	called string
}

func (s *stubPayments) HandleCallback(ctx context.Context, dto payment.CallbackDTO, meta payment.RequestMeta) (*payment.CallbackResponse, error) {
	s.called = "callback"
	return &payment.CallbackResponse{Status: "success", TransactionID: dto.TranID}, nil
}

func (s *stubPayments) Mine(ctx context.Context, u *user.User, q payment.ListQuery) (*payment.ListResponse, error) {
	s.called = "mine"
	return &payment.ListResponse{Page: q.Page, PerPage: q.PerPage, Results: []payment.ListItemResponse{}}, nil
}

func (s *stubPayments) Initiate(ctx context.Context, u *user.User, dto payment.InitiateDTO, meta payment.RequestMeta) (*payment.InitiateResponse, error) {
	s.called = "initiate"
	return &payment.InitiateResponse{TransactionID: "JOB-1"}, nil
}

type stubJobs struct{ job.ServiceAPI }

var _ = ginkgo.Describe("RegisterAllRoutes", func() {
	var (
		router   *chi.Mux
		packages *stubPackages
		payments *stubPayments
	)

	ginkgo.BeforeEach(func() {
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		base := transport.NewBaseHandler(lg)
		authSvc := stubAuth{users: map[string]*user.User{
			"1": {ID: 1, Role: user.RoleRecruiter, IsActive: true},
			"2": {ID: 2, Role: user.RoleSeeker, IsActive: true},
			"3": {ID: 3, Role: user.RoleSeeker, IsStaff: true, IsActive: true},
		}}
		packages = &stubPackages{}
		payments = &stubPayments{}

		router = chi.NewRouter()
		RegisterAllRoutes(router, Handlers{
			Health:    NewHealthHandler(map[string]Pinger{"database": fakePinger{}}),
			Auth:      auth.NewHandler(base, authSvc),
			Promotion: promotion.NewHandler(base, packages),
			Payment:   payment.NewHandler(base, payments),
			Webhook:   payment.NewWebhookHandler(base, payments),
			Job:       job.NewHandler(base, stubJobs{}),
		}, RouterOptions{}, lg)
	})

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	ginkgo.It("serves the package list without authentication", func() {
		rec := do(http.MethodGet, "/api/v1/promotion-packages", "", "")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(rec.Header().Get("X-Trace-ID")).ToNot(gomega.BeEmpty())
	})

	ginkgo.It("requires a token for package administration", func() {
		rec := do(http.MethodPost, "/api/v1/promotion-packages", "", `{"name":"Gold","price":"10.00","duration_days":7}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("forbids non-staff users from creating packages", func() {
		rec := do(http.MethodPost, "/api/v1/promotion-packages", "1", `{"name":"Gold","price":"10.00","duration_days":7}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("ADMIN_ONLY"))
		gomega.Expect(packages.created).To(gomega.BeFalse())
	})

	ginkgo.It("lets staff create packages", func() {
		rec := do(http.MethodPost, "/api/v1/promotion-packages", "3", `{"name":"Gold","price":"10.00","duration_days":7}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))
		gomega.Expect(packages.created).To(gomega.BeTrue())
	})

	ginkgo.It("keeps payment initiation for recruiters", func() {
		rec := do(http.MethodPost, "/api/v1/payments/initiate", "2", `{"job_id":5}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("RECRUITER_ONLY"))

		rec = do(http.MethodPost, "/api/v1/payments/initiate", "1", `{"job_id":5}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))
		gomega.Expect(payments.called).To(gomega.Equal("initiate"))
	})

	ginkgo.It("accepts gateway notifications without a token", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/ipn", strings.NewReader("tran_id=JOB-1&status=VALID"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(payments.called).To(gomega.Equal("callback"))
	})

	ginkgo.It("rejects oversized gateway notifications before the service sees them", func() {
		form := "tran_id=JOB-1&status=VALID&padding=" + strings.Repeat("a", 128<<10)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/ipn", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		gomega.Expect(payments.called).To(gomega.BeEmpty())
	})

	ginkgo.It("caps request bodies across the api", func() {
		body := `{"name":"` + strings.Repeat("g", maxRequestBytes) + `","price":"10.00","duration_days":7}`
		rec := do(http.MethodPost, "/api/v1/promotion-packages", "3", body)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		gomega.Expect(packages.created).To(gomega.BeFalse())
	})

	ginkgo.It("routes /payments/mine ahead of the id route", func() {
		rec := do(http.MethodGet, "/api/v1/payments/mine", "1", "")
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(payments.called).To(gomega.Equal("mine"))
	})
})
