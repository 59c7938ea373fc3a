package paymentgateway_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	gatewaytypes "github.com/frahmantamala/jobly/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/jobly/internal/paymentgateway"
)

func TestPaymentGateway(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Payment Gateway Suite")
}

var _ = Describe("SSLCommerz client", func() {
	var (
		server   *httptest.Server
		client   *paymentgateway.Client
		handler  http.HandlerFunc
		lastForm map[string]string
		ctx      context.Context
	)

	newRequest := func() *gatewaytypes.InitiateRequest {
		return &gatewaytypes.InitiateRequest{
			TransactionID:   "JOB-ABC123",
			Amount:          decimal.RequireFromString("500"),
			Currency:        "BDT",
			ProductName:     "Job Promotion - Basic",
			ProductCategory: "Job Promotion",
			Customer: gatewaytypes.Customer{
				Name:    "Rina Recruiter",
				Email:   "rina@example.com",
				Phone:   "01700000000",
				Address: "Dhaka",
				City:    "Dhaka",
				Country: "Bangladesh",
			},
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		lastForm = map[string]string{}
		handler = nil

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = r.ParseForm()
			for k := range r.Form {
				lastForm[k] = r.Form.Get(k)
			}
			lastForm["_path"] = r.URL.Path
			lastForm["_method"] = r.Method
			handler(w, r)
		}))

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		client = paymentgateway.NewClient(paymentgateway.Config{
			StoreID:       "teststore",
			StorePassword: "teststore@ssl",
			BaseURL:       server.URL + "/",
			SuccessURL:    "http://localhost/success",
			FailURL:       "http://localhost/fail",
			CancelURL:     "http://localhost/cancel",
			IPNURL:        "http://localhost/api/v1/payments/ipn",
			Timeout:       time.Second,
		}, slogger)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Initiate", func() {
		It("posts the session form and returns the redirect URL", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"status":"SUCCESS","sessionkey":"SK1","GatewayPageURL":"https://sandbox.example/pay/SK1"}`))
			}

			res, err := client.Initiate(ctx, newRequest())

			Expect(err).NotTo(HaveOccurred())
			Expect(res.RedirectURL).To(Equal("https://sandbox.example/pay/SK1"))
			Expect(res.StoreID).To(Equal("teststore"))
			Expect(res.SessionKey).To(Equal("SK1"))
			Expect(string(res.Raw)).To(ContainSubstring("SUCCESS"))

			Expect(lastForm["_path"]).To(Equal("/gwprocess/v4/api.php"))
			Expect(lastForm["_method"]).To(Equal(http.MethodPost))
			Expect(lastForm["total_amount"]).To(Equal("500.00"))
			Expect(lastForm["tran_id"]).To(Equal("JOB-ABC123"))
			Expect(lastForm["store_passwd"]).To(Equal("teststore@ssl"))
			Expect(lastForm["product_profile"]).To(Equal("non-physical-goods"))
			Expect(lastForm["num_of_item"]).To(Equal("1"))
			Expect(lastForm["shipping_method"]).To(Equal("NO"))
		})

		It("returns a RejectedError carrying the gateway reason", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"FAILED","failedreason":"Store Credential Error Or Store is De-active"}`))
			}

			_, err := client.Initiate(ctx, newRequest())

			var rejected *gatewaytypes.RejectedError
			Expect(errors.As(err, &rejected)).To(BeTrue())
			Expect(rejected.Reason).To(Equal("Store Credential Error Or Store is De-active"))
		})

		It("treats a non-200 answer as a transport failure", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}

			_, err := client.Initiate(ctx, newRequest())

			Expect(err).To(HaveOccurred())
			var rejected *gatewaytypes.RejectedError
			Expect(errors.As(err, &rejected)).To(BeFalse())
		})

		It("times out on a slow gateway", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(3 * time.Second):
				case <-r.Context().Done():
				}
			}

			_, err := client.Initiate(ctx, newRequest())

			Expect(err).To(HaveOccurred())
		})

		It("validates the request before calling out", func() {
			req := newRequest()
			req.Amount = decimal.Zero

			_, err := client.Initiate(ctx, req)

			Expect(err).To(MatchError(ContainSubstring("amount")))
			Expect(lastForm).To(BeEmpty())
		})
	})

	Describe("Validate", func() {
		It("reports a VALID response with its amount", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"VALID","tran_id":"JOB-ABC123","val_id":"V1","amount":"500.00","currency":"BDT"}`))
			}

			res, err := client.Validate(ctx, "JOB-ABC123", "V1")

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Valid).To(BeTrue())
			Expect(res.TranID).To(Equal("JOB-ABC123"))
			Expect(res.Amount.Equal(decimal.NewFromInt(500))).To(BeTrue())
			Expect(lastForm["_path"]).To(Equal("/validator/api/validationserverAPI.php"))
			Expect(lastForm["val_id"]).To(Equal("V1"))
			Expect(lastForm["format"]).To(Equal("json"))
		})

		It("accepts VALIDATED as valid", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"VALIDATED","tran_id":"JOB-ABC123","amount":"500.00","currency":"BDT"}`))
			}

			res, err := client.Validate(ctx, "JOB-ABC123", "V1")

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Valid).To(BeTrue())
		})

		It("marks anything else invalid", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"INVALID_TRANSACTION"}`))
			}

			res, err := client.Validate(ctx, "JOB-ABC123", "V1")

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Valid).To(BeFalse())
			Expect(res.Status).To(Equal("INVALID_TRANSACTION"))
		})

		It("fails on malformed JSON", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`<html>oops</html>`))
			}

			_, err := client.Validate(ctx, "JOB-ABC123", "V1")

			Expect(err).To(HaveOccurred())
		})
	})
})
