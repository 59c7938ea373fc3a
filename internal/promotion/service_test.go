package promotion_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/jobly/internal"
	promotionmodel "github.com/frahmantamala/jobly/internal/core/datamodel/promotion"
	"github.com/frahmantamala/jobly/internal/promotion"
	promotionPostgres "github.com/frahmantamala/jobly/internal/promotion/postgres"
	"github.com/frahmantamala/jobly/internal/transport"
)

func TestPromotion(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Promotion Package Suite")
}

var _ = Describe("Promotion package service", func() {
	var (
		db      *gorm.DB
		service *promotion.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:  logger.Default.LogMode(logger.Silent),
			NowFunc: func() time.Time { return time.Now().UTC() },
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(db.AutoMigrate(&promotionmodel.Package{})).To(Succeed())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = promotion.NewService(promotionPostgres.NewPackageRepository(db), slogger)
	})

	seed := func(name, price string, days int, active bool) *promotionmodel.Package {
		p := &promotionmodel.Package{
			Name:             name,
			Price:            decimal.RequireFromString(price),
			DurationDays:     days,
			FeaturedPosition: 3,
			IsActive:         active,
		}
		Expect(db.Create(p).Error).To(Succeed())
		return p
	}

	Describe("ListActive", func() {
		It("orders by price and then id, skipping inactive packages", func() {
			premium := seed("Premium", "1000.00", 30, true)
			basicA := seed("Basic A", "500.00", 7, true)
			seed("Retired", "100.00", 3, false)
			basicB := seed("Basic B", "500.00", 14, true)

			pkgs, err := service.ListActive(ctx)

			Expect(err).NotTo(HaveOccurred())
			ids := []int64{}
			for _, p := range pkgs {
				ids = append(ids, p.ID)
			}
			Expect(ids).To(Equal([]int64{basicA.ID, basicB.ID, premium.ID}))
		})
	})

	Describe("GetActiveByID", func() {
		It("returns an active package", func() {
			p := seed("Standard", "750.00", 14, true)

			got, err := service.GetActiveByID(ctx, p.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(got.Price.Equal(decimal.RequireFromString("750"))).To(BeTrue())
		})

		It("treats inactive and missing packages the same way", func() {
			p := seed("Old", "300.00", 5, false)

			for _, id := range []int64{p.ID, 9999} {
				_, err := service.GetActiveByID(ctx, id)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(appErr.Message).To(Equal("Promotion package not found or is inactive."))
			}
		})
	})

	Describe("DefaultPackage", func() {
		It("picks the cheapest active package with the lowest id", func() {
			seed("Premium", "1000.00", 30, true)
			first := seed("Cheap First", "250.00", 3, true)
			seed("Cheap Second", "250.00", 5, true)

			got, err := service.DefaultPackage(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(first.ID))
		})

		It("fails when nothing is active", func() {
			seed("Retired", "100.00", 3, false)

			_, err := service.DefaultPackage(ctx)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Message).To(Equal("No promotion packages available."))
		})
	})

	Describe("Create and Update", func() {
		It("creates an active package with defaults", func() {
			got, err := service.Create(ctx, promotion.PackageRequestDTO{
				Name:         "  Spotlight ",
				Price:        decimal.RequireFromString("499.999"),
				DurationDays: 10,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Spotlight"))
			Expect(got.IsActive).To(BeTrue())
			Expect(got.FeaturedPosition).To(Equal(3))
			Expect(got.ToResponse().Price).To(Equal("500.00"))
		})

		It("rejects non-positive prices and out of range durations", func() {
			_, err := service.Create(ctx, promotion.PackageRequestDTO{Name: "Free", Price: decimal.Zero, DurationDays: 7})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidAmount))

			_, err = service.Create(ctx, promotion.PackageRequestDTO{Name: "Forever", Price: decimal.NewFromInt(10), DurationDays: 0})
			appErr, ok = internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidDuration))
		})

		It("refuses a duplicate name", func() {
			seed("Premium", "1000.00", 30, true)

			_, err := service.Create(ctx, promotion.PackageRequestDTO{Name: "Premium", Price: decimal.NewFromInt(900), DurationDays: 30})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusConflict))
		})

		It("can deactivate a package", func() {
			p := seed("Weekly", "200.00", 7, true)
			inactive := false

			got, err := service.Update(ctx, p.ID, promotion.PackageRequestDTO{
				Name:         "Weekly",
				Price:        decimal.NewFromInt(250),
				DurationDays: 7,
				IsActive:     &inactive,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(got.IsActive).To(BeFalse())

			var reloaded promotionmodel.Package
			Expect(db.First(&reloaded, p.ID).Error).To(Succeed())
			Expect(reloaded.IsActive).To(BeFalse())
			Expect(reloaded.Price.Equal(decimal.NewFromInt(250))).To(BeTrue())
		})

		It("returns not found for an unknown package", func() {
			_, err := service.Update(ctx, 404, promotion.PackageRequestDTO{Name: "X", Price: decimal.NewFromInt(1), DurationDays: 1})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Handler", func() {
		var router chi.Router

		BeforeEach(func() {
			h := promotion.NewHandler(transport.NewBaseHandler(nil), service)
			router = chi.NewRouter()
			router.Get("/api/v1/promotion-packages", h.List)
			router.Get("/api/v1/promotion-packages/{id}", h.Get)
			router.Post("/api/v1/promotion-packages", h.Create)
		})

		It("serializes prices with two decimals", func() {
			seed("Basic", "500", 7, true)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/promotion-packages", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"price":"500.00"`))
			Expect(rec.Body.String()).To(ContainSubstring(`"count":1`))
		})

		It("rejects a non-numeric id", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/promotion-packages/abc", nil))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("creates packages from JSON", func() {
			body := `{"name":"Boost","description":"One week","price":"150.50","duration_days":7}`
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/promotion-packages", strings.NewReader(body)))

			Expect(rec.Code).To(Equal(http.StatusCreated))
			Expect(rec.Body.String()).To(ContainSubstring(`"price":"150.50"`))
		})
	})
})
