package job_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/jobly/internal"
	jobmodel "github.com/frahmantamala/jobly/internal/core/datamodel/job"
	"github.com/frahmantamala/jobly/internal/core/datamodel/payment"
	"github.com/frahmantamala/jobly/internal/job"
	jobPostgres "github.com/frahmantamala/jobly/internal/job/postgres"
)

func TestJob(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Job Promotion Suite")
}

var _ = Describe("Job promotion service", func() {
	var (
		db      *gorm.DB
		service *job.Service
		ctx     context.Context
		now     time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:  logger.Default.LogMode(logger.Silent),
			NowFunc: func() time.Time { return time.Now().UTC() },
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(db.AutoMigrate(&jobmodel.Job{}, &payment.Transaction{})).To(Succeed())

		repo := jobPostgres.NewJobRepository(db, sqlx.NewDb(sqlDB, "sqlite3"))
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = job.NewService(repo, slogger).WithClock(func() time.Time { return now })
	})

	createJob := func(recruiterID int64, title string, promoted bool, until *time.Time) *jobmodel.Job {
		j := &jobmodel.Job{RecruiterID: recruiterID, Title: title, IsPromoted: promoted, PromotedUntil: until}
		Expect(db.Create(j).Error).To(Succeed())
		return j
	}

	It("reports active promotions as-is", func() {
		until := now.Add(48 * time.Hour)
		j := createJob(1, "Backend Engineer", true, &until)

		got, err := service.Get(ctx, j.ID)

		Expect(err).NotTo(HaveOccurred())
		Expect(got.IsPromotionActive(now)).To(BeTrue())
	})

	It("lazily flips an expired promotion when read", func() {
		until := now.Add(-time.Hour)
		j := createJob(1, "Data Analyst", true, &until)

		got, err := service.Get(ctx, j.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.IsPromoted).To(BeFalse())

		var stored jobmodel.Job
		Expect(db.First(&stored, j.ID).Error).To(Succeed())
		Expect(stored.IsPromoted).To(BeFalse())
		Expect(stored.PromotedUntil).NotTo(BeNil())
	})

	It("returns a not-found AppError for unknown jobs", func() {
		_, err := service.Get(ctx, 404)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeJobNotFound))
	})

	It("lists promotion status with the latest completed payment", func() {
		until := now.Add(24 * time.Hour)
		promoted := createJob(1, "Promoted", true, &until)
		createJob(1, "Plain", false, nil)
		createJob(2, "Someone else's", false, nil)

		first := now.Add(-72 * time.Hour)
		second := now.Add(-time.Hour)
		for i, at := range []time.Time{first, second} {
			completedAt := at
			Expect(db.Create(&payment.Transaction{
				RecruiterID:     1,
				JobID:           promoted.ID,
				TransactionID:   "JOB-T" + string(rune('A'+i)),
				Amount:          decimal.NewFromInt(500),
				Currency:        "BDT",
				Status:          payment.StatusCompleted,
				GatewayResponse: datatypes.JSON(`{}`),
				CompletedAt:     &completedAt,
			}).Error).To(Succeed())
		}

		statuses, err := service.PromotionStatus(ctx, 1)

		Expect(err).NotTo(HaveOccurred())
		Expect(statuses).To(HaveLen(2))
		Expect(statuses[0].JobTitle).To(Equal("Promoted"))
		Expect(statuses[0].IsPromoted).To(BeTrue())
		Expect(statuses[0].LastPaymentDate).NotTo(BeNil())
		Expect(statuses[0].LastPaymentDate.Equal(second)).To(BeTrue())
		Expect(statuses[1].LastPaymentDate).To(BeNil())
	})

	It("sweeps every lapsed promotion", func() {
		past := now.Add(-time.Minute)
		future := now.Add(time.Hour)
		createJob(1, "lapsed", true, &past)
		createJob(1, "active", true, &future)

		n, err := service.ExpireLapsed(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))

		var active int64
		Expect(db.Model(&jobmodel.Job{}).Where("is_promoted = ?", true).Count(&active).Error).To(Succeed())
		Expect(active).To(Equal(int64(1)))
	})
})
