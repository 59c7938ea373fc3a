package cmd

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/snowflake"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/jobly/internal"
	"github.com/frahmantamala/jobly/internal/auth"
	authpostgres "github.com/frahmantamala/jobly/internal/auth/postgres"
	"github.com/frahmantamala/jobly/internal/core/events"
	"github.com/frahmantamala/jobly/internal/job"
	jobpostgres "github.com/frahmantamala/jobly/internal/job/postgres"
	"github.com/frahmantamala/jobly/internal/notification"
	"github.com/frahmantamala/jobly/internal/payment"
	paymentpostgres "github.com/frahmantamala/jobly/internal/payment/postgres"
	"github.com/frahmantamala/jobly/internal/paymentgateway"
	"github.com/frahmantamala/jobly/internal/promotion"
	promotionpostgres "github.com/frahmantamala/jobly/internal/promotion/postgres"
	"github.com/frahmantamala/jobly/pkg/logger"
)

// application holds every long-lived component shared by the commands.
type application struct {
	Config *internal.Config
	Logger *slog.Logger

	SQL  *sqlx.DB
	Gorm *gorm.DB

	Bus           *events.EventBus
	Notifications *notification.Pool

	Auth         *auth.Service
	Jobs         *job.Service
	Packages     *promotion.Service
	Payments     *payment.Service
	PaymentStore *paymentpostgres.PaymentRepository
}

func newApplication(cfg *internal.Config) (*application, error) {
	lg := logger.LoggerWrapper()

	sqlDB, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	node, err := snowflake.NewNode(cfg.Snowflake.NodeID)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authpostgres.NewRepository(gormDB), tokenGen)

	jobService := job.NewService(jobpostgres.NewJobRepository(gormDB, sqlDB), lg)
	packageService := promotion.NewService(promotionpostgres.NewPackageRepository(gormDB), lg)

	gateway := paymentgateway.NewClient(paymentgateway.Config{
		StoreID:       cfg.Payment.StoreID,
		StorePassword: cfg.Payment.StorePassword,
		BaseURL:       cfg.Payment.BaseURL,
		SuccessURL:    cfg.Payment.SuccessURL,
		FailURL:       cfg.Payment.FailURL,
		CancelURL:     cfg.Payment.CancelURL,
		IPNURL:        cfg.Payment.IPNURL,
		Timeout:       cfg.Payment.Timeout,
	}, lg)

	bus := events.NewEventBus(lg)

	sender := notification.NewSender(notification.SenderConfig{
		Enabled:  cfg.Email.Enabled,
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
	}, lg)
	pool := notification.NewPool(notification.PoolConfig{
		MaxWorkers:   cfg.Notification.MaxWorkers,
		JobQueueSize: cfg.Notification.JobQueueSize,
	}, sender, lg)

	payment.NewEventHandler(pool, authService, jobService, lg).RegisterEventHandlers(bus)

	paymentRepo := paymentpostgres.NewPaymentRepository(gormDB, sqlDB)
	audit := payment.NewAuditWriter(paymentpostgres.NewAuditLogRepository(gormDB), lg)
	paymentService := payment.NewService(
		paymentRepo,
		audit,
		gateway,
		jobService,
		packageService,
		bus,
		node,
		payment.Options{Currency: cfg.Payment.Currency},
		lg,
	)

	return &application{
		Config:        cfg,
		Logger:        lg,
		SQL:           sqlDB,
		Gorm:          gormDB,
		Bus:           bus,
		Notifications: pool,
		Auth:          authService,
		Jobs:          jobService,
		Packages:      packageService,
		Payments:      paymentService,
		PaymentStore:  paymentRepo,
	}, nil
}

// Close drains in-flight event handlers and queued emails before closing
// the database.
func (a *application) Close() {
	a.Bus.Wait()
	a.Notifications.Shutdown()
	if err := a.SQL.Close(); err != nil {
		a.Logger.Error("database close error", "error", err)
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx connection pool with gorm.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}
