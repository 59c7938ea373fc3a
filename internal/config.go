package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env              string                 `mapstructure:"env"`
	Server           ServerConfig           `mapstructure:"http_server"`
	Database         DatabaseConfig         `mapstructure:"database"`
	Security         SecurityConfig         `mapstructure:"security" validate:"required"`
	Observability    ObservabilityConfig    `mapstructure:"observability"`
	Payment          PaymentConfig          `mapstructure:"payment"`
	Email            EmailConfig            `mapstructure:"email"`
	Notification     NotificationConfig     `mapstructure:"notification"`
	Snowflake        SnowflakeConfig        `mapstructure:"snowflake"`
	PromotionSweeper PromotionSweeperConfig `mapstructure:"promotion_sweeper"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	OpenAPIPath       string        `mapstructure:"openapi_path"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source" validate:"required"`
}

type SecurityConfig struct {
	JWTAccessSecret      string        `mapstructure:"jwt_access_secret" validate:"required,min=32"`
	JWTRefreshSecret     string        `mapstructure:"jwt_refresh_secret" validate:"required,min=32"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" validate:"required,min=1m,max=1h"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" validate:"required,min=1h"`
	BCryptCost           int           `mapstructure:"bcrypt_cost" validate:"required,min=10,max=15"`
}

// PaymentConfig holds the SSLCommerz store credentials and the URLs the
// gateway redirects to or calls back on.
type PaymentConfig struct {
	StoreID       string        `mapstructure:"store_id" validate:"required"`
	StorePassword string        `mapstructure:"store_password" validate:"required"`
	BaseURL       string        `mapstructure:"base_url" validate:"required,url"`
	Currency      string        `mapstructure:"currency" validate:"required,len=3"`
	SuccessURL    string        `mapstructure:"success_url" validate:"required,url"`
	FailURL       string        `mapstructure:"fail_url" validate:"required,url"`
	CancelURL     string        `mapstructure:"cancel_url" validate:"required,url"`
	IPNURL        string        `mapstructure:"ipn_url" validate:"required,url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port     int    `mapstructure:"port" validate:"required_if=Enabled true"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from" validate:"required_if=Enabled true"`
}

type NotificationConfig struct {
	MaxWorkers   int `mapstructure:"max_workers"`
	JobQueueSize int `mapstructure:"job_queue_size"`
}

type SnowflakeConfig struct {
	NodeID int64 `mapstructure:"node_id" validate:"min=0,max=1023"`
}

type PromotionSweeperConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- ENV LOADING -----------------

// LoadConfigFromEnv builds the configuration from plain environment
// variables, used for container deployments where no config.yml is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Env: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			OpenAPIPath:       getEnv("OPENAPI_PATH", "./api/openapi.yml"),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
			JWTRefreshSecret:     getEnv("JWT_REFRESH_SECRET", ""),
			AccessTokenDuration:  getEnvAsDuration("ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration: getEnvAsDuration("REFRESH_TOKEN_DURATION", 7*24*time.Hour),
			BCryptCost:           getEnvAsInt("BCRYPT_COST", 12),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
		Payment: PaymentConfig{
			StoreID:       getEnv("SSLCOMMERZ_STORE_ID", ""),
			StorePassword: getEnv("SSLCOMMERZ_STORE_PASSWORD", ""),
			BaseURL:       getEnv("SSLCOMMERZ_BASE_URL", "https://sandbox.sslcommerz.com"),
			Currency:      getEnv("PAYMENT_CURRENCY", "BDT"),
			SuccessURL:    getEnv("PAYMENT_SUCCESS_URL", ""),
			FailURL:       getEnv("PAYMENT_FAIL_URL", ""),
			CancelURL:     getEnv("PAYMENT_CANCEL_URL", ""),
			IPNURL:        getEnv("PAYMENT_IPN_URL", ""),
			Timeout:       getEnvAsDuration("PAYMENT_TIMEOUT", 10*time.Second),
		},
		Email: EmailConfig{
			Enabled:  getEnv("EMAIL_ENABLED", "false") == "true",
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("EMAIL_FROM", ""),
		},
		Notification: NotificationConfig{
			MaxWorkers:   getEnvAsInt("NOTIFICATION_MAX_WORKERS", 4),
			JobQueueSize: getEnvAsInt("NOTIFICATION_QUEUE_SIZE", 100),
		},
		Snowflake: SnowflakeConfig{
			NodeID: int64(getEnvAsInt("SNOWFLAKE_NODE_ID", 1)),
		},
		PromotionSweeper: PromotionSweeperConfig{
			Interval: getEnvAsDuration("PROMOTION_SWEEP_INTERVAL", 10*time.Minute),
		},
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

var structValidator = validator.New()

func (c *Config) Validate() error {
	var errs []string

	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Payment.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("payment config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if c.JWTAccessSecret != "" && c.JWTAccessSecret == c.JWTRefreshSecret {
		return errors.New("access and refresh secrets must differ")
	}
	return nil
}

func (c *PaymentConfig) Validate() error {
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if c.Timeout > time.Minute {
		return errors.New("timeout must not exceed 1m")
	}
	return nil
}

// GatewayTimeout falls back to 10s, the gateway's recommended ceiling.
func (c *PaymentConfig) GatewayTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.Timeout
}
