package payment

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	StatusInitiated = "initiated"
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusRefunded  = "refunded"
)

type Transaction struct {
	ID                    int64           `gorm:"primaryKey" db:"id"`
	RecruiterID           int64           `gorm:"column:recruiter_id;not null;index" db:"recruiter_id"`
	JobID                 int64           `gorm:"column:job_id;not null;index" db:"job_id"`
	PackageID             *int64          `gorm:"column:package_id" db:"package_id"`
	TransactionID         string          `gorm:"column:transaction_id;not null;uniqueIndex" db:"transaction_id"`
	Amount                decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null" db:"amount"`
	Currency              string          `gorm:"column:currency;not null" db:"currency"`
	StoreID               string          `gorm:"column:store_id" db:"store_id"`
	ValidationID          *string         `gorm:"column:validation_id" db:"validation_id"`
	Status                string          `gorm:"column:status;not null;index" db:"status"`
	GatewayResponse       datatypes.JSON  `gorm:"column:gateway_response;not null" db:"-"`
	ErrorMessage          *string         `gorm:"column:error_message" db:"error_message"`
	IsJobPromoted         bool            `gorm:"column:is_job_promoted;not null" db:"is_job_promoted"`
	PromotionDurationDays int             `gorm:"column:promotion_duration_days;not null" db:"promotion_duration_days"`
	PromotedUntil         *time.Time      `gorm:"column:promoted_until" db:"promoted_until"`
	CreatedAt             time.Time       `gorm:"column:created_at" db:"created_at"`
	UpdatedAt             time.Time       `gorm:"column:updated_at" db:"updated_at"`
	CompletedAt           *time.Time      `gorm:"column:completed_at" db:"completed_at"`
}

func (Transaction) TableName() string {
	return "payment_transactions"
}

// Log is one append-only audit record for a transaction.
type Log struct {
	ID        int64          `gorm:"primaryKey" db:"id"`
	PaymentID int64          `gorm:"column:payment_id;not null;index" db:"payment_id"`
	Action    string         `gorm:"column:action;not null" db:"action"`
	Details   datatypes.JSON `gorm:"column:details;not null" db:"details"`
	IPAddress *string        `gorm:"column:ip_address" db:"ip_address"`
	CreatedAt time.Time      `gorm:"column:created_at" db:"created_at"`
}

func (Log) TableName() string {
	return "payment_logs"
}
