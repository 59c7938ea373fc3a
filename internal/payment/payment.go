package payment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	paymentmodel "github.com/frahmantamala/jobly/internal/core/datamodel/payment"
	gatewaytypes "github.com/frahmantamala/jobly/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/jobly/internal/core/events"
	"github.com/frahmantamala/jobly/internal/job"
	"github.com/frahmantamala/jobly/internal/promotion"
)

// Audit action tags.
const (
	ActionInitiated         = "initiated"
	ActionRedirectSent      = "redirect_sent"
	ActionCallbackReceived  = "callback_received"
	ActionValidationStarted = "validation_started"
	ActionValidationSuccess = "validation_success"
	ActionValidationFailed  = "validation_failed"
	ActionJobPromoted       = "job_promoted"
	ActionErrorOccurred     = "error_occurred"
)

// GatewayUnavailableReason is shown to callers when the gateway cannot be reached.
const GatewayUnavailableReason = "Payment gateway is currently unavailable. Please try again later."

var transitions = map[string][]string{
	paymentmodel.StatusInitiated: {paymentmodel.StatusPending, paymentmodel.StatusFailed},
	paymentmodel.StatusPending:   {paymentmodel.StatusCompleted, paymentmodel.StatusFailed},
	paymentmodel.StatusCompleted: {paymentmodel.StatusRefunded},
}

// CanTransition is the state guard for payment statuses.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports a status that no callback may change.
func IsTerminal(status string) bool {
	switch status {
	case paymentmodel.StatusCompleted, paymentmodel.StatusFailed, paymentmodel.StatusRefunded:
		return true
	}
	return false
}

// sourcesFor lists the statuses that may move to the given target.
func sourcesFor(to string) []string {
	var out []string
	for _, from := range []string{paymentmodel.StatusInitiated, paymentmodel.StatusPending, paymentmodel.StatusCompleted} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

// Completion is everything written atomically when a payment is confirmed.
type Completion struct {
	PaymentID       int64
	JobID           int64
	ValidationID    string
	GatewayResponse json.RawMessage
	CompletedAt     time.Time
	PromotedUntil   time.Time
}

type ListFilter struct {
	RecruiterID *int64
	Status      string
	Limit       int
	Offset      int
}

// ListRow is the read model behind payment listings.
type ListRow struct {
	ID            int64           `db:"id"`
	TransactionID string          `db:"transaction_id"`
	RecruiterID   int64           `db:"recruiter_id"`
	RecruiterName string          `db:"recruiter_name"`
	JobID         int64           `db:"job_id"`
	JobTitle      string          `db:"job_title"`
	Amount        decimal.Decimal `db:"amount"`
	Currency      string          `db:"currency"`
	Status        string          `db:"status"`
	IsJobPromoted bool            `db:"is_job_promoted"`
	CreatedAt     time.Time       `db:"created_at"`
	CompletedAt   *time.Time      `db:"completed_at"`
}

type RepositoryAPI interface {
	Create(ctx context.Context, tx *paymentmodel.Transaction) error
	GetByID(ctx context.Context, id int64) (*paymentmodel.Transaction, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*paymentmodel.Transaction, error)
	MarkPending(ctx context.Context, id int64, storeID string, gatewayResponse json.RawMessage) (bool, error)
	MarkFailed(ctx context.Context, id int64, from []string, reason string, gatewayResponse json.RawMessage) (bool, error)
	MarkRefunded(ctx context.Context, id int64) (bool, error)
	ApplyCompletion(ctx context.Context, c Completion) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]ListRow, int64, error)
}

type AuditRepositoryAPI interface {
	Append(ctx context.Context, entry *paymentmodel.Log) error
	ListByPayment(ctx context.Context, paymentID int64) ([]*paymentmodel.Log, error)
}

type GatewayAPI interface {
	Initiate(ctx context.Context, req *gatewaytypes.InitiateRequest) (*gatewaytypes.InitiateResult, error)
	Validate(ctx context.Context, tranID, valID string) (*gatewaytypes.ValidationResult, error)
}

type JobServiceAPI interface {
	Get(ctx context.Context, id int64) (*job.Job, error)
}

type PackageServiceAPI interface {
	GetActiveByID(ctx context.Context, id int64) (*promotion.Package, error)
	DefaultPackage(ctx context.Context) (*promotion.Package, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// RequestMeta carries request facts recorded in the audit log.
type RequestMeta struct {
	IPAddress string
}
