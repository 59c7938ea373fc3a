package payment

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/frahmantamala/jobly/internal"
	"github.com/frahmantamala/jobly/internal/core/common/validation"
	paymentmodel "github.com/frahmantamala/jobly/internal/core/datamodel/payment"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

type InitiateDTO struct {
	JobID     int64  `json:"job_id"`
	PackageID *int64 `json:"package_id,omitempty"`
}

func (d InitiateDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("job_id", d.JobID).MinInt(1, internal.ErrCodeValidationFailed)
	if d.PackageID != nil {
		v.Field("package_id", *d.PackageID).MinInt(1, internal.ErrCodeValidationFailed)
	}
	return v.Validate()
}

// CallbackDTO is the IPN payload. Field names follow the gateway.
type CallbackDTO struct {
	TranID     string `json:"tran_id"`
	ValID      string `json:"val_id"`
	Status     string `json:"status"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	CardType   string `json:"card_type"`
	CardNo     string `json:"card_no"`
	CardIssuer string `json:"card_issuer"`
	BankTranID string `json:"bank_tran_id"`
	Error      string `json:"error"`
}

func (d CallbackDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("tran_id", strings.TrimSpace(d.TranID)).Required()
	return v.Validate()
}

// AuditDetails is the untrusted payload as recorded, without card data.
func (d CallbackDTO) AuditDetails() map[string]interface{} {
	return map[string]interface{}{
		"tran_id":      d.TranID,
		"val_id":       d.ValID,
		"status":       d.Status,
		"amount":       d.Amount,
		"currency":     d.Currency,
		"card_type":    d.CardType,
		"card_issuer":  d.CardIssuer,
		"bank_tran_id": d.BankTranID,
		"error":        d.Error,
	}
}

type CheckStatusDTO struct {
	TransactionID string `json:"transaction_id"`
}

func (d CheckStatusDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("transaction_id", strings.TrimSpace(d.TransactionID)).Required().MaxLength(100)
	return v.Validate()
}

type ListQuery struct {
	Status  string
	Page    int
	PerPage int
}

func (q *ListQuery) Normalize() *internal.AppError {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = defaultPerPage
	}
	if q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}
	if q.Status == "" {
		return nil
	}

	v := validation.NewValidator()
	v.Field("status", q.Status).OneOf([]string{
		paymentmodel.StatusInitiated,
		paymentmodel.StatusPending,
		paymentmodel.StatusCompleted,
		paymentmodel.StatusFailed,
		paymentmodel.StatusRefunded,
	}, internal.ErrCodeInvalidStatusFilter)
	return v.Validate()
}

type InitiateResponse struct {
	Message       string `json:"message"`
	PaymentID     int64  `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

type CallbackResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

type ListItemResponse struct {
	ID            int64      `json:"id"`
	TransactionID string     `json:"transaction_id"`
	RecruiterName string     `json:"recruiter_name"`
	JobID         int64      `json:"job_id"`
	JobTitle      string     `json:"job_title"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	IsJobPromoted bool       `json:"is_job_promoted"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at"`
}

type ListResponse struct {
	Count   int64              `json:"count"`
	Page    int                `json:"page"`
	PerPage int                `json:"per_page"`
	Results []ListItemResponse `json:"results"`
}

func ToListItem(r ListRow) ListItemResponse {
	return ListItemResponse{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		RecruiterName: r.RecruiterName,
		JobID:         r.JobID,
		JobTitle:      r.JobTitle,
		Amount:        r.Amount.StringFixed(2),
		Currency:      r.Currency,
		Status:        r.Status,
		IsJobPromoted: r.IsJobPromoted,
		CreatedAt:     r.CreatedAt,
		CompletedAt:   r.CompletedAt,
	}
}

type LogResponse struct {
	ID        int64           `json:"id"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details"`
	IPAddress *string         `json:"ip_address"`
	CreatedAt time.Time       `json:"created_at"`
}

func ToLogResponses(logs []*paymentmodel.Log) []LogResponse {
	out := make([]LogResponse, 0, len(logs))
	for _, l := range logs {
		details := json.RawMessage(l.Details)
		if len(details) == 0 {
			details = json.RawMessage("{}")
		}
		out = append(out, LogResponse{
			ID:        l.ID,
			Action:    l.Action,
			Details:   details,
			IPAddress: l.IPAddress,
			CreatedAt: l.CreatedAt,
		})
	}
	return out
}

type JobPromotionView struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	IsPromoted    bool       `json:"is_promoted"`
	PromotedUntil *time.Time `json:"promoted_until"`
}

type DetailResponse struct {
	ID                    int64             `json:"id"`
	TransactionID         string            `json:"transaction_id"`
	RecruiterID           int64             `json:"recruiter_id"`
	JobID                 int64             `json:"job_id"`
	PackageID             *int64            `json:"package_id"`
	Amount                string            `json:"amount"`
	Currency              string            `json:"currency"`
	Status                string            `json:"status"`
	IsJobPromoted         bool              `json:"is_job_promoted"`
	PromotionDurationDays int               `json:"promotion_duration_days"`
	PromotedUntil         *time.Time        `json:"promoted_until"`
	ErrorMessage          *string           `json:"error_message"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
	CompletedAt           *time.Time        `json:"completed_at"`
	Job                   *JobPromotionView `json:"job,omitempty"`
	Logs                  []LogResponse     `json:"logs,omitempty"`
}

func ToDetail(t *paymentmodel.Transaction) DetailResponse {
	return DetailResponse{
		ID:                    t.ID,
		TransactionID:         t.TransactionID,
		RecruiterID:           t.RecruiterID,
		JobID:                 t.JobID,
		PackageID:             t.PackageID,
		Amount:                t.Amount.StringFixed(2),
		Currency:              t.Currency,
		Status:                t.Status,
		IsJobPromoted:         t.IsJobPromoted,
		PromotionDurationDays: t.PromotionDurationDays,
		PromotedUntil:         t.PromotedUntil,
		ErrorMessage:          t.ErrorMessage,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
		CompletedAt:           t.CompletedAt,
	}
}
