package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
	EventTypeJobPromoted      = "job.promoted"
)

type PaymentCompletedEvent struct {
	BaseEvent
	PaymentID     int64     `json:"payment_id"`
	TransactionID string    `json:"transaction_id"`
	RecruiterID   int64     `json:"recruiter_id"`
	JobID         int64     `json:"job_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	CompletedAt   time.Time `json:"completed_at"`
}

func NewPaymentCompletedEvent(paymentID int64, transactionID string, recruiterID, jobID int64, amount, currency string, completedAt time.Time) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":     paymentID,
				"transaction_id": transactionID,
				"recruiter_id":   recruiterID,
				"job_id":         jobID,
				"amount":         amount,
				"currency":       currency,
				"completed_at":   completedAt,
			},
		},
		PaymentID:     paymentID,
		TransactionID: transactionID,
		RecruiterID:   recruiterID,
		JobID:         jobID,
		Amount:        amount,
		Currency:      currency,
		CompletedAt:   completedAt,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	PaymentID     int64  `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	RecruiterID   int64  `json:"recruiter_id"`
	JobID         int64  `json:"job_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Reason        string `json:"reason"`
}

func NewPaymentFailedEvent(paymentID int64, transactionID string, recruiterID, jobID int64, amount, currency, reason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":     paymentID,
				"transaction_id": transactionID,
				"recruiter_id":   recruiterID,
				"job_id":         jobID,
				"amount":         amount,
				"currency":       currency,
				"reason":         reason,
			},
		},
		PaymentID:     paymentID,
		TransactionID: transactionID,
		RecruiterID:   recruiterID,
		JobID:         jobID,
		Amount:        amount,
		Currency:      currency,
		Reason:        reason,
	}
}

type JobPromotedEvent struct {
	BaseEvent
	PaymentID     int64     `json:"payment_id"`
	TransactionID string    `json:"transaction_id"`
	RecruiterID   int64     `json:"recruiter_id"`
	JobID         int64     `json:"job_id"`
	PromotedUntil time.Time `json:"promoted_until"`
}

func NewJobPromotedEvent(paymentID int64, transactionID string, recruiterID, jobID int64, promotedUntil time.Time) *JobPromotedEvent {
	return &JobPromotedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeJobPromoted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":     paymentID,
				"transaction_id": transactionID,
				"recruiter_id":   recruiterID,
				"job_id":         jobID,
				"promoted_until": promotedUntil,
			},
		},
		PaymentID:     paymentID,
		TransactionID: transactionID,
		RecruiterID:   recruiterID,
		JobID:         jobID,
		PromotedUntil: promotedUntil,
	}
}
