package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/jobly/internal/core/events"
	"github.com/frahmantamala/jobly/internal/core/user"
	"github.com/frahmantamala/jobly/internal/notification"
)

type Notifier interface {
	Enqueue(msg notification.Message) bool
}

type UserLookup interface {
	GetUser(ctx context.Context, userID int64) (*user.User, error)
}

// EventHandler turns payment events into recruiter emails.
type EventHandler struct {
	notifier Notifier
	users    UserLookup
	jobs     JobServiceAPI
	logger   *slog.Logger
}

func NewEventHandler(notifier Notifier, users UserLookup, jobs JobServiceAPI, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		notifier: notifier,
		users:    users,
		jobs:     jobs,
		logger:   logger,
	}
}

func (h *EventHandler) HandleJobPromoted(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.JobPromotedEvent)
	if !ok {
		return fmt.Errorf("expected JobPromotedEvent, got %T", event)
	}

	h.logger.Info("job promoted", "job_id", e.JobID, "transaction_id", e.TransactionID, "promoted_until", e.PromotedUntil)
	return nil
}

func (h *EventHandler) HandlePaymentCompleted(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PaymentCompletedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentCompletedEvent, got %T", event)
	}

	recipient, err := h.users.GetUser(ctx, e.RecruiterID)
	if err != nil {
		return fmt.Errorf("load recruiter %d: %w", e.RecruiterID, err)
	}

	data := map[string]interface{}{
		"RecipientName": customerName(recipient),
		"TransactionID": e.TransactionID,
		"Amount":        e.Amount,
		"Currency":      e.Currency,
	}
	if j, err := h.jobs.Get(ctx, e.JobID); err == nil {
		data["JobTitle"] = j.Title
		if j.PromotedUntil != nil {
			data["PromotedUntil"] = j.PromotedUntil.UTC().Format("2006-01-02 15:04 UTC")
		}
	}

	h.enqueue(e.EventID(), notification.TemplatePaymentSuccess, recipient.Email, data)
	return nil
}

func (h *EventHandler) HandlePaymentFailed(ctx context.Context, event events.Event) error {
	e, ok := event.(*events.PaymentFailedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment failed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentFailedEvent, got %T", event)
	}

	recipient, err := h.users.GetUser(ctx, e.RecruiterID)
	if err != nil {
		return fmt.Errorf("load recruiter %d: %w", e.RecruiterID, err)
	}

	h.enqueue(e.EventID(), notification.TemplatePaymentFailed, recipient.Email, map[string]interface{}{
		"RecipientName": customerName(recipient),
		"TransactionID": e.TransactionID,
		"Amount":        e.Amount,
		"Currency":      e.Currency,
		"Reason":        e.Reason,
	})
	return nil
}

func (h *EventHandler) enqueue(eventID, template, recipient string, data map[string]interface{}) {
	if !h.notifier.Enqueue(notification.Message{Template: template, Recipient: recipient, Data: data}) {
		h.logger.Warn("notification not queued", "event_id", eventID, "template", template)
		return
	}
	h.logger.Info("notification queued", "event_id", eventID, "template", template)
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentCompleted, h.HandlePaymentCompleted)
	eventBus.Subscribe(events.EventTypePaymentFailed, h.HandlePaymentFailed)
	eventBus.Subscribe(events.EventTypeJobPromoted, h.HandleJobPromoted)

	h.logger.Info("payment event handlers registered",
		"handlers", []string{events.EventTypePaymentCompleted, events.EventTypePaymentFailed, events.EventTypeJobPromoted})
}
