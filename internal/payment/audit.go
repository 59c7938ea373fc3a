package payment

import (
	"context"
	"encoding/json"
	"log/slog"

	"gorm.io/datatypes"

	paymentmodel "github.com/frahmantamala/jobly/internal/core/datamodel/payment"
)

// AuditWriter appends payment log entries. Write failures are logged and
// never surface to the caller.
type AuditWriter struct {
	repo   AuditRepositoryAPI
	logger *slog.Logger
}

func NewAuditWriter(repo AuditRepositoryAPI, logger *slog.Logger) *AuditWriter {
	return &AuditWriter{
		repo:   repo,
		logger: logger,
	}
}

func (a *AuditWriter) Record(ctx context.Context, paymentID int64, action string, details map[string]interface{}, meta RequestMeta) {
	if details == nil {
		details = map[string]interface{}{}
	}

	raw, err := json.Marshal(details)
	if err != nil {
		a.logger.Error("failed to encode audit details", "payment_id", paymentID, "action", action, "error", err)
		raw = []byte("{}")
	}

	entry := &paymentmodel.Log{
		PaymentID: paymentID,
		Action:    action,
		Details:   datatypes.JSON(raw),
	}
	if meta.IPAddress != "" {
		ip := meta.IPAddress
		entry.IPAddress = &ip
	}

	if err := a.repo.Append(ctx, entry); err != nil {
		a.logger.Error("failed to write payment audit entry",
			"payment_id", paymentID,
			"action", action,
			"error", err)
	}
}

func (a *AuditWriter) List(ctx context.Context, paymentID int64) ([]*paymentmodel.Log, error) {
	return a.repo.ListByPayment(ctx, paymentID)
}
