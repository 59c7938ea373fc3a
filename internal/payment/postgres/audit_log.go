package postgres

import (
	"context"

	"gorm.io/gorm"

	paymentmodel "github.com/frahmantamala/jobly/internal/core/datamodel/payment"
)

// AuditLogRepository only inserts and reads; payment logs are never changed.
type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Append(ctx context.Context, entry *paymentmodel.Log) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *AuditLogRepository) ListByPayment(ctx context.Context, paymentID int64) ([]*paymentmodel.Log, error) {
	logs := []*paymentmodel.Log{}
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").Order("id ASC").
		Find(&logs).Error
	return logs, err
}
