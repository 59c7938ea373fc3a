package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	jobmodel "github.com/frahmantamala/jobly/internal/core/datamodel/job"
	paymentmodel "github.com/frahmantamala/jobly/internal/core/datamodel/payment"
	paymentpkg "github.com/frahmantamala/jobly/internal/payment"
)

var errJobMissing = errors.New("job for payment does not exist")

// PaymentRepository writes through gorm. Listings are read through sqlx.
type PaymentRepository struct {
	db   *gorm.DB
	read *sqlx.DB
}

func NewPaymentRepository(db *gorm.DB, read *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{
		db:   db,
		read: read,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *paymentmodel.Transaction) error {
	if len(p.GatewayResponse) == 0 {
		p.GatewayResponse = datatypes.JSON("{}")
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*paymentmodel.Transaction, error) {
	var p paymentmodel.Transaction
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*paymentmodel.Transaction, error) {
	var p paymentmodel.Transaction
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) MarkPending(ctx context.Context, id int64, storeID string, gatewayResponse json.RawMessage) (bool, error) {
	res := r.db.WithContext(ctx).Model(&paymentmodel.Transaction{}).
		Where("id = ? AND status = ?", id, paymentmodel.StatusInitiated).
		Updates(map[string]interface{}{
			"status":           paymentmodel.StatusPending,
			"store_id":         storeID,
			"gateway_response": jsonOrEmpty(gatewayResponse),
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark payment %d pending: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, id int64, from []string, reason string, gatewayResponse json.RawMessage) (bool, error) {
	updates := map[string]interface{}{
		"status":        paymentmodel.StatusFailed,
		"error_message": reason,
	}
	if len(gatewayResponse) > 0 {
		updates["gateway_response"] = datatypes.JSON(gatewayResponse)
	}

	res := r.db.WithContext(ctx).Model(&paymentmodel.Transaction{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("mark payment %d failed: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *PaymentRepository) MarkRefunded(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&paymentmodel.Transaction{}).
		Where("id = ? AND status = ?", id, paymentmodel.StatusCompleted).
		Update("status", paymentmodel.StatusRefunded)
	if res.Error != nil {
		return false, fmt.Errorf("mark payment %d refunded: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ApplyCompletion completes a pending payment and promotes its job in one
// transaction. It reports false without writing anything when the payment
// is no longer pending.
func (r *PaymentRepository) ApplyCompletion(ctx context.Context, c paymentpkg.Completion) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&paymentmodel.Transaction{}).
			Where("id = ? AND status = ?", c.PaymentID, paymentmodel.StatusPending).
			Updates(map[string]interface{}{
				"status":           paymentmodel.StatusCompleted,
				"validation_id":    c.ValidationID,
				"gateway_response": jsonOrEmpty(c.GatewayResponse),
				"is_job_promoted":  true,
				"promoted_until":   c.PromotedUntil,
				"completed_at":     c.CompletedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("complete payment %d: %w", c.PaymentID, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		// another payment for the same job may already have promoted it
		// further out; never shorten an existing window
		until := gorm.Expr(
			"CASE WHEN promoted_until IS NULL OR promoted_until < ? THEN ? ELSE promoted_until END",
			c.PromotedUntil, c.PromotedUntil,
		)
		res = tx.Model(&jobmodel.Job{}).
			Where("id = ?", c.JobID).
			Updates(map[string]interface{}{
				"is_promoted":    true,
				"promoted_until": until,
			})
		if res.Error != nil {
			return fmt.Errorf("promote job %d: %w", c.JobID, res.Error)
		}
		if res.RowsAffected == 0 {
			return errJobMissing
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

const listColumns = `p.id, p.transaction_id, p.recruiter_id, COALESCE(u.full_name, '') AS recruiter_name,
	p.job_id, COALESCE(j.title, '') AS job_title, p.amount, p.currency, p.status,
	p.is_job_promoted, p.created_at, p.completed_at`

func (r *PaymentRepository) List(ctx context.Context, filter paymentpkg.ListFilter) ([]paymentpkg.ListRow, int64, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.RecruiterID != nil {
		where = append(where, "p.recruiter_id = ?")
		args = append(args, *filter.RecruiterID)
	}
	if filter.Status != "" {
		where = append(where, "p.status = ?")
		args = append(args, filter.Status)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	countQuery := r.read.Rebind("SELECT COUNT(*) FROM payment_transactions p" + clause)
	if err := r.read.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	query := r.read.Rebind(`SELECT ` + listColumns + `
		FROM payment_transactions p
		LEFT JOIN users u ON u.id = p.recruiter_id
		LEFT JOIN jobs j ON j.id = p.job_id` + clause + `
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ? OFFSET ?`)

	rows := []paymentpkg.ListRow{}
	if err := r.read.SelectContext(ctx, &rows, query, append(args, filter.Limit, filter.Offset)...); err != nil {
		return nil, 0, fmt.Errorf("select payments: %w", err)
	}
	return rows, total, nil
}

func jsonOrEmpty(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}
