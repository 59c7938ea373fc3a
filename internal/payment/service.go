package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/frahmantamala/jobly/internal"
	paymentmodel "github.com/frahmantamala/jobly/internal/core/datamodel/payment"
	gatewaytypes "github.com/frahmantamala/jobly/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/jobly/internal/core/events"
	"github.com/frahmantamala/jobly/internal/core/user"
	"github.com/frahmantamala/jobly/internal/promotion"
	"github.com/frahmantamala/jobly/pkg/logger"
)

type ServiceAPI interface {
	Initiate(ctx context.Context, u *user.User, dto InitiateDTO, meta RequestMeta) (*InitiateResponse, error)
	HandleCallback(ctx context.Context, dto CallbackDTO, meta RequestMeta) (*CallbackResponse, error)
	CheckStatus(ctx context.Context, u *user.User, dto CheckStatusDTO) (*DetailResponse, error)
	List(ctx context.Context, u *user.User, q ListQuery) (*ListResponse, error)
	Mine(ctx context.Context, u *user.User, q ListQuery) (*ListResponse, error)
	Detail(ctx context.Context, u *user.User, id int64) (*DetailResponse, error)
	Logs(ctx context.Context, u *user.User, id int64) ([]LogResponse, error)
	Refund(ctx context.Context, u *user.User, id int64) (*DetailResponse, error)
}

type Options struct {
	Currency        string
	CustomerCity    string
	CustomerCountry string
}

type Service struct {
	repo     RepositoryAPI
	audit    *AuditWriter
	gateway  GatewayAPI
	jobs     JobServiceAPI
	packages PackageServiceAPI
	bus      Publisher
	node     *snowflake.Node
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(
	repo RepositoryAPI,
	audit *AuditWriter,
	gateway GatewayAPI,
	jobs JobServiceAPI,
	packages PackageServiceAPI,
	bus Publisher,
	node *snowflake.Node,
	opts Options,
	logger *slog.Logger,
) *Service {
	if opts.Currency == "" {
		opts.Currency = "BDT"
	}
	if opts.CustomerCity == "" {
		opts.CustomerCity = "Dhaka"
	}
	if opts.CustomerCountry == "" {
		opts.CustomerCountry = "Bangladesh"
	}
	return &Service{
		repo:     repo,
		audit:    audit,
		gateway:  gateway,
		jobs:     jobs,
		packages: packages,
		bus:      bus,
		node:     node,
		opts:     opts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

var (
	ErrPaymentNotFound = internal.NewNotFoundError("Payment not found.", internal.ErrCodePaymentNotFound)
	ErrRecruiterOnly   = internal.NewForbiddenError("Only recruiters can promote jobs.", internal.ErrCodeRecruiterOnly)
	ErrNotOwner        = internal.NewForbiddenError("You do not have permission to view this payment.", internal.ErrCodeUnauthorizedAccess)
)

// NewTransactionRef returns a unique external reference such as JOB-1A2B3C4D5E.
func NewTransactionRef(node *snowflake.Node) string {
	return "JOB-" + strings.ToUpper(node.Generate().Base36())
}

func (s *Service) Initiate(ctx context.Context, u *user.User, dto InitiateDTO, meta RequestMeta) (*InitiateResponse, error) {
	if !user.IsRecruiter(u) {
		return nil, ErrRecruiterOnly
	}
	if verr := dto.Validate(); verr != nil {
		return nil, verr
	}

	j, err := s.jobs.Get(ctx, dto.JobID)
	if err != nil {
		return nil, err
	}
	if j.RecruiterID != u.ID {
		return nil, internal.NewValidationFieldError("job_id", "You can only promote your own jobs.", internal.ErrCodeJobNotOwned)
	}
	if now := s.now(); j.IsPromotionActive(now) {
		return nil, internal.NewValidationFieldError("job_id",
			"This job is already promoted. Promotion expires at "+j.PromotedUntil.UTC().Format("2006-01-02 15:04:05"),
			internal.ErrCodeJobAlreadyPromoted)
	}

	pkg, err := s.resolvePackage(ctx, dto.PackageID)
	if err != nil {
		return nil, err
	}

	pkgID := pkg.ID
	tx := &paymentmodel.Transaction{
		RecruiterID:           u.ID,
		JobID:                 j.ID,
		PackageID:             &pkgID,
		TransactionID:         NewTransactionRef(s.node),
		Amount:                pkg.Price,
		Currency:              s.opts.Currency,
		Status:                paymentmodel.StatusInitiated,
		GatewayResponse:       datatypes.JSON("{}"),
		PromotionDurationDays: pkg.DurationDays,
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	lg := logger.From(ctx).With("payment_id", tx.ID, "transaction_id", tx.TransactionID)
	lg.Info("payment initiated", "job_id", j.ID, "package_id", pkg.ID, "amount", tx.Amount.StringFixed(2))

	result, err := s.gateway.Initiate(ctx, &gatewaytypes.InitiateRequest{
		TransactionID:   tx.TransactionID,
		Amount:          tx.Amount,
		Currency:        tx.Currency,
		ProductName:     "Job Promotion - " + pkg.Name,
		ProductCategory: "Job Promotion",
		Customer: gatewaytypes.Customer{
			Name:    customerName(u),
			Email:   u.Email,
			Phone:   customerPhone(u),
			Address: s.opts.CustomerCity,
			City:    s.opts.CustomerCity,
			Country: s.opts.CustomerCountry,
		},
	})
	if err != nil {
		var rejected *gatewaytypes.RejectedError
		if errors.As(err, &rejected) {
			lg.Warn("gateway rejected payment", "reason", rejected.Reason)
			s.fail(ctx, tx, ActionErrorOccurred, rejected.Reason, rejected.Raw, map[string]interface{}{
				"stage":  "initiate",
				"reason": rejected.Reason,
			}, meta)
			return nil, internal.NewExternalError(rejected.Reason, internal.ErrCodeGatewayRejected, err)
		}

		lg.Error("gateway initiation failed", "error", err)
		s.fail(ctx, tx, ActionErrorOccurred, GatewayUnavailableReason, nil, map[string]interface{}{
			"stage": "initiate",
			"error": err.Error(),
		}, meta)
		return nil, internal.NewExternalError(GatewayUnavailableReason, internal.ErrCodeGatewayUnavailable, err)
	}

	ok, err := s.repo.MarkPending(ctx, tx.ID, result.StoreID, result.Raw)
	if err != nil || !ok {
		lg.Error("failed to mark payment pending", "error", err, "applied", ok)
		s.fail(ctx, tx, ActionErrorOccurred, "Could not record gateway session.", result.Raw, map[string]interface{}{
			"stage": "mark_pending",
		}, meta)
		return nil, internal.NewInternalError("An unexpected error occurred", err)
	}

	s.audit.Record(ctx, tx.ID, ActionRedirectSent, map[string]interface{}{
		"redirect_url": result.RedirectURL,
		"session_key":  result.SessionKey,
		"amount":       tx.Amount.StringFixed(2),
		"currency":     tx.Currency,
	}, meta)

	return &InitiateResponse{
		Message:       "Payment initiated successfully",
		PaymentID:     tx.ID,
		TransactionID: tx.TransactionID,
		RedirectURL:   result.RedirectURL,
		Amount:        tx.Amount.StringFixed(2),
		Currency:      tx.Currency,
	}, nil
}

func (s *Service) resolvePackage(ctx context.Context, packageID *int64) (*promotion.Package, error) {
	if packageID != nil {
		return s.packages.GetActiveByID(ctx, *packageID)
	}
	return s.packages.DefaultPackage(ctx)
}

// HandleCallback verifies an IPN delivery with the gateway before acting on
// it. Repeated deliveries for a settled payment change nothing.
func (s *Service) HandleCallback(ctx context.Context, dto CallbackDTO, meta RequestMeta) (*CallbackResponse, error) {
	if verr := dto.Validate(); verr != nil {
		return nil, verr
	}
	ref := strings.TrimSpace(dto.TranID)

	tx, err := s.repo.GetByTransactionID(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.From(ctx).Warn("callback for unknown transaction", "transaction_id", ref)
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("load payment %s: %w", ref, err)
	}

	lg := logger.From(ctx).With("payment_id", tx.ID, "transaction_id", tx.TransactionID)

	if IsTerminal(tx.Status) {
		lg.Info("duplicate callback ignored", "status", tx.Status)
		return &CallbackResponse{Status: tx.Status, TransactionID: tx.TransactionID, Message: "Payment already processed"}, nil
	}
	if tx.Status != paymentmodel.StatusPending {
		return nil, internal.NewConflictError("Payment is not awaiting a gateway callback.", internal.ErrCodePaymentNotAwaiting)
	}

	s.audit.Record(ctx, tx.ID, ActionCallbackReceived, dto.AuditDetails(), meta)

	status := strings.ToUpper(strings.TrimSpace(dto.Status))
	if status == gatewaytypes.CallbackStatusFailed || status == gatewaytypes.CallbackStatusCancelled || dto.ValID == "" {
		reason := "Payment was not completed at the gateway."
		if status == gatewaytypes.CallbackStatusCancelled {
			reason = "Payment was cancelled."
		}
		if dto.Error != "" {
			reason = dto.Error
		}
		lg.Info("callback reports unsuccessful payment", "gateway_status", status)
		return s.failCallback(ctx, tx, ActionValidationFailed, reason, nil, map[string]interface{}{
			"gateway_status": status,
			"reason":         reason,
		}, meta), nil
	}

	result, err := s.gateway.Validate(ctx, tx.TransactionID, dto.ValID)
	if err != nil {
		lg.Error("gateway validation call failed", "error", err)
		return s.failCallback(ctx, tx, ActionErrorOccurred, GatewayUnavailableReason, nil, map[string]interface{}{
			"stage": "validate",
			"error": err.Error(),
		}, meta), nil
	}

	if reason := mismatch(tx, result); reason != "" {
		lg.Warn("gateway validation rejected callback", "reason", reason, "gateway_status", result.Status)
		return s.failCallback(ctx, tx, ActionValidationFailed, reason, result.Raw, map[string]interface{}{
			"val_id":         dto.ValID,
			"gateway_status": result.Status,
			"reason":         reason,
		}, meta), nil
	}

	completedAt := s.now().UTC()
	until := completedAt.AddDate(0, 0, tx.PromotionDurationDays)

	applied, err := s.repo.ApplyCompletion(ctx, Completion{
		PaymentID:       tx.ID,
		JobID:           tx.JobID,
		ValidationID:    dto.ValID,
		GatewayResponse: result.Raw,
		CompletedAt:     completedAt,
		PromotedUntil:   until,
	})
	if err != nil {
		lg.Error("failed to apply payment completion", "error", err)
		s.fail(ctx, tx, ActionErrorOccurred, "Payment could not be completed.", result.Raw, map[string]interface{}{
			"stage": "complete",
			"error": err.Error(),
		}, meta)
		return nil, internal.NewInternalError("An unexpected error occurred", err)
	}
	if !applied {
		current, err := s.repo.GetByID(ctx, tx.ID)
		if err != nil {
			return nil, fmt.Errorf("reload payment %d: %w", tx.ID, err)
		}
		lg.Info("concurrent callback already settled payment", "status", current.Status)
		return &CallbackResponse{Status: current.Status, TransactionID: current.TransactionID, Message: "Payment already processed"}, nil
	}

	s.audit.Record(ctx, tx.ID, ActionValidationSuccess, map[string]interface{}{
		"val_id":         dto.ValID,
		"gateway_status": result.Status,
		"amount":         result.Amount.StringFixed(2),
		"currency":       result.Currency,
	}, meta)
	s.audit.Record(ctx, tx.ID, ActionJobPromoted, map[string]interface{}{
		"job_id":         tx.JobID,
		"duration_days":  tx.PromotionDurationDays,
		"promoted_until": until,
	}, meta)

	lg.Info("payment completed", "job_id", tx.JobID, "promoted_until", until)

	s.publish(ctx, events.NewPaymentCompletedEvent(tx.ID, tx.TransactionID, tx.RecruiterID, tx.JobID, tx.Amount.StringFixed(2), tx.Currency, completedAt))
	s.publish(ctx, events.NewJobPromotedEvent(tx.ID, tx.TransactionID, tx.RecruiterID, tx.JobID, until))

	return &CallbackResponse{
		Status:        paymentmodel.StatusCompleted,
		TransactionID: tx.TransactionID,
		Message:       "Payment completed and job promoted",
	}, nil
}

// mismatch returns why a validation result cannot confirm tx, or "".
func mismatch(tx *paymentmodel.Transaction, r *gatewaytypes.ValidationResult) string {
	switch {
	case !r.Valid:
		return fmt.Sprintf("Gateway validation returned status %s.", r.Status)
	case r.TranID != tx.TransactionID:
		return "Transaction reference does not match."
	case !r.Amount.Equal(tx.Amount):
		return "Payment amount does not match."
	case !strings.EqualFold(r.Currency, tx.Currency):
		return "Payment currency does not match."
	}
	return ""
}

func (s *Service) failCallback(ctx context.Context, tx *paymentmodel.Transaction, action, reason string, raw json.RawMessage, details map[string]interface{}, meta RequestMeta) *CallbackResponse {
	s.fail(ctx, tx, action, reason, raw, details, meta)
	return &CallbackResponse{
		Status:        paymentmodel.StatusFailed,
		TransactionID: tx.TransactionID,
		Message:       reason,
	}
}

// fail moves tx to failed if it is still in a non-terminal state, then
// records the audit entry and publishes payment.failed.
func (s *Service) fail(ctx context.Context, tx *paymentmodel.Transaction, action, reason string, raw json.RawMessage, details map[string]interface{}, meta RequestMeta) {
	ok, err := s.repo.MarkFailed(ctx, tx.ID, sourcesFor(paymentmodel.StatusFailed), reason, raw)
	if err != nil {
		logger.From(ctx).Error("failed to mark payment failed", "payment_id", tx.ID, "error", err)
	}

	s.audit.Record(ctx, tx.ID, action, details, meta)

	if ok {
		s.publish(ctx, events.NewPaymentFailedEvent(tx.ID, tx.TransactionID, tx.RecruiterID, tx.JobID, tx.Amount.StringFixed(2), tx.Currency, reason))
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		logger.From(ctx).Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func (s *Service) load(ctx context.Context, u *user.User, id int64) (*paymentmodel.Transaction, error) {
	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("load payment %d: %w", id, err)
	}
	if !user.CanAccessOwned(u, tx.RecruiterID) {
		return nil, ErrNotOwner
	}
	return tx, nil
}

// CheckStatus reports a payment with the current promotion state of its job.
func (s *Service) CheckStatus(ctx context.Context, u *user.User, dto CheckStatusDTO) (*DetailResponse, error) {
	if verr := dto.Validate(); verr != nil {
		return nil, verr
	}

	tx, err := s.repo.GetByTransactionID(ctx, strings.TrimSpace(dto.TransactionID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if !user.CanAccessOwned(u, tx.RecruiterID) {
		return nil, ErrNotOwner
	}

	out := ToDetail(tx)
	j, err := s.jobs.Get(ctx, tx.JobID)
	if err != nil {
		logger.From(ctx).Warn("could not load job for payment status", "payment_id", tx.ID, "job_id", tx.JobID, "error", err)
	} else {
		active := j.IsPromotionActive(s.now())
		out.Job = &JobPromotionView{
			ID:            j.ID,
			Title:         j.Title,
			IsPromoted:    active,
			PromotedUntil: j.PromotedUntil,
		}
	}
	return &out, nil
}

// List scopes by caller: admins see everything, recruiters their own
// payments and everyone else nothing.
func (s *Service) List(ctx context.Context, u *user.User, q ListQuery) (*ListResponse, error) {
	if verr := q.Normalize(); verr != nil {
		return nil, verr
	}

	filter := ListFilter{Status: q.Status, Limit: q.PerPage, Offset: (q.Page - 1) * q.PerPage}
	switch {
	case user.IsAdmin(u):
	case user.IsRecruiter(u):
		id := u.ID
		filter.RecruiterID = &id
	default:
		return &ListResponse{Count: 0, Page: q.Page, PerPage: q.PerPage, Results: []ListItemResponse{}}, nil
	}
	return s.list(ctx, q, filter)
}

func (s *Service) Mine(ctx context.Context, u *user.User, q ListQuery) (*ListResponse, error) {
	if !user.IsRecruiter(u) {
		return nil, internal.NewForbiddenError("Only recruiters can view payment history.", internal.ErrCodeRecruiterOnly)
	}
	if verr := q.Normalize(); verr != nil {
		return nil, verr
	}

	id := u.ID
	return s.list(ctx, q, ListFilter{RecruiterID: &id, Status: q.Status, Limit: q.PerPage, Offset: (q.Page - 1) * q.PerPage})
}

func (s *Service) list(ctx context.Context, q ListQuery, filter ListFilter) (*ListResponse, error) {
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	results := make([]ListItemResponse, 0, len(rows))
	for _, r := range rows {
		results = append(results, ToListItem(r))
	}
	return &ListResponse{Count: total, Page: q.Page, PerPage: q.PerPage, Results: results}, nil
}

func (s *Service) Detail(ctx context.Context, u *user.User, id int64) (*DetailResponse, error) {
	tx, err := s.load(ctx, u, id)
	if err != nil {
		return nil, err
	}

	logs, err := s.audit.List(ctx, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("list payment logs: %w", err)
	}

	out := ToDetail(tx)
	out.Logs = ToLogResponses(logs)
	return &out, nil
}

func (s *Service) Logs(ctx context.Context, u *user.User, id int64) ([]LogResponse, error) {
	tx, err := s.load(ctx, u, id)
	if err != nil {
		return nil, err
	}

	logs, err := s.audit.List(ctx, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("list payment logs: %w", err)
	}
	return ToLogResponses(logs), nil
}

// Refund marks a completed payment refunded. Money movement happens outside
// this service.
func (s *Service) Refund(ctx context.Context, u *user.User, id int64) (*DetailResponse, error) {
	if !user.IsAdmin(u) {
		return nil, internal.NewForbiddenError("Only administrators can refund payments.", internal.ErrCodeAdminOnly)
	}

	tx, err := s.load(ctx, u, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(tx.Status, paymentmodel.StatusRefunded) {
		return nil, internal.NewConflictError(fmt.Sprintf("A %s payment cannot be refunded.", tx.Status), internal.ErrCodePaymentFailed)
	}

	ok, err := s.repo.MarkRefunded(ctx, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("refund payment %d: %w", tx.ID, err)
	}
	if !ok {
		return nil, internal.NewConflictError("Payment status changed, try again.", internal.ErrCodePaymentFailed)
	}

	logger.From(ctx).Info("payment refunded", "payment_id", tx.ID, "transaction_id", tx.TransactionID, "admin_id", u.ID)

	tx.Status = paymentmodel.StatusRefunded
	out := ToDetail(tx)
	return &out, nil
}

func customerName(u *user.User) string {
	if strings.TrimSpace(u.FullName) != "" {
		return u.FullName
	}
	return u.Email
}

func customerPhone(u *user.User) string {
	if u.Phone != "" {
		return u.Phone
	}
	return "N/A"
}
