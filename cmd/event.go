package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	paymentmodel "github.com/frahmantamala/jobly/internal/core/datamodel/payment"
	"github.com/frahmantamala/jobly/internal/core/events"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Replay payment events through the event bus`,
}

var resendNotificationCmd = &cobra.Command{
	Use:   "resend-notification [transaction-id]",
	Short: "Resend the payment email for a transaction",
	Long:  `Republish the completed or failed event of a transaction so its recruiter email is sent again`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := resendNotification(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "resend failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func resendNotification(transactionID string) error {
	cfg, err := setup()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app, err := newApplication(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := app.PaymentStore.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("transaction %s not found", transactionID)
		}
		return err
	}

	var event events.Event
	switch tx.Status {
	case paymentmodel.StatusCompleted:
		completedAt := tx.UpdatedAt
		if tx.CompletedAt != nil {
			completedAt = *tx.CompletedAt
		}
		event = events.NewPaymentCompletedEvent(tx.ID, tx.TransactionID, tx.RecruiterID, tx.JobID, tx.Amount.StringFixed(2), tx.Currency, completedAt)
	case paymentmodel.StatusFailed:
		reason := ""
		if tx.ErrorMessage != nil {
			reason = *tx.ErrorMessage
		}
		event = events.NewPaymentFailedEvent(tx.ID, tx.TransactionID, tx.RecruiterID, tx.JobID, tx.Amount.StringFixed(2), tx.Currency, reason)
	default:
		return fmt.Errorf("transaction %s is %s; only completed or failed payments have notifications", transactionID, tx.Status)
	}

	if err := app.Bus.PublishSync(ctx, event); err != nil {
		return fmt.Errorf("publish %s: %w", event.EventType(), err)
	}

	app.Logger.Info("notification republished", "transaction_id", tx.TransactionID, "event_type", event.EventType())
	return nil
}

func init() {
	eventCmd.AddCommand(resendNotificationCmd)
	rootCmd.AddCommand(eventCmd)
}
