package payment_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/jobly/internal/core/events"
	"github.com/frahmantamala/jobly/internal/core/user"
	"github.com/frahmantamala/jobly/internal/job"
	"github.com/frahmantamala/jobly/internal/notification"
	"github.com/frahmantamala/jobly/internal/payment"
)

type capturingNotifier struct {
	messages []notification.Message
}

func (n *capturingNotifier) Enqueue(msg notification.Message) bool {
	n.messages = append(n.messages, msg)
	return true
}

type userDirectory map[int64]*user.User

func (d userDirectory) GetUser(ctx context.Context, id int64) (*user.User, error) {
	if u, ok := d[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

type jobDirectory map[int64]*job.Job

func (d jobDirectory) Get(ctx context.Context, id int64) (*job.Job, error) {
	if j, ok := d[id]; ok {
		return j, nil
	}
	return nil, job.ErrJobNotFound
}

var _ = Describe("Payment event handler", func() {
	var (
		notifier *capturingNotifier
		bus      *events.EventBus
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		notifier = &capturingNotifier{}
		bus = events.NewEventBus(slogger)

		until := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
		payment.NewEventHandler(
			notifier,
			userDirectory{recruiter.ID: recruiter},
			jobDirectory{42: {ID: 42, Title: "Backend Engineer", IsPromoted: true, PromotedUntil: &until}},
			slogger,
		).RegisterEventHandlers(bus)
	})

	It("queues the success email on completion", func() {
		ev := events.NewPaymentCompletedEvent(1, "JOB-ABC", recruiter.ID, 42, "500.00", "BDT", time.Now())

		Expect(bus.PublishSync(ctx, ev)).To(Succeed())

		Expect(notifier.messages).To(HaveLen(1))
		msg := notifier.messages[0]
		Expect(msg.Template).To(Equal(notification.TemplatePaymentSuccess))
		Expect(msg.Recipient).To(Equal(recruiter.Email))
		Expect(msg.Data["JobTitle"]).To(Equal("Backend Engineer"))
		Expect(msg.Data["PromotedUntil"]).To(Equal("2026-04-01 12:00 UTC"))
	})

	It("queues the failure email with the reason", func() {
		ev := events.NewPaymentFailedEvent(1, "JOB-ABC", recruiter.ID, 42, "500.00", "BDT", "Payment was cancelled.")

		Expect(bus.PublishSync(ctx, ev)).To(Succeed())

		Expect(notifier.messages).To(HaveLen(1))
		Expect(notifier.messages[0].Template).To(Equal(notification.TemplatePaymentFailed))
		Expect(notifier.messages[0].Data["Reason"]).To(Equal("Payment was cancelled."))
	})

	It("reports an unknown recruiter without queueing", func() {
		ev := events.NewPaymentFailedEvent(1, "JOB-ABC", 999, 42, "500.00", "BDT", "x")

		Expect(bus.PublishSync(ctx, ev)).NotTo(Succeed())
		Expect(notifier.messages).To(BeEmpty())
	})
})
