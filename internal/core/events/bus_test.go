package events_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/jobly/internal/core/events"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Event Bus Suite")
}

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	BeforeEach(func() {
		bus = events.NewEventBus(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	})

	It("delivers asynchronously to every subscriber of the type", func() {
		var calls int32
		handler := func(ctx context.Context, e events.Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		}
		bus.Subscribe(events.EventTypeJobPromoted, handler)
		bus.Subscribe(events.EventTypeJobPromoted, handler)

		err := bus.Publish(context.Background(), events.NewJobPromotedEvent(1, "JOB-1", 2, 3, time.Now()))

		Expect(err).NotTo(HaveOccurred())
		Eventually(func() int32 { return atomic.LoadInt32(&calls) }).Should(Equal(int32(2)))
	})

	It("waits for in-flight handlers to return", func() {
		var done int32
		bus.Subscribe(events.EventTypePaymentFailed, func(ctx context.Context, e events.Event) error {
			time.Sleep(20 * time.Millisecond)
			atomic.StoreInt32(&done, 1)
			return nil
		})

		Expect(bus.Publish(context.Background(), events.NewPaymentFailedEvent(1, "JOB-1", 2, 3, "500.00", "BDT", "declined"))).To(Succeed())
		bus.Wait()

		Expect(atomic.LoadInt32(&done)).To(Equal(int32(1)))
		Expect(bus.HandlerCount(events.EventTypePaymentFailed)).To(Equal(1))
	})

	It("ignores events without subscribers", func() {
		err := bus.PublishSync(context.Background(), events.NewPaymentFailedEvent(1, "JOB-1", 2, 3, "500.00", "BDT", "declined"))
		Expect(err).NotTo(HaveOccurred())
	})

	It("surfaces handler errors on synchronous publish", func() {
		bus.Subscribe(events.EventTypePaymentCompleted, func(ctx context.Context, e events.Event) error {
			return errors.New("smtp down")
		})

		err := bus.PublishSync(context.Background(), events.NewPaymentCompletedEvent(1, "JOB-1", 2, 3, "500.00", "BDT", time.Now()))

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("payment.completed"))
	})

	It("carries typed fields alongside the generic payload", func() {
		e := events.NewPaymentCompletedEvent(7, "JOB-ABC", 2, 42, "500.00", "BDT", time.Now())

		Expect(e.EventType()).To(Equal(events.EventTypePaymentCompleted))
		Expect(e.EventID()).NotTo(BeEmpty())
		Expect(e.Payload()).To(HaveKeyWithValue("transaction_id", "JOB-ABC"))
		Expect(e.JobID).To(Equal(int64(42)))
	})
})
