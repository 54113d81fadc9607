// Package worker records payment events delivered over AMQP into the
// payment audit table.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"bigboss/internal/amqp"
	"bigboss/internal/core"
)

// EventStore is the audit table the worker appends to.
type EventStore interface {
	RecordPaymentEvent(ctx context.Context, e core.PaymentEvent) error
	ListPaymentEvents(ctx context.Context, limit int) ([]core.PaymentEvent, error)
}

// PaymentWorker handles payment events from the broker.
type PaymentWorker struct {
	store     EventStore
	batchSize int

	processed atomic.Int64
	failed    atomic.Int64
}

func NewPaymentWorker(store EventStore, batchSize int) *PaymentWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &PaymentWorker{store: store, batchSize: batchSize}
}

// HandlePaymentEvent records one event. A returned error requeues the
// delivery.
func (w *PaymentWorker) HandlePaymentEvent(ctx context.Context, msg *amqp.PaymentEventMessage) error {
	e := msg.Event()
	if e.OccurredAt.IsZero() {
		e.OccurredAt = msg.Timestamp
	}

	slog.InfoContext(ctx, "Processing payment event",
		"kind", e.Kind,
		"payment_id", e.PaymentID,
		"member_id", e.MemberID)

	if err := w.store.RecordPaymentEvent(ctx, e); err != nil {
		w.failed.Add(1)
		return fmt.Errorf("record payment event: %w", err)
	}
	w.processed.Add(1)

	slog.InfoContext(ctx, "Recorded payment event",
		"kind", e.Kind,
		"payment_id", e.PaymentID,
		"amount_cents", e.Amount.Cents)
	return nil
}

// StartupCheck logs the most recent audit entries so an operator can see
// where the previous run stopped.
func (w *PaymentWorker) StartupCheck(ctx context.Context) error {
	events, err := w.store.ListPaymentEvents(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list payment events for startup check: %w", err)
	}
	if len(events) == 0 {
		slog.InfoContext(ctx, "No payment events recorded yet")
		return nil
	}

	latest := events[0]
	slog.InfoContext(ctx, "Payment audit table ready",
		"recent_events", len(events),
		"latest_kind", latest.Kind,
		"latest_payment_id", latest.PaymentID,
		"latest_at", latest.OccurredAt.Format(time.RFC3339))
	return nil
}

// Stats returns the events recorded and the events that failed since start.
func (w *PaymentWorker) Stats() (processed, failed int64) {
	return w.processed.Load(), w.failed.Load()
}

// ReportStats logs the counters every interval until ctx ends.
func (w *PaymentWorker) ReportStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			processed, failed := w.Stats()
			slog.InfoContext(ctx, "Payment worker stats",
				"processed", processed,
				"failed", failed)
		}
	}
}
