package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bigboss/internal/cache"
	"bigboss/internal/core"
	"bigboss/internal/report"
)

type PaymentStore interface {
	CreatePayment(ctx context.Context, p core.Payment) (int64, error)
	GetPayment(ctx context.Context, id int64) (core.Payment, error)
	ListPayments(ctx context.Context) ([]core.Payment, error)
	UpdatePayment(ctx context.Context, p core.Payment) error
	DeletePayment(ctx context.Context, id int64) error
	TotalIncome(ctx context.Context) (core.Money, error)
	MonthlyIncome(ctx context.Context, f report.Filter) ([]core.MonthlyIncomeRow, error)
}

// EventPublisher announces committed payment changes.
type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, e core.PaymentEvent) error
}

// PaymentService persists payments first, then publishes an event and drops
// cached reports. Publishing is best effort.
type PaymentService struct {
	store     PaymentStore
	publisher EventPublisher
	reports   cache.Cache[[]core.MonthlyIncomeRow]
	now       func() time.Time

	// generation counts payment changes. A report computed under an older
	// generation is returned but never cached.
	genMu      sync.Mutex
	generation uint64
}

// NewPaymentService accepts a nil publisher (events disabled) and a nil
// cache (every report hits the database).
func NewPaymentService(store PaymentStore, publisher EventPublisher, reports cache.Cache[[]core.MonthlyIncomeRow]) *PaymentService {
	return &PaymentService{
		store:     store,
		publisher: publisher,
		reports:   reports,
		now:       time.Now,
	}
}

func (s *PaymentService) Create(ctx context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = s.now()
	}
	id, err := s.store.CreatePayment(ctx, p)
	if err != nil {
		return core.Payment{}, fmt.Errorf("save payment: %w", err)
	}
	p.ID = id
	s.changed(ctx, core.PaymentCreated, p)
	return p, nil
}

func (s *PaymentService) Update(ctx context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return core.Payment{}, err
	}
	if err := s.store.UpdatePayment(ctx, p); err != nil {
		return core.Payment{}, err
	}
	updated, err := s.store.GetPayment(ctx, p.ID)
	if err != nil {
		return core.Payment{}, err
	}
	s.changed(ctx, core.PaymentUpdated, updated)
	return updated, nil
}

func (s *PaymentService) Delete(ctx context.Context, id int64) error {
	p, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeletePayment(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, core.PaymentDeleted, p)
	return nil
}

func (s *PaymentService) List(ctx context.Context) ([]core.Payment, error) {
	return s.store.ListPayments(ctx)
}

func (s *PaymentService) Total(ctx context.Context) (core.Money, error) {
	return s.store.TotalIncome(ctx)
}

// Monthly returns the aggregate rows for f, from cache when possible.
func (s *PaymentService) Monthly(ctx context.Context, f report.Filter) ([]core.MonthlyIncomeRow, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	key := f.CacheKey()
	if s.reports != nil {
		if rows, ok := s.reports.Get(key); ok {
			return rows, nil
		}
	}
	gen := s.currentGeneration()
	rows, err := s.store.MonthlyIncome(ctx, f)
	if err != nil {
		return nil, err
	}
	if s.reports != nil {
		s.genMu.Lock()
		if s.generation == gen {
			s.reports.Set(key, rows)
		}
		s.genMu.Unlock()
	}
	return rows, nil
}

func (s *PaymentService) currentGeneration() uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generation
}

func (s *PaymentService) changed(ctx context.Context, kind string, p core.Payment) {
	s.genMu.Lock()
	s.generation++
	if s.reports != nil {
		s.reports.Clear()
	}
	s.genMu.Unlock()
	if s.publisher == nil {
		return
	}
	event := core.PaymentEvent{
		Kind:       kind,
		PaymentID:  p.ID,
		MemberID:   p.MemberID,
		Amount:     p.Amount,
		OccurredAt: s.now(),
	}
	if err := s.publisher.PublishPaymentEvent(ctx, event); err != nil {
		// The payment is committed; the audit trail just misses this entry.
		slog.ErrorContext(ctx, "Failed to publish payment event",
			"kind", kind,
			"payment_id", p.ID,
			"error", err)
	}
}
