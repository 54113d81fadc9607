package services

import (
	"context"
	"strings"
	"time"

	"bigboss/internal/core"
)

type ActivityStore interface {
	CreateBooking(ctx context.Context, b core.Booking) (int64, error)
	ListBookingsByMember(ctx context.Context, memberID string) ([]core.Booking, error)
	CreateFeedback(ctx context.Context, f core.Feedback) (int64, error)
	CreateContact(ctx context.Context, c core.Contact) (int64, error)
}

// ActivityService records bookings, trainer feedback and contact messages.
type ActivityService struct {
	store ActivityStore
	now   func() time.Time
}

func NewActivityService(store ActivityStore) *ActivityService {
	return &ActivityService{store: store, now: time.Now}
}

func (s *ActivityService) Book(ctx context.Context, b core.Booking) (core.Booking, error) {
	b.MemberID = strings.TrimSpace(b.MemberID)
	b.Workout = strings.TrimSpace(b.Workout)
	if err := b.Validate(); err != nil {
		return core.Booking{}, err
	}
	if b.Date.IsZero() {
		b.Date = s.now()
	}
	id, err := s.store.CreateBooking(ctx, b)
	if err != nil {
		return core.Booking{}, err
	}
	b.ID = id
	return b, nil
}

func (s *ActivityService) Bookings(ctx context.Context, memberID string) ([]core.Booking, error) {
	return s.store.ListBookingsByMember(ctx, strings.TrimSpace(memberID))
}

func (s *ActivityService) Feedback(ctx context.Context, f core.Feedback) (int64, error) {
	f.TrainerName = strings.TrimSpace(f.TrainerName)
	f.MemberID = strings.TrimSpace(f.MemberID)
	f.Comment = strings.TrimSpace(f.Comment)
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return s.store.CreateFeedback(ctx, f)
}

func (s *ActivityService) Contact(ctx context.Context, c core.Contact) (int64, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Message = strings.TrimSpace(c.Message)
	if err := c.Validate(); err != nil {
		return 0, err
	}
	return s.store.CreateContact(ctx, c)
}
