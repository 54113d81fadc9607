package storage

import (
	"context"
	"fmt"

	"bigboss/internal/core"
)

// CreateBooking stores b and returns its id. A zero Date means now.
func (r *Repository) CreateBooking(ctx context.Context, b core.Booking) (int64, error) {
	if b.Date.IsZero() {
		b.Date = r.now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (member_id, workout_name, booking_date) VALUES (?, ?, ?)`,
		b.MemberID, b.Workout, formatDateTime(b.Date))
	if err != nil {
		return 0, fmt.Errorf("insert booking: %w", err)
	}
	return res.LastInsertId()
}

// ListBookingsByMember returns the member's bookings, newest first.
func (r *Repository) ListBookingsByMember(ctx context.Context, memberID string) ([]core.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, member_id, workout_name, booking_date FROM bookings WHERE member_id = ? ORDER BY booking_date DESC, id DESC`,
		memberID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []core.Booking{}
	for rows.Next() {
		var (
			b  core.Booking
			at sqlTime
		)
		if err := rows.Scan(&b.ID, &b.MemberID, &b.Workout, &at); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		b.Date = at.Time
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *Repository) CreateFeedback(ctx context.Context, f core.Feedback) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO feedback (trainer_name, member_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.TrainerName, f.MemberID, f.Rating, f.Comment, formatDateTime(r.now()))
	if err != nil {
		return 0, fmt.Errorf("insert feedback: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repository) CreateContact(ctx context.Context, c core.Contact) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (name, email, subject, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Email, c.Subject, c.Message, formatDateTime(r.now()))
	if err != nil {
		return 0, fmt.Errorf("insert contact: %w", err)
	}
	return res.LastInsertId()
}

// RecordPaymentEvent appends e to the payment audit table.
func (r *Repository) RecordPaymentEvent(ctx context.Context, e core.PaymentEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_events (kind, payment_id, member_id, amount_cents, occurred_at, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Kind, e.PaymentID, e.MemberID, e.Amount.Cents, formatDateTime(e.OccurredAt), formatDateTime(r.now()))
	if err != nil {
		return fmt.Errorf("insert payment event: %w", err)
	}
	return nil
}

// ListPaymentEvents returns up to limit audit entries, newest first.
func (r *Repository) ListPaymentEvents(ctx context.Context, limit int) ([]core.PaymentEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, payment_id, member_id, amount_cents, occurred_at FROM payment_events ORDER BY id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list payment events: %w", err)
	}
	defer rows.Close()

	var events []core.PaymentEvent
	for rows.Next() {
		var (
			e     core.PaymentEvent
			cents int64
			at    sqlTime
		)
		if err := rows.Scan(&e.Kind, &e.PaymentID, &e.MemberID, &cents, &at); err != nil {
			return nil, fmt.Errorf("scan payment event: %w", err)
		}
		e.Amount = core.NewMoney(cents)
		e.OccurredAt = at.Time
		events = append(events, e)
	}
	return events, rows.Err()
}
