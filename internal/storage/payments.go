package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"bigboss/internal/core"
	"bigboss/internal/report"
)

const paymentColumns = "id, member_id, amount_cents, payment_method, promo_code, paid_at"

func scanPayment(s rowScanner) (core.Payment, error) {
	var (
		p      core.Payment
		cents  int64
		paidAt sqlTime
	)
	if err := s.Scan(&p.ID, &p.MemberID, &cents, &p.Method, &p.Promo, &paidAt); err != nil {
		return core.Payment{}, err
	}
	p.Amount = core.NewMoney(cents)
	p.PaidAt = paidAt.Time
	return p, nil
}

// CreatePayment stores p and returns its id. A zero PaidAt means now.
func (r *Repository) CreatePayment(ctx context.Context, p core.Payment) (int64, error) {
	if p.PaidAt.IsZero() {
		p.PaidAt = r.now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (member_id, amount_cents, payment_method, promo_code, paid_at) VALUES (?, ?, ?, ?, ?)`,
		p.MemberID, p.Amount.Cents, p.Method, p.Promo, formatDateTime(p.PaidAt))
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("payment id: %w", err)
	}

	slog.InfoContext(ctx, "Payment recorded",
		"id", id,
		"member_id", p.MemberID,
		"amount_cents", p.Amount.Cents)
	return id, nil
}

// GetPayment returns ErrNotFound for an unknown id.
func (r *Repository) GetPayment(ctx context.Context, id int64) (core.Payment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Payment{}, ErrNotFound
	}
	if err != nil {
		return core.Payment{}, fmt.Errorf("get payment %d: %w", id, err)
	}
	return p, nil
}

// ListPayments returns every payment, newest first.
func (r *Repository) ListPayments(ctx context.Context) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments ORDER BY paid_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []core.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return payments, nil
}

// UpdatePayment rewrites amount, method, promo and date. A zero PaidAt keeps
// the stored date.
func (r *Repository) UpdatePayment(ctx context.Context, p core.Payment) error {
	var (
		res sql.Result
		err error
	)
	if p.PaidAt.IsZero() {
		res, err = r.db.ExecContext(ctx,
			`UPDATE payments SET member_id = ?, amount_cents = ?, payment_method = ?, promo_code = ? WHERE id = ?`,
			p.MemberID, p.Amount.Cents, p.Method, p.Promo, p.ID)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE payments SET member_id = ?, amount_cents = ?, payment_method = ?, promo_code = ?, paid_at = ? WHERE id = ?`,
			p.MemberID, p.Amount.Cents, p.Method, p.Promo, formatDateTime(p.PaidAt), p.ID)
	}
	if err != nil {
		return fmt.Errorf("update payment %d: %w", p.ID, err)
	}
	return requireAffected(res, "update payment")
}

func (r *Repository) DeletePayment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete payment %d: %w", id, err)
	}
	return requireAffected(res, "delete payment")
}

// TotalIncome sums every payment.
func (r *Repository) TotalIncome(ctx context.Context) (core.Money, error) {
	var cents int64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM payments`).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("total income: %w", err)
	}
	return core.NewMoney(cents), nil
}

// MonthlyIncome runs the report aggregate for f. f must already be validated.
func (r *Repository) MonthlyIncome(ctx context.Context, f report.Filter) ([]core.MonthlyIncomeRow, error) {
	query, args := report.BuildMonthlyQuery(r.dialect, f)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("monthly income: %w", err)
	}
	defer rows.Close()

	out := []core.MonthlyIncomeRow{}
	for rows.Next() {
		var (
			month, membership string
			cents             int64
		)
		if err := rows.Scan(&month, &membership, &cents); err != nil {
			return nil, fmt.Errorf("scan monthly row: %w", err)
		}
		out = append(out, core.MonthlyIncomeRow{
			Month:      month,
			Membership: core.Membership(membership),
			Total:      core.NewMoney(cents),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly rows: %w", err)
	}

	slog.DebugContext(ctx, "Monthly income computed",
		"dialect", r.dialect.Name(),
		"year", f.Year,
		"rows", len(out))
	return out, nil
}
