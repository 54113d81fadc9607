package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"bigboss/internal/core"
)

const memberColumns = "member_id, name, email, phone, password_hash, dob, join_date, membership_type"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(s rowScanner) (core.Member, error) {
	var (
		m       core.Member
		dob, jd sqlTime
	)
	if err := s.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.PasswordHash, &dob, &jd, &m.Membership); err != nil {
		return core.Member{}, err
	}
	m.DOB = dob.date()
	m.JoinDate = jd.date()
	return m, nil
}

// CreateMember inserts a fully prepared member (id and hash already set).
func (r *Repository) CreateMember(ctx context.Context, m core.Member) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Phone, m.PasswordHash,
		nullableDate(m.DOB), m.JoinDate.Format(dateLayout), m.Membership)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}

	slog.InfoContext(ctx, "Member created",
		"member_id", m.ID,
		"membership_type", m.Membership)
	return nil
}

// MemberExists reports whether id is taken.
func (r *Repository) MemberExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members WHERE member_id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check member id: %w", err)
	}
	return n > 0, nil
}

// GetMember returns ErrNotFound for an unknown id.
func (r *Repository) GetMember(ctx context.Context, id string) (core.Member, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE member_id = ?`, id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Member{}, ErrNotFound
	}
	if err != nil {
		return core.Member{}, fmt.Errorf("get member %s: %w", id, err)
	}
	return m, nil
}

// GetMemberByEmail returns ErrNotFound for an unknown email.
func (r *Repository) GetMemberByEmail(ctx context.Context, email string) (core.Member, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE email = ?`, email)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Member{}, ErrNotFound
	}
	if err != nil {
		return core.Member{}, fmt.Errorf("get member by email: %w", err)
	}
	return m, nil
}

// ListMembers returns members by join date, newest first.
func (r *Repository) ListMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members ORDER BY join_date DESC, member_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []core.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// UpdateMember rewrites the profile fields. Password and join date are left
// alone.
func (r *Repository) UpdateMember(ctx context.Context, m core.Member) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET name = ?, email = ?, phone = ?, dob = ?, membership_type = ? WHERE member_id = ?`,
		m.Name, m.Email, m.Phone, nullableDate(m.DOB), m.Membership, m.ID)
	if err != nil {
		return fmt.Errorf("update member %s: %w", m.ID, err)
	}
	return requireAffected(res, "update member")
}

func (r *Repository) DeleteMember(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE member_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member %s: %w", id, err)
	}
	if err := requireAffected(res, "delete member"); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Member deleted", "member_id", id)
	return nil
}

func (r *Repository) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE members SET password_hash = ? WHERE member_id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(res, "update password")
}

func (r *Repository) CountMembers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}
