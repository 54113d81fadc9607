package storage

import (
	"context"
	"fmt"
	"log/slog"

	"bigboss/internal/core"
)

// SampleTrainers are inserted into an empty trainers table at startup.
var SampleTrainers = []core.Trainer{
	{Name: "Bun Ratnatepy", Email: "bunratnatepy@gmail.com", Specialty: "Yoga", Experience: 2, Schedule: "Mon-Fri 6AM-12PM", Rating: 4.8},
	{Name: "Chhin Visal", Email: "chhinvisal@gmail.com", Specialty: "Cardio", Experience: 8, Schedule: "Tue-Thu 10AM-6PM", Rating: 4.9},
	{Name: "Haysavin RongRavidwin", Email: "winwin@gmail.com", Specialty: "Strength", Experience: 5, Schedule: "Tue-Thu 8AM-4PM", Rating: 4.9},
	{Name: "HOUN Sithai", Email: "sithai@gmail.com", Specialty: "Pilates", Experience: 1, Schedule: "Wed-Fri 7AM-2PM", Rating: 4.0},
}

// CreateTrainer returns the new row id.
func (r *Repository) CreateTrainer(ctx context.Context, t core.Trainer) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO trainers (name, email, specialty, experience, schedule, rating) VALUES (?, ?, ?, ?, ?, ?)`,
		t.Name, t.Email, t.Specialty, t.Experience, t.Schedule, t.Rating)
	if err != nil {
		return 0, fmt.Errorf("insert trainer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("trainer id: %w", err)
	}
	return id, nil
}

func (r *Repository) ListTrainers(ctx context.Context) ([]core.Trainer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, specialty, experience, schedule, rating FROM trainers ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list trainers: %w", err)
	}
	defer rows.Close()

	var trainers []core.Trainer
	for rows.Next() {
		var t core.Trainer
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Specialty, &t.Experience, &t.Schedule, &t.Rating); err != nil {
			return nil, fmt.Errorf("scan trainer: %w", err)
		}
		trainers = append(trainers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trainers: %w", err)
	}
	return trainers, nil
}

func (r *Repository) UpdateTrainer(ctx context.Context, t core.Trainer) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE trainers SET name = ?, email = ?, specialty = ?, experience = ?, schedule = ?, rating = ? WHERE id = ?`,
		t.Name, t.Email, t.Specialty, t.Experience, t.Schedule, t.Rating, t.ID)
	if err != nil {
		return fmt.Errorf("update trainer %d: %w", t.ID, err)
	}
	return requireAffected(res, "update trainer")
}

func (r *Repository) DeleteTrainer(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM trainers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete trainer %d: %w", id, err)
	}
	return requireAffected(res, "delete trainer")
}

func (r *Repository) CountTrainers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trainers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count trainers: %w", err)
	}
	return n, nil
}

// SeedTrainers inserts SampleTrainers when the table is empty and reports
// how many rows it added.
func (r *Repository) SeedTrainers(ctx context.Context) (int, error) {
	n, err := r.CountTrainers(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, t := range SampleTrainers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trainers (name, email, specialty, experience, schedule, rating) VALUES (?, ?, ?, ?, ?, ?)`,
			t.Name, t.Email, t.Specialty, t.Experience, t.Schedule, t.Rating); err != nil {
			return 0, fmt.Errorf("seed trainer %s: %w", t.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}

	slog.InfoContext(ctx, "Seeded sample trainers", "count", len(SampleTrainers))
	return len(SampleTrainers), nil
}
