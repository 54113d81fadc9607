package services

import (
	"context"
	"strings"

	"bigboss/internal/core"
)

type TrainerStore interface {
	CreateTrainer(ctx context.Context, t core.Trainer) (int64, error)
	ListTrainers(ctx context.Context) ([]core.Trainer, error)
	UpdateTrainer(ctx context.Context, t core.Trainer) error
	DeleteTrainer(ctx context.Context, id int64) error
	CountTrainers(ctx context.Context) (int, error)
	SeedTrainers(ctx context.Context) (int, error)
}

type TrainerService struct {
	store TrainerStore
}

func NewTrainerService(store TrainerStore) *TrainerService {
	return &TrainerService{store: store}
}

func trimTrainer(t core.Trainer) core.Trainer {
	t.Name = strings.TrimSpace(t.Name)
	t.Email = strings.TrimSpace(t.Email)
	t.Specialty = strings.TrimSpace(t.Specialty)
	t.Schedule = strings.TrimSpace(t.Schedule)
	return t
}

func (s *TrainerService) Create(ctx context.Context, t core.Trainer) (core.Trainer, error) {
	t = trimTrainer(t)
	if err := t.Validate(); err != nil {
		return core.Trainer{}, err
	}
	id, err := s.store.CreateTrainer(ctx, t)
	if err != nil {
		return core.Trainer{}, err
	}
	t.ID = id
	return t, nil
}

func (s *TrainerService) Update(ctx context.Context, t core.Trainer) (core.Trainer, error) {
	t = trimTrainer(t)
	if err := t.Validate(); err != nil {
		return core.Trainer{}, err
	}
	return t, s.store.UpdateTrainer(ctx, t)
}

func (s *TrainerService) List(ctx context.Context) ([]core.Trainer, error) {
	return s.store.ListTrainers(ctx)
}

func (s *TrainerService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteTrainer(ctx, id)
}

func (s *TrainerService) Count(ctx context.Context) (int, error) {
	return s.store.CountTrainers(ctx)
}

// Seed fills an empty roster with the sample trainers.
func (s *TrainerService) Seed(ctx context.Context) (int, error) {
	return s.store.SeedTrainers(ctx)
}
