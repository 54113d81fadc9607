package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"bigboss/internal/core"
)

type DashboardStore interface {
	CountMembers(ctx context.Context) (int, error)
	CountTrainers(ctx context.Context) (int, error)
	TotalIncome(ctx context.Context) (core.Money, error)
}

type Summary struct {
	TotalMembers  int        `json:"totalMembers"`
	TotalTrainers int        `json:"totalTrainers"`
	TotalIncome   core.Money `json:"totalIncome"`
}

type DashboardService struct {
	store DashboardStore
}

func NewDashboardService(store DashboardStore) *DashboardService {
	return &DashboardService{store: store}
}

// Summary reads the three headline figures concurrently.
func (s *DashboardService) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.store.CountMembers(ctx)
		sum.TotalMembers = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountTrainers(ctx)
		sum.TotalTrainers = n
		return err
	})
	g.Go(func() error {
		total, err := s.store.TotalIncome(ctx)
		sum.TotalIncome = total
		return err
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}
