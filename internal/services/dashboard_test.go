package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bigboss/internal/core"
)

type stubDashboardStore struct {
	members, trainers int
	income            core.Money
	err               error
}

func (s stubDashboardStore) CountMembers(context.Context) (int, error)  { return s.members, nil }
func (s stubDashboardStore) CountTrainers(context.Context) (int, error) { return s.trainers, s.err }
func (s stubDashboardStore) TotalIncome(context.Context) (core.Money, error) {
	return s.income, nil
}

func TestDashboardSummary(t *testing.T) {
	svc := NewDashboardService(stubDashboardStore{members: 12, trainers: 4, income: core.NewMoney(123456)})

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{TotalMembers: 12, TotalTrainers: 4, TotalIncome: core.NewMoney(123456)}, sum)
}

func TestDashboardSummaryError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewDashboardService(stubDashboardStore{err: boom})

	_, err := svc.Summary(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestTrainerServiceAgainstRepository(t *testing.T) {
	svc := NewTrainerService(newRepository(t))

	n, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	tr, err := svc.Create(ctx, core.Trainer{
		Name: " Sam ", Email: "sam@example.com", Specialty: "Boxing",
		Experience: 3, Schedule: "Sat 9AM-1PM", Rating: 4.2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Sam", tr.Name)

	_, err = svc.Create(ctx, core.Trainer{Name: "X", Email: "x@example.com", Specialty: "Yoga", Schedule: "Mon", Rating: 6})
	assert.ErrorIs(t, err, core.ErrInvalidRating)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	require.NoError(t, svc.Delete(ctx, tr.ID))
	assert.ErrorIs(t, svc.Delete(ctx, tr.ID), ErrNotFound)
}

func TestActivityService(t *testing.T) {
	svc := NewActivityService(newRepository(t))

	b, err := svc.Book(ctx, core.Booking{MemberID: "MBR100001", Workout: " HIIT "})
	require.NoError(t, err)
	assert.Equal(t, "HIIT", b.Workout)

	list, err := svc.Bookings(ctx, "MBR100001")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.Book(ctx, core.Booking{MemberID: "MBR100001"})
	assert.ErrorIs(t, err, core.ErrEmptyWorkout)

	_, err = svc.Feedback(ctx, core.Feedback{TrainerName: "Sam", MemberID: "MBR100001", Rating: 0, Comment: "ok"})
	assert.ErrorIs(t, err, core.ErrInvalidRating)
	_, err = svc.Feedback(ctx, core.Feedback{TrainerName: "Sam", MemberID: "MBR100001", Rating: 5, Comment: "great"})
	assert.NoError(t, err)

	_, err = svc.Contact(ctx, core.Contact{Name: "Ann", Email: "ann@example.com", Message: " hi "})
	assert.NoError(t, err)
	_, err = svc.Contact(ctx, core.Contact{Name: "Ann", Email: "ann@example.com"})
	assert.ErrorIs(t, err, core.ErrEmptyMessage)
}
