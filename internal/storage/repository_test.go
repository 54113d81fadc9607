package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bigboss/internal/core"
	"bigboss/internal/report"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "bigboss.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func member(id, email string, membership core.Membership) core.Member {
	return core.Member{
		ID:           id,
		Name:         "Member " + id,
		Email:        email,
		Phone:        "012345678",
		PasswordHash: "hash",
		JoinDate:     core.NewDate(2024, 1, 1),
		Membership:   string(membership),
	}
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestMemberLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	m := member("MBR123456", "a@example.com", core.PremiumMembership)
	m.DOB = core.NewDate(1990, 5, 17)
	require.NoError(t, repo.CreateMember(ctx, m))

	exists, err := repo.MemberExists(ctx, "MBR123456")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.GetMember(ctx, "MBR123456")
	require.NoError(t, err)
	assert.Equal(t, m.Email, got.Email)
	assert.Equal(t, "1990-05-17", got.DOB.String())
	assert.Equal(t, "2024-01-01", got.JoinDate.String())

	byEmail, err := repo.GetMemberByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "MBR123456", byEmail.ID)

	m.Name = "Renamed"
	m.DOB = core.Date{}
	require.NoError(t, repo.UpdateMember(ctx, m))
	got, err = repo.GetMember(ctx, "MBR123456")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.DOB.IsEmpty())

	require.NoError(t, repo.UpdatePassword(ctx, "MBR123456", "newhash"))
	got, _ = repo.GetMember(ctx, "MBR123456")
	assert.Equal(t, "newhash", got.PasswordHash)

	n, err := repo.CountMembers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, repo.DeleteMember(ctx, "MBR123456"))
	_, err = repo.GetMember(ctx, "MBR123456")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, repo.DeleteMember(ctx, "MBR123456"), ErrNotFound)
	assert.ErrorIs(t, repo.UpdateMember(ctx, m), ErrNotFound)
}

func TestDuplicateEmailRejected(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	require.NoError(t, repo.CreateMember(ctx, member("MBR100001", "dup@example.com", core.StandardMembership)))
	assert.Error(t, repo.CreateMember(ctx, member("MBR100002", "dup@example.com", core.StandardMembership)))
}

func TestSeedTrainersOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	added, err := repo.SeedTrainers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, added)

	added, err = repo.SeedTrainers(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)

	trainers, err := repo.ListTrainers(ctx)
	require.NoError(t, err)
	require.Len(t, trainers, 4)
	assert.Equal(t, "Bun Ratnatepy", trainers[0].Name)
	assert.Equal(t, 4.8, trainers[0].Rating)

	tr := trainers[1]
	tr.Schedule = "Mon-Sun 9AM-5PM"
	require.NoError(t, repo.UpdateTrainer(ctx, tr))
	require.NoError(t, repo.DeleteTrainer(ctx, trainers[3].ID))
	assert.ErrorIs(t, repo.DeleteTrainer(ctx, trainers[3].ID), ErrNotFound)

	n, err := repo.CountTrainers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPaymentsCRUDAndTotal(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	total, err := repo.TotalIncome(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.00", total.String())

	first, err := repo.CreatePayment(ctx, core.Payment{MemberID: "MBR100001", Amount: core.NewMoney(2550), Method: "cash", PaidAt: at(2024, time.January, 3)})
	require.NoError(t, err)
	second, err := repo.CreatePayment(ctx, core.Payment{MemberID: "MBR100001", Amount: core.NewMoney(1000), Method: "card", Promo: "NEWYEAR", PaidAt: at(2024, time.February, 3)})
	require.NoError(t, err)

	list, err := repo.ListPayments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID, "newest first")
	assert.Equal(t, at(2024, time.February, 3), list[0].PaidAt)
	assert.Equal(t, "NEWYEAR", list[0].Promo)

	total, err = repo.TotalIncome(ctx)
	require.NoError(t, err)
	assert.Equal(t, "35.50", total.String())

	require.NoError(t, repo.UpdatePayment(ctx, core.Payment{ID: first, MemberID: "MBR100001", Amount: core.NewMoney(3000), Method: "card"}))
	p, err := repo.GetPayment(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), p.Amount.Cents)
	assert.Equal(t, at(2024, time.January, 3), p.PaidAt, "zero PaidAt keeps the stored date")

	assert.ErrorIs(t, repo.UpdatePayment(ctx, core.Payment{ID: 999, MemberID: "x", Amount: core.NewMoney(1), Method: "cash"}), ErrNotFound)
	require.NoError(t, repo.DeletePayment(ctx, first))
	assert.ErrorIs(t, repo.DeletePayment(ctx, first), ErrNotFound)
	_, err = repo.GetPayment(ctx, first)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMonthlyIncomeSQLite(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	require.NoError(t, repo.CreateMember(ctx, member("MBR100001", "s@example.com", core.StandardMembership)))
	require.NoError(t, repo.CreateMember(ctx, member("MBR100002", "p@example.com", core.PremiumMembership)))
	legacy := member("MBR100003", "g@example.com", "Gold")
	require.NoError(t, repo.CreateMember(ctx, legacy))

	for _, p := range []core.Payment{
		{MemberID: "MBR100001", Amount: core.NewMoney(10000), Method: "cash", PaidAt: at(2024, time.January, 15)},
		{MemberID: "MBR100001", Amount: core.NewMoney(2000), Method: "cash", PaidAt: at(2024, time.January, 20)},
		{MemberID: "MBR100002", Amount: core.NewMoney(5000), Method: "card", PaidAt: at(2024, time.February, 2)},
		{MemberID: "MBR100001", Amount: core.NewMoney(500), Method: "cash", PaidAt: at(2023, time.March, 1)},
		{MemberID: "MBR100003", Amount: core.NewMoney(777), Method: "cash", PaidAt: at(2024, time.January, 5)},
	} {
		_, err := repo.CreatePayment(ctx, p)
		require.NoError(t, err)
	}

	cases := []struct {
		name   string
		filter report.Filter
		want   []core.MonthlyIncomeRow
	}{
		{
			name:   "whole year",
			filter: report.Filter{Year: 2024},
			want: []core.MonthlyIncomeRow{
				{Month: "2024-01", Membership: core.StandardMembership, Total: core.NewMoney(12000)},
				{Month: "2024-02", Membership: core.PremiumMembership, Total: core.NewMoney(5000)},
			},
		},
		{
			name:   "month range",
			filter: report.Filter{Year: 2024, FromMonth: 2, ToMonth: 3},
			want: []core.MonthlyIncomeRow{
				{Month: "2024-02", Membership: core.PremiumMembership, Total: core.NewMoney(5000)},
			},
		},
		{
			name:   "membership",
			filter: report.Filter{Year: 2024, Membership: core.StandardMembership},
			want: []core.MonthlyIncomeRow{
				{Month: "2024-01", Membership: core.StandardMembership, Total: core.NewMoney(12000)},
			},
		},
		{
			name:   "no data",
			filter: report.Filter{Year: 2022},
			want:   []core.MonthlyIncomeRow{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.MonthlyIncome(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBookingsFeedbackContactsAndEvents(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	fixed := at(2024, time.June, 1)
	repo.now = func() time.Time { return fixed }

	_, err := repo.CreateBooking(ctx, core.Booking{MemberID: "MBR100001", Workout: "Yoga"})
	require.NoError(t, err)
	_, err = repo.CreateBooking(ctx, core.Booking{MemberID: "MBR100001", Workout: "Spin", Date: at(2024, time.July, 1)})
	require.NoError(t, err)

	bookings, err := repo.ListBookingsByMember(ctx, "MBR100001")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "Spin", bookings[0].Workout)
	assert.Equal(t, fixed, bookings[1].Date, "zero date defaults to now")

	none, err := repo.ListBookingsByMember(ctx, "MBR999999")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = repo.CreateFeedback(ctx, core.Feedback{TrainerName: "Chhin Visal", MemberID: "MBR100001", Rating: 5, Comment: "great"})
	require.NoError(t, err)
	_, err = repo.CreateContact(ctx, core.Contact{Name: "Ann", Email: "ann@example.com", Message: "hi"})
	require.NoError(t, err)

	require.NoError(t, repo.RecordPaymentEvent(ctx, core.PaymentEvent{
		Kind: core.PaymentCreated, PaymentID: 7, MemberID: "MBR100001", Amount: core.NewMoney(4200), OccurredAt: fixed,
	}))
	events, err := repo.ListPaymentEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, core.PaymentCreated, events[0].Kind)
	assert.Equal(t, int64(4200), events[0].Amount.Cents)
	assert.Equal(t, fixed, events[0].OccurredAt)
}

func TestSQLTimeScan(t *testing.T) {
	cases := []struct {
		in    any
		valid bool
		want  time.Time
	}{
		{nil, false, time.Time{}},
		{"", false, time.Time{}},
		{"2024-03-05 06:07:08", true, time.Date(2024, 3, 5, 6, 7, 8, 0, time.UTC)},
		{[]byte("2024-03-05"), true, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-03-05T06:07:08Z", true, time.Date(2024, 3, 5, 6, 7, 8, 0, time.UTC)},
		{time.Date(2024, 3, 5, 6, 7, 8, 0, time.UTC), true, time.Date(2024, 3, 5, 6, 7, 8, 0, time.UTC)},
	}
	for _, tc := range cases {
		var st sqlTime
		if err := st.Scan(tc.in); err != nil {
			t.Fatalf("scan %v: %v", tc.in, err)
		}
		if st.Valid != tc.valid || !st.Time.Equal(tc.want) {
			t.Fatalf("scan %v: got %v (%v)", tc.in, st.Time, st.Valid)
		}
	}

	var st sqlTime
	if err := st.Scan("yesterday"); err == nil {
		t.Fatal("expected error for unparseable time")
	}
	if err := st.Scan(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
