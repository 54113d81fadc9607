package http

import (
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"bigboss/internal/core"
	"bigboss/internal/log"
)

// sanitizeInput trims whitespace and removes control characters except tab,
// newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.NewMoney(cents), nil
}

func parseDate(s string) (core.Date, error) {
	return core.ParseDate(s)
}

// parseTimestamp accepts RFC 3339 or a bare YYYY-MM-DD (midnight UTC).
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}

// pathID reads a positive integer path value, writing a 400 when it is not one.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		BadRequestError("Invalid " + name).Write(w)
		return 0, false
	}
	return id, true
}

// memberView is the member shape the dashboard and login expect. The
// password hash never leaves the server.
type memberView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	DOB        string `json:"dob,omitempty"`
	JoinDate   string `json:"join_date"`
	Membership string `json:"membership_type"`
}

func newMemberView(m core.Member) memberView {
	membership := m.Membership
	if membership == "" {
		membership = string(core.StandardMembership)
	}
	return memberView{
		ID:         m.ID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		DOB:        m.DOB.String(),
		JoinDate:   m.JoinDate.String(),
		Membership: membership,
	}
}

type trainerView struct {
	ID         int64   `json:"trainer_id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Specialty  string  `json:"specialty"`
	Experience int     `json:"experience"`
	Schedule   string  `json:"schedule"`
	Rating     float64 `json:"rating"`
}

func newTrainerView(t core.Trainer) trainerView {
	return trainerView{
		ID:         t.ID,
		Name:       t.Name,
		Email:      t.Email,
		Specialty:  t.Specialty,
		Experience: t.Experience,
		Schedule:   t.Schedule,
		Rating:     t.Rating,
	}
}

type paymentView struct {
	ID       int64      `json:"payment_id"`
	MemberID string     `json:"member_id"`
	Amount   core.Money `json:"total_amount"`
	Method   string     `json:"payment_method"`
	Promo    string     `json:"promo_used,omitempty"`
	PaidAt   time.Time  `json:"payment_date"`
}

func newPaymentView(p core.Payment) paymentView {
	return paymentView{
		ID:       p.ID,
		MemberID: p.MemberID,
		Amount:   p.Amount,
		Method:   p.Method,
		Promo:    p.Promo,
		PaidAt:   p.PaidAt.UTC(),
	}
}

type bookingView struct {
	ID       int64     `json:"booking_id"`
	MemberID string    `json:"member_id"`
	Workout  string    `json:"workout_name"`
	Date     time.Time `json:"booking_date"`
}

func newBookingView(b core.Booking) bookingView {
	return bookingView{ID: b.ID, MemberID: b.MemberID, Workout: b.Workout, Date: b.Date.UTC()}
}

func mapSlice[T, V any](in []T, f func(T) V) []V {
	out := make([]V, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}

// clientErrors are validation failures whose message is safe to return.
var clientErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidEmail,
	core.ErrEmptyName,
	core.ErrEmptyPhone,
	core.ErrShortPassword,
	core.ErrEmptyMemberID,
	core.ErrEmptyMethod,
	core.ErrEmptySpecialty,
	core.ErrEmptySchedule,
	core.ErrInvalidRating,
	core.ErrInvalidExperience,
	core.ErrEmptyWorkout,
	core.ErrEmptyMessage,
	core.ErrEmptyComment,
	core.ErrInvalidDate,
	core.ErrUnknownMembership,
}

func isClientError(err error) bool {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// serverError logs err against the request and writes a 500 with msg.
func serverError(w http.ResponseWriter, r *http.Request, err error, op, msg string) {
	log.FromContext(r.Context()).LogError(r.Context(), msg, err, op, log.FieldPath, r.URL.Path)
	InternalServerError(msg).Write(w)
}
