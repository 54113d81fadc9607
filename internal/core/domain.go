package core

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Member struct {
		ID           string
		Name         string
		Email        string
		Phone        string
		PasswordHash string
		DOB          Date // optional
		JoinDate     Date
		Membership   string
	}

	Trainer struct {
		ID         int64
		Name       string
		Email      string
		Specialty  string
		Experience int     // years
		Schedule   string  // free text, e.g. "Mon-Fri 6AM-12PM"
		Rating     float64 // 0..5
	}

	Payment struct {
		ID       int64
		MemberID string
		Amount   Money
		Method   string
		Promo    string // promo code used, if any
		PaidAt   time.Time
	}

	Booking struct {
		ID       int64
		MemberID string
		Workout  string
		Date     time.Time
	}

	Feedback struct {
		ID          int64
		TrainerName string
		MemberID    string
		Rating      int
		Comment     string
	}

	Contact struct {
		ID      int64
		Name    string
		Email   string
		Subject string
		Message string
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidEmail      = errors.New("valid email is required")
	ErrEmptyName         = errors.New("name is required")
	ErrEmptyPhone        = errors.New("phone number is required")
	ErrShortPassword     = errors.New("password must be at least 6 characters")
	ErrEmptyMemberID     = errors.New("member id is required")
	ErrEmptyMethod       = errors.New("payment method is required")
	ErrEmptySpecialty    = errors.New("specialty is required")
	ErrEmptySchedule     = errors.New("schedule is required")
	ErrInvalidRating     = errors.New("rating out of range")
	ErrInvalidExperience = errors.New("experience must be a non-negative integer")
	ErrEmptyWorkout      = errors.New("workout name is required")
	ErrEmptyMessage      = errors.New("message is required")
	ErrEmptyComment      = errors.New("comment is required")
	ErrInvalidDate       = errors.New("invalid date")
)

// MinPasswordLength is the shortest accepted member password.
const MinPasswordLength = 6

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp, keeping only the
// calendar date. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String renders YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Validate checks the profile fields shared by registration and updates.
// Password rules are enforced separately at registration.
func (m Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if !validEmail(m.Email) {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(m.Phone) == "" {
		return ErrEmptyPhone
	}
	if m.Membership != "" {
		if _, err := ParseMembership(m.Membership); err != nil {
			return err
		}
	}
	return nil
}

func (t Trainer) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if !validEmail(t.Email) {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(t.Specialty) == "" {
		return ErrEmptySpecialty
	}
	if t.Experience < 0 {
		return ErrInvalidExperience
	}
	if strings.TrimSpace(t.Schedule) == "" {
		return ErrEmptySchedule
	}
	if t.Rating < 0 || t.Rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.MemberID) == "" {
		return ErrEmptyMemberID
	}
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Method) == "" {
		return ErrEmptyMethod
	}
	return nil
}

func (b Booking) Validate() error {
	if strings.TrimSpace(b.MemberID) == "" {
		return ErrEmptyMemberID
	}
	if strings.TrimSpace(b.Workout) == "" {
		return ErrEmptyWorkout
	}
	return nil
}

func (f Feedback) Validate() error {
	if strings.TrimSpace(f.TrainerName) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(f.MemberID) == "" {
		return ErrEmptyMemberID
	}
	if f.Rating < 1 || f.Rating > 5 {
		return ErrInvalidRating
	}
	if strings.TrimSpace(f.Comment) == "" {
		return ErrEmptyComment
	}
	return nil
}

func (c Contact) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !validEmail(c.Email) {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(c.Message) == "" {
		return ErrEmptyMessage
	}
	return nil
}
