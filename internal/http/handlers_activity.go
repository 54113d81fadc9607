package http

import (
	"net/http"
	"strconv"

	"bigboss/internal/core"
	"bigboss/internal/log"
)

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	if len(p.missing("trainer_name", "member_id", "rating", "comment")) > 0 {
		BadRequestError("Missing fields").Write(w)
		return
	}
	rating, err := strconv.Atoi(p.Get("rating"))
	if err != nil {
		BadRequestError(core.ErrInvalidRating.Error()).Write(w)
		return
	}

	_, err = s.deps.Activity.Feedback(r.Context(), core.Feedback{
		TrainerName: p.Get("trainer_name"),
		MemberID:    p.Get("member_id"),
		Rating:      rating,
		Comment:     p.Get("comment"),
	})
	if isClientError(err) {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err != nil {
		serverError(w, r, err, log.OpCreate, "Save feedback failed")
		return
	}
	NewResponse().Status(http.StatusCreated).Message("Feedback submitted").Write(w)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	v := newValidator(p).
		Required("name", "Name is required").
		Email("email", "Valid email is required").
		Required("message", "Message is required")
	if !v.Valid() {
		ValidationError(v.Errors()).Write(w)
		return
	}

	_, err := s.deps.Activity.Contact(r.Context(), core.Contact{
		Name:    p.Get("name"),
		Email:   p.Get("email"),
		Subject: p.Get("subject"),
		Message: p.Get("message"),
	})
	if isClientError(err) {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err != nil {
		serverError(w, r, err, log.OpCreate, "Failed to save contact message")
		return
	}
	NewResponse().Status(http.StatusCreated).Message("Contact message received").Write(w)
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	v := newValidator(p).
		Required("member_id", "Member ID is required").
		Required("workout_name", "Workout name is required")
	var b core.Booking
	if raw := p.Get("booking_date"); raw != "" {
		t, err := parseTimestamp(raw)
		if err != nil {
			v.fail("booking_date", "Invalid booking date")
		}
		b.Date = t
	}
	if !v.Valid() {
		ValidationError(v.Errors()).Write(w)
		return
	}

	b.MemberID = p.Get("member_id")
	b.Workout = p.Get("workout_name")
	b, err := s.deps.Activity.Book(r.Context(), b)
	if isClientError(err) {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err != nil {
		serverError(w, r, err, log.OpCreate, "Failed to create booking")
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Message("Booking created successfully", "booking_id", b.ID).
		Write(w)
}

func (s *Server) handleMemberBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := s.deps.Activity.Bookings(r.Context(), r.PathValue("id"))
	if err != nil {
		serverError(w, r, err, log.OpList, "Failed to fetch bookings")
		return
	}
	NewResponse().JSON(mapSlice(bookings, newBookingView)).Write(w)
}
