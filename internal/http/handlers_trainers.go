package http

import (
	"errors"
	"net/http"
	"strconv"

	"bigboss/internal/core"
	"bigboss/internal/log"
	"bigboss/internal/services"
)

func (s *Server) handleListTrainers(w http.ResponseWriter, r *http.Request) {
	trainers, err := s.deps.Trainers.List(r.Context())
	if err != nil {
		serverError(w, r, err, log.OpList, "Fetch trainers failed")
		return
	}
	NewResponse().JSON(mapSlice(trainers, newTrainerView)).Write(w)
}

func (s *Server) handleCountTrainers(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Trainers.Count(r.Context())
	if err != nil {
		serverError(w, r, err, log.OpRead, "Failed to count trainers")
		return
	}
	NewResponse().JSON(map[string]int{"totalTrainers": n}).Write(w)
}

// trainerFrom reads a trainer from a body already checked by trainerRules.
func trainerFrom(p *RequestBodyParser) core.Trainer {
	experience, _ := strconv.Atoi(p.Get("experience"))
	rating, _ := strconv.ParseFloat(p.Get("rating"), 64)
	return core.Trainer{
		Name:       p.Get("name"),
		Email:      p.Get("email"),
		Specialty:  p.Get("specialty"),
		Experience: experience,
		Schedule:   p.Get("schedule"),
		Rating:     rating,
	}
}

func trainerRules(p *RequestBodyParser) *validator {
	return newValidator(p).
		Required("name", "Name is required").
		Email("email", "Valid email is required").
		Required("specialty", "Specialty is required").
		Int("experience", "Experience must be a whole number of years").
		Required("schedule", "Schedule is required").
		FloatRange("rating", 0, 5, "Rating must be between 0 and 5")
}

func (s *Server) handleCreateTrainer(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	if v := trainerRules(p); !v.Valid() {
		ValidationError(v.Errors()).Write(w)
		return
	}

	t, err := s.deps.Trainers.Create(r.Context(), trainerFrom(p))
	if isClientError(err) {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err != nil {
		serverError(w, r, err, log.OpCreate, "Failed to add trainer")
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Message("Trainer added", "trainer_id", t.ID).
		Write(w)
}

func (s *Server) handleUpdateTrainer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p := parseBody(w, r)
	if p == nil {
		return
	}
	if len(p.missing("name", "email", "specialty", "experience", "schedule", "rating")) > 0 {
		BadRequestError("All fields required").Write(w)
		return
	}
	if v := trainerRules(p); !v.Valid() {
		ValidationError(v.Errors()).Write(w)
		return
	}

	t := trainerFrom(p)
	t.ID = id
	_, err := s.deps.Trainers.Update(r.Context(), t)
	switch {
	case errors.Is(err, services.ErrNotFound):
		NotFoundError("Trainer not found").Write(w)
		return
	case isClientError(err):
		BadRequestError(err.Error()).Write(w)
		return
	case err != nil:
		serverError(w, r, err, log.OpUpdate, "Failed to update trainer")
		return
	}
	NewResponse().Message("Trainer updated successfully").Write(w)
}

func (s *Server) handleDeleteTrainer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	err := s.deps.Trainers.Delete(r.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		NotFoundError("Trainer not found").Write(w)
		return
	}
	if err != nil {
		serverError(w, r, err, log.OpDelete, "Failed to delete trainer")
		return
	}
	NewResponse().Message("Trainer deleted successfully").Write(w)
}
