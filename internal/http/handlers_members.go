package http

import (
	"errors"
	"net/http"
	"strings"

	"bigboss/internal/core"
	"bigboss/internal/log"
	"bigboss/internal/services"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	v := newValidator(p).
		Email("email", "Valid email is required").
		Required("password", "Password is required")
	if !v.Valid() {
		ValidationError(v.Errors()).Write(w)
		return
	}

	m, err := s.deps.Members.Login(r.Context(), p.Get("email"), p.GetRaw("password"))
	if errors.Is(err, services.ErrInvalidCredentials) {
		UnauthorizedError("Invalid email or password").Write(w)
		return
	}
	if err != nil {
		serverError(w, r, err, log.OpLogin, "Login failed")
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Member logged in", log.FieldMemberID, m.ID)
	NewResponse().JSON(newMemberView(m)).Write(w)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	v := newValidator(p).
		Required("member_name", "Name is required").
		Email("member_email", "Valid email is required").
		Required("member_tel", "Phone number is required").
		MinLength("member_password", core.MinPasswordLength, "Password must be at least 6 characters").
		OptionalDate("dob", "Invalid date of birth").
		OptionalDate("join_date", "Invalid join date")
	if mt := p.Get("membership_type"); mt != "" {
		if _, err := core.ParseMembership(mt); err != nil {
			v.fail("membership_type", "Invalid membership type")
		}
	}
	if !v.Valid() {
		ValidationError(v.Errors()).Write(w)
		return
	}

	dob, _ := parseDate(p.Get("dob"))
	joined, _ := parseDate(p.Get("join_date"))
	m, err := s.deps.Members.Register(r.Context(), core.Member{
		Name:       p.Get("member_name"),
		Email:      p.Get("member_email"),
		Phone:      p.Get("member_tel"),
		DOB:        dob,
		JoinDate:   joined,
		Membership: p.Get("membership_type"),
	}, p.GetRaw("member_password"))
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		ConflictError(err.Error()).Write(w)
		return
	case isClientError(err):
		BadRequestError(err.Error()).Write(w)
		return
	case err != nil:
		serverError(w, r, err, log.OpCreate, "Failed to register member")
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Member registered",
		log.FieldMemberID, m.ID,
		log.FieldMembership, m.Membership)
	NewResponse().
		Status(http.StatusCreated).
		Message("Member added successfully", "member_id", m.ID).
		Write(w)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.deps.Members.List(r.Context())
	if err != nil {
		serverError(w, r, err, log.OpList, "Failed to fetch members")
		return
	}
	NewResponse().JSON(mapSlice(members, newMemberView)).Write(w)
}

func (s *Server) handleCountMembers(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Members.Count(r.Context())
	if err != nil {
		serverError(w, r, err, log.OpRead, "Failed to count members")
		return
	}
	NewResponse().JSON(map[string]int{"totalMembers": n}).Write(w)
}

func (s *Server) handleGetMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.deps.Members.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, services.ErrNotFound) {
		NotFoundError("Member not found").Write(w)
		return
	}
	if err != nil {
		serverError(w, r, err, log.OpRead, "Fetch member failed")
		return
	}
	NewResponse().JSON(newMemberView(m)).Write(w)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	if len(p.missing("name", "email", "phone", "dob", "membership_type", "join_date")) > 0 {
		BadRequestError("All fields required").Write(w)
		return
	}
	dob, err := parseDate(p.Get("dob"))
	if err != nil {
		BadRequestError("Invalid date of birth").Write(w)
		return
	}
	joined, err := parseDate(p.Get("join_date"))
	if err != nil {
		BadRequestError("Invalid join date").Write(w)
		return
	}

	m, err := s.deps.Members.UpdateProfile(r.Context(), core.Member{
		ID:         strings.TrimSpace(r.PathValue("id")),
		Name:       p.Get("name"),
		Email:      p.Get("email"),
		Phone:      p.Get("phone"),
		DOB:        dob,
		JoinDate:   joined,
		Membership: p.Get("membership_type"),
	})
	switch {
	case errors.Is(err, services.ErrNotFound):
		NotFoundError("Member not found").Write(w)
		return
	case errors.Is(err, services.ErrEmailTaken):
		ConflictError(err.Error()).Write(w)
		return
	case isClientError(err):
		BadRequestError(err.Error()).Write(w)
		return
	case err != nil:
		serverError(w, r, err, log.OpUpdate, "Update failed")
		return
	}
	NewResponse().Message("Member updated successfully", "member", newMemberView(m)).Write(w)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Members.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, services.ErrNotFound) {
		NotFoundError("Member not found").Write(w)
		return
	}
	if err != nil {
		serverError(w, r, err, log.OpDelete, "Delete failed")
		return
	}
	NewResponse().Message("Member deleted successfully").Write(w)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	if len(p.missing("id", "new_password")) > 0 {
		BadRequestError("Missing fields").Write(w)
		return
	}

	err := s.deps.Members.ChangePassword(r.Context(), p.Get("id"), p.GetRaw("new_password"))
	switch {
	case errors.Is(err, core.ErrShortPassword):
		BadRequestError(err.Error()).Write(w)
		return
	case errors.Is(err, services.ErrNotFound):
		NotFoundError("Member not found").Write(w)
		return
	case err != nil:
		serverError(w, r, err, log.OpUpdate, "Password update failed")
		return
	}
	NewResponse().Message("Password updated successfully").Write(w)
}
