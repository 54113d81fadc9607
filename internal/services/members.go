// Package services holds the use cases behind the HTTP handlers: member
// accounts, payments and reporting, trainers, and the small activity forms.
package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bigboss/internal/core"
	"bigboss/internal/storage"
)

var (
	ErrNotFound           = storage.ErrNotFound
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrEmailTaken         = errors.New("Email already registered")
	errIDSpaceExhausted   = errors.New("could not allocate a member id")
)

const (
	// BcryptCost is the work factor for member passwords.
	BcryptCost = 10

	memberIDPrefix   = "MBR"
	memberIDMin      = 100000
	memberIDSpan     = 900000
	memberIDAttempts = 50
)

type MemberStore interface {
	CreateMember(ctx context.Context, m core.Member) error
	MemberExists(ctx context.Context, id string) (bool, error)
	GetMember(ctx context.Context, id string) (core.Member, error)
	GetMemberByEmail(ctx context.Context, email string) (core.Member, error)
	ListMembers(ctx context.Context) ([]core.Member, error)
	UpdateMember(ctx context.Context, m core.Member) error
	DeleteMember(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, hash string) error
	CountMembers(ctx context.Context) (int, error)
}

// MemberService manages member accounts and credentials.
type MemberService struct {
	store    MemberStore
	cost     int
	now      func() time.Time
	randomID func() (int64, error)
}

func NewMemberService(store MemberStore) *MemberService {
	return &MemberService{
		store:    store,
		cost:     BcryptCost,
		now:      time.Now,
		randomID: randomMemberNumber,
	}
}

func randomMemberNumber() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(memberIDSpan))
	if err != nil {
		return 0, err
	}
	return n.Int64() + memberIDMin, nil
}

func (s *MemberService) newMemberID(ctx context.Context) (string, error) {
	for i := 0; i < memberIDAttempts; i++ {
		n, err := s.randomID()
		if err != nil {
			return "", fmt.Errorf("generate member id: %w", err)
		}
		id := fmt.Sprintf("%s%06d", memberIDPrefix, n)
		taken, err := s.store.MemberExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !taken {
			return id, nil
		}
	}
	return "", errIDSpaceExhausted
}

// normalize trims the profile and maps the membership to its canonical name,
// defaulting to Standard Membership.
func normalize(m core.Member) (core.Member, error) {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Phone = strings.TrimSpace(m.Phone)
	if strings.TrimSpace(m.Membership) == "" {
		m.Membership = string(core.StandardMembership)
	}
	canonical, err := core.ParseMembership(m.Membership)
	if err != nil {
		return m, err
	}
	m.Membership = string(canonical)
	return m, m.Validate()
}

// Register creates an account and returns it with its generated id.
func (s *MemberService) Register(ctx context.Context, m core.Member, password string) (core.Member, error) {
	m, err := normalize(m)
	if err != nil {
		return core.Member{}, err
	}
	if len(password) < core.MinPasswordLength {
		return core.Member{}, core.ErrShortPassword
	}

	if _, err := s.store.GetMemberByEmail(ctx, m.Email); err == nil {
		return core.Member{}, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return core.Member{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return core.Member{}, fmt.Errorf("hash password: %w", err)
	}
	m.PasswordHash = string(hash)

	if m.JoinDate.IsEmpty() {
		now := s.now()
		m.JoinDate = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}

	m.ID, err = s.newMemberID(ctx)
	if err != nil {
		return core.Member{}, err
	}
	if err := s.store.CreateMember(ctx, m); err != nil {
		return core.Member{}, fmt.Errorf("register member: %w", err)
	}
	return m, nil
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *MemberService) Login(ctx context.Context, email, password string) (core.Member, error) {
	m, err := s.store.GetMemberByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return core.Member{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.Member{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		slog.InfoContext(ctx, "Rejected login", "member_id", m.ID)
		return core.Member{}, ErrInvalidCredentials
	}
	return m, nil
}

func (s *MemberService) ChangePassword(ctx context.Context, id, newPassword string) error {
	if len(newPassword) < core.MinPasswordLength {
		return core.ErrShortPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdatePassword(ctx, strings.TrimSpace(id), string(hash))
}

// UpdateProfile rewrites the editable profile fields of m.ID.
func (s *MemberService) UpdateProfile(ctx context.Context, m core.Member) (core.Member, error) {
	m, err := normalize(m)
	if err != nil {
		return core.Member{}, err
	}
	if other, err := s.store.GetMemberByEmail(ctx, m.Email); err == nil && other.ID != m.ID {
		return core.Member{}, ErrEmailTaken
	}
	if err := s.store.UpdateMember(ctx, m); err != nil {
		return core.Member{}, err
	}
	return s.store.GetMember(ctx, m.ID)
}

func (s *MemberService) Get(ctx context.Context, id string) (core.Member, error) {
	return s.store.GetMember(ctx, id)
}

func (s *MemberService) List(ctx context.Context) ([]core.Member, error) {
	return s.store.ListMembers(ctx)
}

func (s *MemberService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteMember(ctx, id)
}

func (s *MemberService) Count(ctx context.Context) (int, error) {
	return s.store.CountMembers(ctx)
}
