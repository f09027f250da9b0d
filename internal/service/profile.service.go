package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/viccon/sturdyc"

	"order-console/internal/auth"
	"order-console/internal/domain"
	"order-console/internal/repo"
)

const (
	minNicknameLen = 2
	minPasswordLen = 6
)

// NewProfile describes an account created at bootstrap time or by an admin.
type NewProfile struct {
	Email      string      `json:"email" binding:"required,email"`
	Password   string      `json:"password" binding:"required"`
	Role       domain.Role `json:"role" binding:"required"`
	Nickname   string      `json:"nickname"`
	ClientName string      `json:"client_name"`
}

type ProfileService interface {
	// Get returns the profile through the TTL cache. Unknown ids yield domain.ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	ListUsers(ctx context.Context) ([]domain.Profile, error)
	ListCustomers(ctx context.Context) ([]domain.Profile, error)
	// Create adds a customer or employee account. A taken email yields domain.ErrConflict.
	Create(ctx context.Context, in NewProfile) (*domain.Profile, error)
	// ResetPassword sets a new password without knowing the old one.
	ResetPassword(ctx context.Context, id uuid.UUID, password string) error
	// ChangePassword sets a new password once current matches the stored one.
	ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error
	UpdateClientName(ctx context.Context, id uuid.UUID, clientName string) error
	UpdateNickname(ctx context.Context, id uuid.UUID, nickname string) error
	// Ensure creates the account or resets its password and role.
	Ensure(ctx context.Context, in NewProfile) (*domain.Profile, error)
}

type profileService struct {
	profiles repo.ProfileRepo
	cache    *sturdyc.Client[*domain.Profile]
	log      logrus.FieldLogger
}

func NewProfileService(profiles repo.ProfileRepo, ttl time.Duration, log logrus.FieldLogger) ProfileService {
	return &profileService{
		profiles: profiles,
		cache:    sturdyc.New[*domain.Profile](10000, 10, ttl, 10),
		log:      log,
	}
}

func (s *profileService) Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, err := s.cache.GetOrFetch(ctx, id.String(), func(ctx context.Context) (*domain.Profile, error) {
		p, err := s.profiles.FindById(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	cp := *p
	return &cp, nil
}

func (s *profileService) ListUsers(ctx context.Context) ([]domain.Profile, error) {
	return s.profiles.List(ctx)
}

func (s *profileService) ListCustomers(ctx context.Context) ([]domain.Profile, error) {
	return s.profiles.ListCustomers(ctx)
}

func (s *profileService) Create(ctx context.Context, in NewProfile) (*domain.Profile, error) {
	switch in.Role {
	case domain.RoleCustomer:
		if strings.TrimSpace(in.ClientName) == "" {
			return nil, fmt.Errorf("%w: customers need a client name", domain.ErrValidation)
		}
	case domain.RoleEmployee:
	default:
		return nil, fmt.Errorf("%w: cannot create %q accounts", domain.ErrValidation, in.Role)
	}
	if err := checkNewPassword(in.Password); err != nil {
		return nil, err
	}
	p, err := newProfile(in)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": p.ID, "role": p.Role}).Info("account created")
	return p, nil
}

func (s *profileService) ResetPassword(ctx context.Context, id uuid.UUID, password string) error {
	if err := s.setPassword(ctx, id, password); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("password reset")
	return nil
}

func (s *profileService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	p, err := s.profiles.FindById(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	if !auth.CheckPassword(p.PasswordHash, current) {
		return domain.ErrInvalidPassword
	}
	if err := s.setPassword(ctx, id, next); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("password changed")
	return nil
}

func (s *profileService) setPassword(ctx context.Context, id uuid.UUID, password string) error {
	if err := checkNewPassword(password); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.profiles.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}
	s.cache.Delete(id.String())
	return nil
}

func checkNewPassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, minPasswordLen)
	}
	return nil
}

func (s *profileService) UpdateClientName(ctx context.Context, id uuid.UUID, clientName string) error {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return fmt.Errorf("%w: client name is required", domain.ErrValidation)
	}
	if err := s.profiles.UpdateClientName(ctx, id, clientName); err != nil {
		return err
	}
	s.cache.Delete(id.String())
	s.log.WithFields(logrus.Fields{"user_id": id, "client_name": clientName}).Info("client name updated")
	return nil
}

func (s *profileService) UpdateNickname(ctx context.Context, id uuid.UUID, nickname string) error {
	nickname = strings.TrimSpace(nickname)
	if utf8.RuneCountInString(nickname) < minNicknameLen {
		return fmt.Errorf("%w: nickname must be at least %d characters", domain.ErrValidation, minNicknameLen)
	}
	if err := s.profiles.UpdateNickname(ctx, id, nickname); err != nil {
		return err
	}
	s.cache.Delete(id.String())
	return nil
}

func (s *profileService) Ensure(ctx context.Context, in NewProfile) (*domain.Profile, error) {
	p, err := newProfile(in)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return nil, err
	}
	s.cache.Delete(p.ID.String())
	return p, nil
}

func newProfile(in NewProfile) (*domain.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}
	switch in.Role {
	case domain.RoleCustomer, domain.RoleEmployee, domain.RoleSuperAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, in.Role)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Nickname:     strings.TrimSpace(in.Nickname),
		ClientName:   strings.TrimSpace(in.ClientName),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// isNotFound reports profile lookups that found nothing.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
