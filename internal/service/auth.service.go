package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"order-console/internal/auth"
	"order-console/internal/domain"
	"order-console/internal/repo"
)

// Authenticator resolves the caller carried in ctx.
type Authenticator interface {
	CurrentUser(ctx context.Context) (*domain.Profile, error)
	// VerifyPassword checks password against the caller's own credential.
	VerifyPassword(ctx context.Context, password string) error
}

type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   *domain.Profile `json:"profile"`
}

type AuthService interface {
	Authenticator
	Login(ctx context.Context, email, password string) (*Session, error)
}

type authService struct {
	profiles repo.ProfileRepo
	cached   ProfileService
	tokens   *auth.Tokens
	log      logrus.FieldLogger
}

func NewAuthService(profiles repo.ProfileRepo, cached ProfileService, tokens *auth.Tokens, log logrus.FieldLogger) AuthService {
	return &authService{profiles: profiles, cached: cached, tokens: tokens, log: log}
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}
	p, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if p == nil || !auth.CheckPassword(p.PasswordHash, password) {
		s.log.WithField("email", email).Warn("login rejected")
		return nil, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)
	}
	token, expires, err := s.tokens.Issue(p.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires, Profile: p}, nil
}

func (s *authService) CurrentUser(ctx context.Context) (*domain.Profile, error) {
	id, ok := auth.UserIDFrom(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	p, err := s.cached.Get(ctx, id)
	if isNotFound(err) {
		return nil, domain.ErrUnauthenticated
	}
	return p, err
}

func (s *authService) VerifyPassword(ctx context.Context, password string) error {
	id, ok := auth.UserIDFrom(ctx)
	if !ok {
		return domain.ErrUnauthenticated
	}
	// Read the credential directly so a password change is seen immediately.
	p, err := s.profiles.FindById(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrUnauthenticated
	}
	if !auth.CheckPassword(p.PasswordHash, password) {
		return domain.ErrInvalidPassword
	}
	return nil
}
