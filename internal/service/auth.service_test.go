package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-console/internal/auth"
	"order-console/internal/domain"
	"order-console/internal/logger"
)

func newAuthFixture(t *testing.T) (AuthService, *auth.Tokens, domain.Profile) {
	t.Helper()
	employee := newTestProfile(t, domain.RoleEmployee, "correct horse")
	repo := newFakeProfileRepo(employee)
	tokens := auth.NewTokens("test-secret", time.Hour)
	profiles := NewProfileService(repo, time.Minute, logger.Discard())
	return NewAuthService(repo, profiles, tokens, logger.Discard()), tokens, employee
}

func TestAuthService_Login(t *testing.T) {
	svc, tokens, employee := newAuthFixture(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, employee.Email, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, employee.ID, session.Profile.ID)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	id, err := tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, employee.ID, id)

	_, err = svc.Login(ctx, employee.Email, "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthService_CurrentUser(t *testing.T) {
	svc, _, employee := newAuthFixture(t)

	_, err := svc.CurrentUser(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	p, err := svc.CurrentUser(auth.WithUserID(context.Background(), employee.ID))
	require.NoError(t, err)
	assert.Equal(t, employee.Email, p.Email)
}

func TestAuthService_VerifyPassword(t *testing.T) {
	svc, _, employee := newAuthFixture(t)
	ctx := auth.WithUserID(context.Background(), employee.ID)

	assert.NoError(t, svc.VerifyPassword(ctx, "correct horse"))
	assert.ErrorIs(t, svc.VerifyPassword(ctx, "battery staple"), domain.ErrInvalidPassword)
	assert.ErrorIs(t, svc.VerifyPassword(context.Background(), "correct horse"), domain.ErrUnauthenticated)
}

func TestAuthService_SeesChangedPassword(t *testing.T) {
	employee := newTestProfile(t, domain.RoleEmployee, "correct horse")
	repo := newFakeProfileRepo(employee)
	profiles := NewProfileService(repo, time.Hour, logger.Discard())
	svc := NewAuthService(repo, profiles, auth.NewTokens("test-secret", time.Hour), logger.Discard())
	ctx := auth.WithUserID(context.Background(), employee.ID)

	_, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	require.NoError(t, profiles.ChangePassword(ctx, employee.ID, "correct horse", "battery staple"))

	assert.ErrorIs(t, svc.VerifyPassword(ctx, "correct horse"), domain.ErrInvalidPassword)
	assert.NoError(t, svc.VerifyPassword(ctx, "battery staple"))

	_, err = svc.Login(context.Background(), employee.Email, "battery staple")
	assert.NoError(t, err)
}
