package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/Dosada05/bracket-pool/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdminAndLogin(t *testing.T) {
	repo := &fakeUserRepo{}
	service := NewAuthService(repo, slog.Default())

	require.NoError(t, service.EnsureAdmin(context.Background(), "admin@example.com", "s3cret"))

	user, err := service.Login(context.Background(), LoginInput{Email: "admin@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	_, err = service.Login(context.Background(), LoginInput{Email: "admin@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)

	_, err = service.Login(context.Background(), LoginInput{Email: "ghost@example.com", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	repo := &fakeUserRepo{}
	service := NewAuthService(repo, slog.Default())

	require.NoError(t, service.EnsureAdmin(context.Background(), "admin@example.com", "s3cret"))
	require.NoError(t, service.EnsureAdmin(context.Background(), "admin@example.com", "s3cret"))
	assert.Len(t, repo.users, 1)
}

func TestEnsureAdminSkipsWhenUnconfigured(t *testing.T) {
	repo := &fakeUserRepo{}
	service := NewAuthService(repo, slog.Default())

	require.NoError(t, service.EnsureAdmin(context.Background(), "", ""))
	assert.Empty(t, repo.users)
}
