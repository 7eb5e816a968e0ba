package services

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/meue/rewards-backend/internal/config"
	"github.com/meue/rewards-backend/internal/models"
	"github.com/meue/rewards-backend/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (*AuthServiceImpl, *memory.AdminUserRepository) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpiresIn = 3600
	repo := memory.NewAdminUserRepository()
	return NewAuthService(repo, cfg), repo
}

func TestAuthServiceLogin(t *testing.T) {
	ctx := context.Background()
	service, _ := newAuthFixture(t)
	require.NoError(t, service.EnsureSeedAdmin(ctx, "admin@example.com", "hunter22"))

	t.Run("valid credentials return a signed token", func(t *testing.T) {
		resp, err := service.Login(ctx, &models.LoginRequest{Email: "admin@example.com", Password: "hunter22"})
		require.NoError(t, err)
		require.NotEmpty(t, resp.Token)

		token, err := jwt.Parse(resp.Token, func(token *jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		claims, ok := token.Claims.(jwt.MapClaims)
		require.True(t, ok)
		assert.Equal(t, "admin@example.com", claims["email"])
		assert.Equal(t, "admin", claims["role"])
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Login(ctx, &models.LoginRequest{Email: "admin@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := service.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "hunter22"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestEnsureSeedAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("is idempotent", func(t *testing.T) {
		service, repo := newAuthFixture(t)
		require.NoError(t, service.EnsureSeedAdmin(ctx, "admin@example.com", "hunter22"))
		first, err := repo.FindByEmail(ctx, "admin@example.com")
		require.NoError(t, err)

		require.NoError(t, service.EnsureSeedAdmin(ctx, "admin@example.com", "hunter22"))
		second, err := repo.FindByEmail(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("skips when unconfigured", func(t *testing.T) {
		service, repo := newAuthFixture(t)
		require.NoError(t, service.EnsureSeedAdmin(ctx, "", ""))
		_, err := repo.FindByEmail(ctx, "")
		assert.Error(t, err)
	})
}
