package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/finance-ai/internal/domain"
	"github.com/Rrens/finance-ai/internal/repository/memory"
	"github.com/Rrens/finance-ai/internal/security"
)

func newAuthService() *AuthService {
	users := memory.NewUserRepository(memory.NewStore())
	return NewAuthService(users, security.NewJWTManager("test-secret", time.Minute, time.Hour))
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	user, err := svc.Register(ctx, domain.UserCreate{Email: "  Ana@Example.com ", Password: "correct-horse", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, domain.UserCreate{Email: "ana@example.com", Password: "another-pass"})
		assert.ErrorIs(t, err, domain.ErrEmailTaken)
	})

	t.Run("login", func(t *testing.T) {
		tokens, err := svc.Login(ctx, domain.UserLogin{Email: "ANA@example.com", Password: "correct-horse"})
		require.NoError(t, err)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
		assert.Equal(t, int64(60), tokens.ExpiresIn)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, domain.UserLogin{Email: "ana@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, domain.UserLogin{Email: "bob@example.com", Password: "correct-horse"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	_, err := svc.Register(ctx, domain.UserCreate{Email: "ana@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	tokens, err := svc.Login(ctx, domain.UserLogin{Email: "ana@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.Refresh(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestAuthService_RefreshDeletedUser(t *testing.T) {
	ctx := context.Background()
	jwt := security.NewJWTManager("test-secret", time.Minute, time.Hour)
	users := new(MockUserRepository)
	svc := NewAuthService(users, jwt)

	userID := uuid.New()
	refresh, err := jwt.GenerateRefreshToken(userID)
	require.NoError(t, err)

	users.On("GetByID", mock.Anything, userID).Return(nil, nil)

	_, err = svc.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	users.AssertExpectations(t)
}

func TestAuthService_GetUserByID(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService()

	user, err := svc.Register(ctx, domain.UserCreate{Email: "ana@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	found, err := svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)

	_, err = svc.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
