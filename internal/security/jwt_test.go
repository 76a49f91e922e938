package security_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/finance-ai/internal/security"
)

const testSecret = "test-secret-key-with-32-chars!!"

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager := security.NewJWTManager(testSecret, 15*time.Minute, 7*24*time.Hour)
	userID := uuid.New()

	accessToken, err := manager.GenerateAccessToken(userID, "test@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)

	claims, err := manager.ValidateAccessToken(accessToken)
	require.NoError(t, err)

	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.Equal(t, "test@example.com", claims.Email)
}

func TestJWTManager_GenerateTokenPair(t *testing.T) {
	manager := security.NewJWTManager(testSecret, 15*time.Minute, 7*24*time.Hour)
	userID := uuid.New()

	accessToken, refreshToken, expiresIn, err := manager.GenerateTokenPair(userID, "test@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, accessToken)
	assert.NotEmpty(t, refreshToken)
	assert.Equal(t, int64(900), expiresIn)

	got, err := manager.ValidateRefreshToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTManager_TokenKindsAreNotInterchangeable(t *testing.T) {
	manager := security.NewJWTManager(testSecret, 15*time.Minute, time.Hour)
	accessToken, refreshToken, _, err := manager.GenerateTokenPair(uuid.New(), "a@b.co")
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(refreshToken)
	assert.ErrorIs(t, err, security.ErrInvalidToken)

	_, err = manager.ValidateRefreshToken(accessToken)
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}

func TestJWTManager_RejectsExpiredAndForeignTokens(t *testing.T) {
	expired := security.NewJWTManager(testSecret, -time.Minute, time.Hour)
	token, err := expired.GenerateAccessToken(uuid.New(), "a@b.co")
	require.NoError(t, err)

	manager := security.NewJWTManager(testSecret, time.Minute, time.Hour)
	_, err = manager.ValidateAccessToken(token)
	assert.ErrorIs(t, err, security.ErrInvalidToken)

	other := security.NewJWTManager("another-secret-key-with-32-chars", time.Minute, time.Hour)
	token, err = other.GenerateAccessToken(uuid.New(), "a@b.co")
	require.NoError(t, err)
	_, err = manager.ValidateAccessToken(token)
	assert.ErrorIs(t, err, security.ErrInvalidToken)

	_, err = manager.ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}
