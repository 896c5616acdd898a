package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-backend/internal/auth"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	user := &domain.UserRef{ID: uuid.New(), Username: "jdoe", FullName: "Jane Doe"}

	token, err := tm.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "jdoe", claims.Username)
	assert.Equal(t, user, claims.UserRef())
}

func TestTokenManager_ValidateToken(t *testing.T) {
	user := &domain.UserRef{ID: uuid.New(), Username: "jdoe"}

	t.Run("wrong secret", func(t *testing.T) {
		token, err := auth.NewTokenManager("secret-a", time.Hour).GenerateToken(user)
		require.NoError(t, err)

		_, err = auth.NewTokenManager("secret-b", time.Hour).ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		tm := auth.NewTokenManager("test-secret", -time.Minute)
		token, err := tm.GenerateToken(user)
		require.NoError(t, err)

		_, err = tm.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := auth.NewTokenManager("test-secret", time.Hour).ValidateToken("not.a.jwt")
		assert.Error(t, err)
	})
}
