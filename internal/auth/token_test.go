package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/deskflow/helpdesk/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, expiresAt, err := tm.GenerateToken(&domain.User{ID: "u1", Role: domain.RoleAgent})
	require.NoError(t, err)
	assert.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())
	assert.Equal(t, domain.RoleAgent, claims.Role)
}

func TestParseTokenRejectsOtherSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", 5).GenerateToken(&domain.User{ID: "u1", Role: domain.RoleClient})
	require.NoError(t, err)

	_, err = NewTokenManager("two", 5).ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "hunter22"))
	assert.Error(t, ComparePassword(hash, "wrong"))
	assert.False(t, NeedsRehash(hash, 4))
	assert.True(t, NeedsRehash(hash, 5))
	assert.False(t, NeedsRehash("not-a-hash", 4))
}

func TestHashPasswordRejectsOverlongSecret(t *testing.T) {
	_, err := HashPassword(strings.Repeat("a", 73), 4)
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	hash, err := HashPassword("motdepasse", 0)
	require.NoError(t, err)
	assert.False(t, NeedsRehash(hash, bcrypt.DefaultCost))
}
