package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewManager("test-secret")

	signed, err := tokens.GenerateToken(42, "viewer@example.com", "user")
	require.NoError(t, err)

	claims, err := tokens.ValidateToken(signed)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "viewer@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
}

func TestTokenRejectedWithDifferentSecret(t *testing.T) {
	issuer := NewManager("secret-a")
	verifier := NewManager("secret-b")

	signed, err := issuer.GenerateToken(42, "viewer@example.com", "user")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(signed)
	assert.Error(t, err)
}

func TestTokenRejectedWhenGarbage(t *testing.T) {
	tokens := NewManager("test-secret")

	_, err := tokens.ValidateToken("not.a.token")
	assert.Error(t, err)
}
