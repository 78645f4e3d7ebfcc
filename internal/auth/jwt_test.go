package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret, issuer, userID, username string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateTokenSuccess(t *testing.T) {
	verifier := NewVerifier("secret", "messenger-auth")
	tokenString := signToken(t, "secret", "messenger-auth", "u1", "alice", time.Hour)

	claims, err := verifier.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidateTokenExpired(t *testing.T) {
	verifier := NewVerifier("secret", "messenger-auth")
	tokenString := signToken(t, "secret", "messenger-auth", "u1", "alice", -time.Minute)

	_, err := verifier.ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenWrongIssuer(t *testing.T) {
	verifier := NewVerifier("secret", "messenger-auth")
	tokenString := signToken(t, "secret", "somebody-else", "u1", "alice", time.Hour)

	_, err := verifier.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	verifier := NewVerifier("secret", "messenger-auth")
	tokenString := signToken(t, "other-secret", "messenger-auth", "u1", "alice", time.Hour)

	_, err := verifier.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	verifier := NewVerifier("secret", "messenger-auth")

	_, err := verifier.ValidateToken("not-a-token")
	assert.Error(t, err)
}
