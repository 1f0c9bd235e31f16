package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-owner-secret")

func TestIssueAndParseOwnerToken(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tok, exp, err := IssueOwnerToken(secret, 30*time.Minute, now)
	require.NoError(t, err)
	require.NotEmpty(t, tok)
	assert.WithinDuration(t, now.Add(30*time.Minute), exp, time.Second)

	claims, err := OwnerClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, OwnerSubject, claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestOwnerClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	expired, _, err := IssueOwnerToken(secret, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	other, _, err := IssueOwnerToken([]byte("other"), time.Minute, time.Now())
	require.NoError(t, err)

	wrongSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, OwnerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "visitor",
			Issuer:    ownerIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString(secret)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":         "",
		"garbage":       "not-a-jwt",
		"expired":       expired,
		"wrong secret":  other,
		"wrong subject": wrongSubject,
	} {
		_, err := OwnerClaimsFromToken(tok, secret)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}
