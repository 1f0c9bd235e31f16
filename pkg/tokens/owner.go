package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	OwnerSubject = "owner"
	ownerIssuer  = "ref_site/feed"
)

var ErrInvalidToken = errors.New("invalid owner token")

// OwnerClaims is the payload of the short-lived token handed out after a
// successful passphrase check.
type OwnerClaims struct {
	jwt.RegisteredClaims
}

func IssueOwnerToken(secret []byte, ttl time.Duration, now time.Time) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := OwnerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   OwnerSubject,
			Issuer:    ownerIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func OwnerClaimsFromToken(tokenStr string, secret []byte) (*OwnerClaims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}
	var claims OwnerClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	}, jwt.WithIssuer(ownerIssuer), jwt.WithSubject(OwnerSubject))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
