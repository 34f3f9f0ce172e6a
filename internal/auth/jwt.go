// Package auth mints and parses the signed session tokens handed to
// callers. A token only names a session; the stored session record decides
// whether it is still valid.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/snipkeeper/internal/common"
	"github.com/dmitrijs2005/snipkeeper/internal/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer      = "snipkeeper"
	signingInfo = "snipkeeper session signing"
)

// Claims carries the standard claims only; ID holds the session id.
type Claims struct {
	jwt.RegisteredClaims
}

type Signer struct {
	key []byte
	now func() time.Time
}

// NewSigner derives the HS256 key from the key-file secret. now is the
// clock used for expiry checks.
func NewSigner(secret []byte, now func() time.Time) (*Signer, error) {
	key, err := cryptox.DeriveSubkey(secret, signingInfo)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Signer{key: key, now: now}, nil
}

// Generate signs a token for session id valid from issued until expires.
func (s *Signer) Generate(id string, issued, expires time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	tokenString, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Parse verifies tokenString and returns its session id. An expired token
// still yields its id along with common.ErrSessionExpired; anything else
// that fails is common.ErrUnknownSession.
func (s *Signer) Parse(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return claims.ID, fmt.Errorf("%w: %w", common.ErrSessionExpired, err)
	case err != nil:
		return "", fmt.Errorf("%w: %w", common.ErrUnknownSession, err)
	case !token.Valid || claims.ID == "":
		return "", common.ErrUnknownSession
	}
	return claims.ID, nil
}
