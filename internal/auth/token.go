// Package auth implements the stateless bearer-token service. Tokens are
// HS256-signed JWTs carrying the username as subject and a fixed expiry;
// nothing is persisted, so validation is a pure function of the secret key
// and the clock.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Validate for any token that cannot be
// trusted: bad signature, malformed payload, unexpected algorithm, or an
// expiry in the past. Callers translate it into a 401.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenService issues and validates signed access tokens.
//
// The zero value is not usable; construct with NewTokenService. The service
// is stateless and safe for concurrent use.
type TokenService struct {
	secret []byte
	ttl    time.Duration

	// now is a clock seam for tests.
	now func() time.Time
}

// NewTokenService builds a TokenService signing with secret and issuing
// tokens valid for ttl. A ttl <= 0 defaults to 24 hours.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue produces a signed token whose subject claim is username and whose
// expiry is issue-time + TTL.
func (s *TokenService) Issue(username string) (string, error) {
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// Validate parses and verifies a token string and returns the username it was
// issued to. It fails with ErrInvalidToken when the signature does not match,
// the token is malformed, the signing method is not HMAC, or the token has
// expired. The underlying parse error is wrapped for logging; callers should
// match with errors.Is(err, ErrInvalidToken).
func (s *TokenService) Validate(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
