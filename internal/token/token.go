// Package token implements the signed session token carried by clients
// between requests. Tokens are stateless; the only server-side state is the
// signing secret injected at construction.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL bounds the lifetime of issued tokens.
const DefaultTTL = 24 * time.Hour

// ErrInvalidToken is returned when a token fails signature, format, or
// expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// Codec issues and verifies signed session tokens embedding a username.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec constructs a Codec with the given HMAC secret. A non-positive ttl
// falls back to DefaultTTL.
func NewCodec(secret string, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// Issue produces a signed token whose subject is the given username.
func (c *Codec) Issue(username string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(c.secret)
}

// Verify validates the token and returns the embedded username.
func (c *Codec) Verify(tokenString string) (string, error) {
	claims := jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalidToken
	}
	username := strings.TrimSpace(claims.Subject)
	if username == "" {
		return "", ErrInvalidToken
	}
	return username, nil
}
