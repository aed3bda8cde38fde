package tokens

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	LongLived  = 30 * 24 * time.Hour
	ShortLived = time.Hour
)

var (
	ErrMissingSecret = errors.New("token secret is not configured")
	ErrMissingToken  = errors.New("token is empty")
	ErrNoSubject     = errors.New("token has no subject")
)

type Claims struct {
	jwt.RegisteredClaims
}

// Verification is the outcome of checking a bearer credential. A failed
// verification is a value, not an error: callers treat it as "no identity".
type Verification struct {
	Claims *Claims
	Err    error
}

func (v Verification) OK() bool {
	return v.Err == nil && v.Claims != nil
}

func (v Verification) Subject() string {
	if !v.OK() {
		return ""
	}
	return v.Claims.Subject
}

type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret, now: time.Now}
}

// WithClock is used by tests to pin the verification and issuing time.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	return &Codec{secret: c.secret, now: now}
}

func (c *Codec) Sign(userID string, ttl time.Duration) (string, time.Time, error) {
	if len(c.secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}
	if userID == "" {
		return "", time.Time{}, ErrNoSubject
	}

	issued := c.now().UTC()
	exp := issued.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (c *Codec) Verify(raw string) Verification {
	if len(c.secret) == 0 {
		return Verification{Err: ErrMissingSecret}
	}
	if raw == "" {
		return Verification{Err: ErrMissingToken}
	}

	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Verification{Err: err}
	}
	if !tkn.Valid {
		return Verification{Err: jwt.ErrTokenInvalidClaims}
	}
	if claims.Subject == "" {
		return Verification{Err: ErrNoSubject}
	}
	return Verification{Claims: &claims}
}

// FromAuthorizationHeader extracts the credential of a "Bearer <token>" header.
func FromAuthorizationHeader(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
