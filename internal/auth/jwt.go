package auth

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminSubject is the "sub" claim carried by admin session tokens.
const AdminSubject = "admin"

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrRevokedToken = errors.New("session token was revoked")
	ErrWeakSecret   = errors.New("token secret must be at least 32 bytes")
)

type sessionClaims struct {
	// Generation must match the issuer's current generation.
	Generation uint64 `json:"gen"`
	jwt.RegisteredClaims
}

// Tokens issues and validates HS256 admin session tokens. Revoke ends every
// token issued so far; tokens from an earlier process are rejected too.
type Tokens struct {
	secret     []byte
	ttl        time.Duration
	now        func() time.Time
	generation atomic.Uint64
}

func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if len(secret) < 32 {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("auth: token ttl must be positive, got %s", ttl)
	}
	t := &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
	t.generation.Store(uint64(time.Now().UnixNano()))
	return t, nil
}

func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue signs a new admin token and returns it with its expiry.
func (t *Tokens) Issue() (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := sessionClaims{
		Generation: t.generation.Load(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   AdminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth.Issue: %w", err)
	}
	return signed, exp, nil
}

// Validate checks the signature, expiry, subject and generation of an admin
// token.
func (t *Tokens) Validate(token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(AdminSubject),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Generation != t.generation.Load() {
		return fmt.Errorf("%w: %w", ErrInvalidToken, ErrRevokedToken)
	}
	return nil
}

// Revoke invalidates every token issued before the call.
func (t *Tokens) Revoke() {
	t.generation.Add(1)
}
