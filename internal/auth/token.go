// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	DefaultTokenTTL    = 24 * time.Hour
	DefaultTokenIssuer = "gymtracker"
	MinTokenSecretLen  = 32
)

// SessionToken is a signed, self-contained credential handed to a client
// after a successful login.
type SessionToken struct {
	Value     string
	ExpiresAt time.Time
}

// Claims is the payload carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email"`
}

// TokenIssuer mints and checks session tokens.
type TokenIssuer interface {
	Issue(user *User) (SessionToken, error)
	Parse(token string) (*Claims, error)
}

// JWTIssuer implements TokenIssuer with HS256-signed JWTs.
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// JWTIssuerOption configures a JWTIssuer.
type JWTIssuerOption func(*JWTIssuer)

// WithTokenClock overrides the clock used for iat, exp and validation.
func WithTokenClock(now func() time.Time) JWTIssuerOption {
	return func(i *JWTIssuer) {
		i.now = now
	}
}

// NewJWTIssuer creates a JWTIssuer. An empty issuer or non-positive ttl uses
// the defaults.
func NewJWTIssuer(secret []byte, issuer string, ttl time.Duration, opts ...JWTIssuerOption) (*JWTIssuer, error) {
	if len(secret) < MinTokenSecretLen {
		return nil, oops.Code("TOKEN_SECRET_INVALID").
			With("min_length", MinTokenSecretLen).
			Errorf("token secret must be at least %d bytes", MinTokenSecretLen)
	}
	if issuer == "" {
		issuer = DefaultTokenIssuer
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	key := make([]byte, len(secret))
	copy(key, secret)

	i := &JWTIssuer{
		secret: key,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs a token for user.
func (i *JWTIssuer) Issue(user *User) (SessionToken, error) {
	if user == nil {
		return SessionToken{}, oops.Code("TOKEN_ISSUE_FAILED").Errorf("user is required")
	}
	now := i.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: user.ID.String(),
		Email:  user.Email,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return SessionToken{}, oops.Code("TOKEN_ISSUE_FAILED").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	return SessionToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Parse validates the signature, algorithm, issuer and expiry of token.
func (i *JWTIssuer) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, InvalidToken(nil)
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, InvalidToken(err)
	}
	if !parsed.Valid {
		return nil, InvalidToken(nil)
	}
	if _, err := ulid.Parse(claims.UserID); err != nil || claims.Subject != claims.UserID {
		return nil, InvalidToken(nil)
	}
	return claims, nil
}

// Compile-time interface check.
var _ TokenIssuer = (*JWTIssuer)(nil)
