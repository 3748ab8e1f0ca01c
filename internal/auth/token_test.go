// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymtracker/gymtracker/internal/auth"
	"github.com/gymtracker/gymtracker/pkg/errutil"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func clockAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// tamper flips one character in the middle of the signature segment.
func tamper(token string) string {
	b := []byte(token)
	i := len(b) - 10
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

func TestNewJWTIssuer(t *testing.T) {
	t.Run("rejects short secret", func(t *testing.T) {
		issuer, err := auth.NewJWTIssuer([]byte("short"), "", 0)
		require.Error(t, err)
		assert.Nil(t, issuer)
		errutil.AssertErrorCode(t, err, "TOKEN_SECRET_INVALID")
	})

	t.Run("applies defaults", func(t *testing.T) {
		issuer, err := auth.NewJWTIssuer(testSecret, "", 0, auth.WithTokenClock(clockAt(fixedNow)))
		require.NoError(t, err)

		user := &auth.User{ID: ulid.Make(), Email: "a@x.com"}
		token, err := issuer.Issue(user)
		require.NoError(t, err)
		assert.Equal(t, fixedNow.Add(auth.DefaultTokenTTL), token.ExpiresAt)

		claims, err := issuer.Parse(token.Value)
		require.NoError(t, err)
		assert.Equal(t, auth.DefaultTokenIssuer, claims.Issuer)
	})
}

func TestJWTIssuer_IssueAndParse(t *testing.T) {
	issuer, err := auth.NewJWTIssuer(testSecret, "gymtracker-test", time.Hour, auth.WithTokenClock(clockAt(fixedNow)))
	require.NoError(t, err)
	user := &auth.User{ID: ulid.Make(), Email: "a@x.com"}

	token, err := issuer.Issue(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token.Value)
	assert.Equal(t, 3, len(strings.Split(token.Value, ".")))
	assert.Equal(t, fixedNow.Add(time.Hour), token.ExpiresAt)

	claims, err := issuer.Parse(token.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "gymtracker-test", claims.Issuer)
}

func TestJWTIssuer_IssueNilUser(t *testing.T) {
	issuer, err := auth.NewJWTIssuer(testSecret, "", time.Hour)
	require.NoError(t, err)

	_, err = issuer.Issue(nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "TOKEN_ISSUE_FAILED")
}

func TestJWTIssuer_ParseRejects(t *testing.T) {
	issuer, err := auth.NewJWTIssuer(testSecret, "gymtracker", time.Hour, auth.WithTokenClock(clockAt(fixedNow)))
	require.NoError(t, err)
	user := &auth.User{ID: ulid.Make(), Email: "a@x.com"}
	valid, err := issuer.Issue(user)
	require.NoError(t, err)

	otherSecret, err := auth.NewJWTIssuer([]byte("ffffffffffffffffffffffffffffffff"), "gymtracker", time.Hour,
		auth.WithTokenClock(clockAt(fixedNow)))
	require.NoError(t, err)
	foreign, err := otherSecret.Issue(user)
	require.NoError(t, err)

	otherIssuer, err := auth.NewJWTIssuer(testSecret, "someone-else", time.Hour, auth.WithTokenClock(clockAt(fixedNow)))
	require.NoError(t, err)
	wrongIss, err := otherIssuer.Issue(user)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "gymtracker",
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour)),
		},
		UserID: user.ID.String(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "gymtracker", Subject: user.ID.String()},
		UserID:           user.ID.String(),
	}).SignedString(testSecret)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "gymtracker",
			Subject:   "not-a-ulid",
			ExpiresAt: jwt.NewNumericDate(fixedNow.Add(time.Hour)),
		},
		UserID: "not-a-ulid",
	}).SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage", "not.a.jwt"},
		{"tampered signature", tamper(valid.Value)},
		{"other secret", foreign.Value},
		{"other issuer", wrongIss.Value},
		{"other algorithm", hs512},
		{"missing expiry", noExpiry},
		{"invalid user id", badSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := issuer.Parse(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
			errutil.AssertErrorCode(t, err, auth.CodeTokenInvalid)
		})
	}

	t.Run("expired token", func(t *testing.T) {
		later, err := auth.NewJWTIssuer(testSecret, "gymtracker", time.Hour,
			auth.WithTokenClock(clockAt(fixedNow.Add(2*time.Hour))))
		require.NoError(t, err)

		_, err = later.Parse(valid.Value)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
