// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// Recovery code configuration.
const (
	RecoveryCodeBytes      = 32               // 32 bytes = 64 hex chars
	DefaultRecoveryCodeTTL = 15 * time.Minute // validity window for an issued code
)

// RecoveryMessage is what gets delivered to the user out-of-band.
type RecoveryMessage struct {
	Email     string
	Name      string
	Code      string
	ExpiresAt time.Time
}

// LogValue hides the code from structured logs.
func (m RecoveryMessage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("email", m.Email),
		slog.Time("expires_at", m.ExpiresAt),
	)
}

// RecoveryCodeSender delivers recovery codes to users.
type RecoveryCodeSender interface {
	SendRecoveryCode(ctx context.Context, msg RecoveryMessage) error
}

// GenerateRecoveryCode creates a secure random code and its hash.
// The plaintext goes to the user; only the hash is stored.
func GenerateRecoveryCode() (code string, hash []byte, err error) {
	raw := make([]byte, RecoveryCodeBytes)
	if _, err = rand.Read(raw); err != nil {
		return "", nil, oops.Code("RECOVERY_CODE_GENERATE_FAILED").Wrap(err)
	}

	code = hex.EncodeToString(raw)
	return code, hashRecoveryCode(code), nil
}

// VerifyRecoveryCode checks if the plaintext code matches the stored hash.
// Uses constant-time comparison to prevent timing attacks.
func VerifyRecoveryCode(code string, hash []byte) bool {
	if code == "" || len(hash) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(hashRecoveryCode(code), hash) == 1
}

func hashRecoveryCode(code string) []byte {
	h := sha256.Sum256([]byte(code))
	return h[:]
}
