// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package auth_test

import (
	"bytes"
	"encoding/hex"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymtracker/gymtracker/internal/auth"
)

func TestGenerateRecoveryCode(t *testing.T) {
	t.Run("generates hex code and sha256 hash", func(t *testing.T) {
		code, hash, err := auth.GenerateRecoveryCode()
		require.NoError(t, err)
		assert.Len(t, code, 64)
		_, err = hex.DecodeString(code)
		require.NoError(t, err)
		assert.Len(t, hash, 32)
	})

	t.Run("codes are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for range 50 {
			code, _, err := auth.GenerateRecoveryCode()
			require.NoError(t, err)
			assert.False(t, seen[code], "duplicate recovery code")
			seen[code] = true
		}
	})
}

func TestVerifyRecoveryCode(t *testing.T) {
	code, hash, err := auth.GenerateRecoveryCode()
	require.NoError(t, err)

	assert.True(t, auth.VerifyRecoveryCode(code, hash))
	assert.False(t, auth.VerifyRecoveryCode(code+"0", hash))
	assert.False(t, auth.VerifyRecoveryCode("", hash))
	assert.False(t, auth.VerifyRecoveryCode(code, nil))
	assert.False(t, auth.VerifyRecoveryCode(code, hash[:16]))
}

func TestRecoveryMessage_LogValueHidesCode(t *testing.T) {
	msg := auth.RecoveryMessage{
		Email:     "a@x.com",
		Code:      "deadbeefcafe",
		ExpiresAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("sent", "recovery", msg)

	assert.Contains(t, buf.String(), "a@x.com")
	assert.NotContains(t, buf.String(), "deadbeefcafe")
}
