// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countDerivations replaces deriveKey for the duration of the test.
func countDerivations(t *testing.T) *int {
	t.Helper()
	calls := 0
	orig := deriveKey
	deriveKey = func(password, salt []byte, time, memory uint32, threads uint8, keyLen uint32) []byte {
		calls++
		return orig(password, salt, time, memory, threads, keyLen)
	}
	t.Cleanup(func() { deriveKey = orig })
	return &calls
}

func TestArgon2idHasher_VerifyCostsOneDerivation(t *testing.T) {
	hasher := NewArgon2idHasher(Argon2Params{Time: 1, Memory: 64, Threads: 1})
	hash, salt, err := hasher.Hash("secret1")
	require.NoError(t, err)

	calls := countDerivations(t)
	tests := []struct {
		name string
		hash []byte
		salt []byte
		want bool
	}{
		{"matching password", hash, salt, true},
		{"corrupt hash", []byte("$argon2id$v=19$garbage"), salt, false},
		{"missing salt", hash, nil, false},
		{"empty record", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*calls = 0
			assert.Equal(t, tt.want, hasher.Verify("secret1", tt.hash, tt.salt))
			assert.Equal(t, 1, *calls)
		})
	}
}
