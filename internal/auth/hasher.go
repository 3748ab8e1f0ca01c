// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	DefaultArgon2Time    = 1         // iterations
	DefaultArgon2Memory  = 64 * 1024 // 64 MB, in KiB
	DefaultArgon2Threads = 4         // parallelism

	argon2SaltLen = 16 // salt length in bytes
	argon2KeyLen  = 32 // output length in bytes

	// Upper bounds accepted when decoding a stored hash.
	maxArgon2Time   = 64
	maxArgon2Memory = 4 * 1024 * 1024 // 4 GB, in KiB
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
// Callers validate input first, so this signals a programming mistake.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher derives and checks password hashes.
type PasswordHasher interface {
	// Hash produces a hash of the password with a freshly generated salt.
	Hash(password string) (hash, salt []byte, err error)

	// Verify reports whether password matches hash and salt.
	// Malformed stored values never match.
	Verify(password string, hash, salt []byte) bool
}

// Argon2Params tunes the argon2id key derivation.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultArgon2Params returns the OWASP-recommended parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:    DefaultArgon2Time,
		Memory:  DefaultArgon2Memory,
		Threads: DefaultArgon2Threads,
	}
}

// deriveKey is the argon2id key derivation. Tests count calls through it.
var deriveKey = argon2.IDKey

// fallbackSalt is derived against when a stored record cannot be used.
var fallbackSalt = make([]byte, argon2SaltLen)

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct {
	params Argon2Params
}

// NewArgon2idHasher creates a new Argon2idHasher. Zero fields in params
// fall back to the defaults.
func NewArgon2idHasher(params Argon2Params) *Argon2idHasher {
	defaults := DefaultArgon2Params()
	if params.Time == 0 {
		params.Time = defaults.Time
	}
	if params.Memory == 0 {
		params.Memory = defaults.Memory
	}
	if params.Threads == 0 {
		params.Threads = defaults.Threads
	}
	return &Argon2idHasher{params: params}
}

// Hash produces an argon2id hash of the password.
// The hash is encoded as $argon2id$v=19$m=65536,t=1,p=4$<key> so the
// parameters travel with it; the salt is returned as raw bytes.
func (h *Argon2idHasher) Hash(password string) (hash, salt []byte, err error) {
	if password == "" {
		return nil, nil, ErrEmptyPassword
	}
	start := time.Now()
	defer func() { observeHash(hashOpDerive, time.Since(start)) }()

	salt = make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := deriveKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, argon2KeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(key),
	)
	return []byte(encoded), salt, nil
}

// Verify checks if the password matches the hash and salt.
func (h *Argon2idHasher) Verify(password string, hash, salt []byte) bool {
	start := time.Now()
	defer func() { observeHash(hashOpVerify, time.Since(start)) }()

	params, expected, ok := decodeArgon2Hash(string(hash))
	if !ok || len(salt) == 0 {
		// A corrupt record costs one derivation, like an unknown email.
		deriveKey([]byte(password), fallbackSalt, h.params.Time, h.params.Memory, h.params.Threads, argon2KeyLen)
		return false
	}

	computed := deriveKey([]byte(password), salt, params.Time, params.Memory, params.Threads, uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// decodeArgon2Hash parses an encoded hash produced by Hash.
func decodeArgon2Hash(encoded string) (Argon2Params, []byte, bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2Params{}, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Argon2Params{}, nil, false
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return Argon2Params{}, nil, false
	}
	// Validate threads fits in uint8 to prevent silent truncation
	if threads == 0 || threads > 255 {
		return Argon2Params{}, nil, false
	}
	if iterations == 0 || iterations > maxArgon2Time || memory == 0 || memory > maxArgon2Memory {
		return Argon2Params{}, nil, false
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2Params{}, nil, false
	}
	// Validate key length to prevent integer overflow in uint32 conversion
	if len(key) == 0 || len(key) > 1<<10 {
		return Argon2Params{}, nil, false
	}

	return Argon2Params{Time: iterations, Memory: memory, Threads: uint8(threads)}, key, true
}

// comparisonCredentials returns a hash and salt for a password nobody knows.
// Login verifies against it when the email is unknown so both paths cost the same.
func comparisonCredentials(hasher PasswordHasher) (hash, salt []byte, err error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, nil, oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}
	return hasher.Hash(base64.RawStdEncoding.EncodeToString(secret))
}
