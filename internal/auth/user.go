// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package auth

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Field constraints for user registration.
const (
	MaxPasswordBytes = 512
	MaxNameLength    = 100
	MaxEmailLength   = 254
	MinBirthYear     = 1900
)

// Gender is the self-reported gender of a user.
type Gender string

// Supported genders.
const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
	GenderUnspecified Gender = "unspecified"
)

// ParseGender normalizes a gender string. Empty input means unspecified.
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case "":
		return GenderUnspecified, nil
	case GenderMale, GenderFemale, GenderOther, GenderUnspecified:
		return g, nil
	default:
		return "", validationError(CodeInvalidGender, "gender must be male, female, other or unspecified", "gender", s)
	}
}

// User is the identity aggregate. It owns the password hash and salt and the
// pending recovery code, and is the only place they change.
type User struct {
	ID           ulid.ULID
	Email        string
	Name         string
	BirthYear    int
	Gender       Gender
	PasswordHash []byte
	PasswordSalt []byte

	// RecoveryCodeHash and RecoveryCodeExpiresAt are set together while a
	// recovery is pending.
	RecoveryCodeHash      []byte
	RecoveryCodeExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUserParams holds the plaintext inputs for NewUser.
type NewUserParams struct {
	Email     string
	Password  string
	Name      string
	BirthYear int
	Gender    string
}

// NewUser validates params, hashes the password and returns a new User.
// Validation happens before any hashing work.
func NewUser(params NewUserParams, hasher PasswordHasher, now time.Time) (*User, error) {
	email, err := NormalizeEmail(params.Email)
	if err != nil {
		return nil, err
	}
	if err := ValidatePassword(params.Password); err != nil {
		return nil, err
	}
	name, err := validateName(params.Name)
	if err != nil {
		return nil, err
	}
	if err := validateBirthYear(params.BirthYear, now); err != nil {
		return nil, err
	}
	gender, err := ParseGender(params.Gender)
	if err != nil {
		return nil, err
	}

	hash, salt, err := hasher.Hash(params.Password)
	if err != nil {
		return nil, oops.Code("USER_HASH_FAILED").Wrap(err)
	}

	now = now.UTC()
	return &User{
		ID:           ulid.Make(),
		Email:        email,
		Name:         name,
		BirthYear:    params.BirthYear,
		Gender:       gender,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// VerifyPassword reports whether password matches the stored credentials.
func (u *User) VerifyPassword(password string, hasher PasswordHasher) bool {
	return hasher.Verify(password, u.PasswordHash, u.PasswordSalt)
}

// HasPendingRecovery reports whether an unexpired recovery code exists.
func (u *User) HasPendingRecovery(now time.Time) bool {
	return len(u.RecoveryCodeHash) > 0 &&
		u.RecoveryCodeExpiresAt != nil &&
		now.Before(*u.RecoveryCodeExpiresAt)
}

// IssueRecoveryCode starts a recovery and returns the plaintext code.
// Any previously issued code stops working.
func (u *User) IssueRecoveryCode(now time.Time, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", oops.Code("RECOVERY_TTL_INVALID").With("ttl", ttl).Errorf("recovery code ttl must be positive")
	}
	code, hash, err := GenerateRecoveryCode()
	if err != nil {
		return "", err
	}
	expiresAt := now.UTC().Add(ttl)
	u.RecoveryCodeHash = hash
	u.RecoveryCodeExpiresAt = &expiresAt
	u.UpdatedAt = now.UTC()
	return code, nil
}

// ChangePassword replaces the password when code matches the pending recovery
// code. A wrong, missing or expired code returns false and leaves the user
// untouched. A new password that fails validation returns an error.
func (u *User) ChangePassword(newPassword, code string, hasher PasswordHasher, now time.Time) (bool, error) {
	if err := ValidatePassword(newPassword); err != nil {
		return false, err
	}
	if !u.HasPendingRecovery(now) {
		return false, nil
	}
	if !VerifyRecoveryCode(code, u.RecoveryCodeHash) {
		return false, nil
	}

	hash, salt, err := hasher.Hash(newPassword)
	if err != nil {
		return false, oops.Code("USER_HASH_FAILED").Wrap(err)
	}

	u.PasswordHash = hash
	u.PasswordSalt = salt
	u.RecoveryCodeHash = nil
	u.RecoveryCodeExpiresAt = nil
	u.UpdatedAt = now.UTC()
	return true, nil
}

// LogValue keeps credentials out of structured logs.
func (u *User) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", u.ID.String()),
		slog.String("email", u.Email),
	)
}

// NormalizeEmail trims and lower-cases an email after checking it is a bare
// RFC 5322 address. Display names and comments are rejected.
func NormalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", validationError(CodeInvalidEmail, "email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return "", validationError(CodeInvalidEmail, "email is too long", "max", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return "", validationError(CodeInvalidEmail, "email is malformed")
	}
	return strings.ToLower(email), nil
}

// ValidatePassword checks a plaintext password before it is hashed.
func ValidatePassword(password string) error {
	if password == "" {
		return validationError(CodeInvalidPassword, "password cannot be empty")
	}
	if len(password) > MaxPasswordBytes {
		return validationError(CodeInvalidPassword, "password is too long", "max_bytes", MaxPasswordBytes)
	}
	return nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", validationError(CodeInvalidName, "name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", validationError(CodeInvalidName, "name is too long", "max", MaxNameLength)
	}
	return name, nil
}

func validateBirthYear(year int, now time.Time) error {
	if year < MinBirthYear || year > now.Year() {
		return validationError(CodeInvalidBirthYear, "birth year is out of range",
			"birth_year", year, "min", MinBirthYear, "max", now.Year())
	}
	return nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user.
	// Returns an error wrapping ErrEmailTaken if the email is registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by normalized email.
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// LockByEmail retrieves a user by email and locks the row until the
	// surrounding transaction ends.
	LockByEmail(ctx context.Context, email string) (*User, error)

	// Update persists changes to an existing user.
	Update(ctx context.Context, user *User) error
}

// Transactor runs fn inside a single unit of work. Repository calls made with
// the context passed to fn share the transaction; it commits only if fn
// returns nil.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
