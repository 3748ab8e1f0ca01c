// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// Sentinel errors classify failures for errors.Is checks at the service boundary.
var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is wrapped by every input validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is the single error returned for any failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when a session token cannot be trusted.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrPersistence is returned when the credential store fails.
	ErrPersistence = errors.New("credential store unavailable")
)

// Error codes for credential failures.
const (
	CodeInvalidEmail       = "USER_INVALID_EMAIL"
	CodeInvalidPassword    = "USER_INVALID_PASSWORD"
	CodeInvalidName        = "USER_INVALID_NAME"
	CodeInvalidBirthYear   = "USER_INVALID_BIRTH_YEAR"
	CodeInvalidGender      = "USER_INVALID_GENDER"
	CodeEmailTaken         = "USER_EMAIL_TAKEN"
	CodeNotFound           = "USER_NOT_FOUND"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeTokenInvalid       = "AUTH_TOKEN_INVALID"
	CodePersistence        = "CREDENTIAL_PERSISTENCE_FAILED"
)

func validationError(code, msg string, kv ...any) error {
	builder := oops.Code(code)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			builder = builder.With(key, kv[i+1])
		}
	}
	return builder.Wrapf(ErrValidation, "%s", msg)
}

// InvalidCredentials returns the uniform login failure. Every rejected login
// returns an error with the same code and message.
func InvalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
}

// InvalidToken returns the error for a rejected session token.
func InvalidToken(cause error) error {
	if cause == nil {
		return oops.Code(CodeTokenInvalid).Wrap(ErrInvalidToken)
	}
	return oops.Code(CodeTokenInvalid).With("cause", cause.Error()).Wrap(ErrInvalidToken)
}

// EmailTaken returns the error for a duplicate registration.
func EmailTaken(email string) error {
	return oops.Code(CodeEmailTaken).With("email", email).Wrap(ErrEmailTaken)
}

// PersistenceFailure hides a store error behind ErrPersistence. The cause is
// not part of the returned error and must be logged by the caller.
func PersistenceFailure(operation string) error {
	return oops.Code(CodePersistence).With("operation", operation).Wrap(ErrPersistence)
}
