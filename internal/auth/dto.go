// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package auth

import (
	"fmt"
	"log/slog"
	"time"
)

// SecretMarker replaces secret values wherever a request is printed or logged.
const SecretMarker = "<!SECRET_REDACTED!>"

// Messages returned in ChangePasswordResponse.
const (
	MsgPasswordChanged     = "Password changed successfully."
	MsgUserNotFound        = "User not found."
	MsgInvalidRecoveryCode = "Invalid password recovery code."
)

// RegisterRequest carries the fields needed to create an account.
type RegisterRequest struct {
	Email     string
	Password  string
	Name      string
	BirthYear int
	Gender    string
}

// String implements fmt.Stringer without the password.
func (r RegisterRequest) String() string {
	return fmt.Sprintf("RegisterRequest{Email:%s Password:%s Name:%s BirthYear:%d Gender:%s}",
		r.Email, SecretMarker, r.Name, r.BirthYear, r.Gender)
}

// LogValue implements slog.LogValuer without the password.
func (r RegisterRequest) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("email", r.Email),
		slog.String("name", r.Name),
		slog.Int("birth_year", r.BirthYear),
		slog.String("gender", r.Gender),
	)
}

// RegisterResponse is the sanitized summary of a new account.
type RegisterResponse struct {
	Name  string
	Email string
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string
	Password string
}

// String implements fmt.Stringer without the password.
func (r LoginRequest) String() string {
	return fmt.Sprintf("LoginRequest{Email:%s Password:%s}", r.Email, SecretMarker)
}

// LogValue implements slog.LogValuer without the password.
func (r LoginRequest) LogValue() slog.Value {
	return slog.GroupValue(slog.String("email", r.Email))
}

// LoginResponse holds the session token minted on login.
type LoginResponse struct {
	Token     string
	ExpiresAt time.Time
}

// RecoveryRequest asks for a recovery code to be sent to Email.
type RecoveryRequest struct {
	Email string
}

// ChangePasswordRequest carries a recovery code and the replacement password.
type ChangePasswordRequest struct {
	Email        string
	NewPassword  string
	RecoveryCode string
}

// String implements fmt.Stringer without the password or code.
func (r ChangePasswordRequest) String() string {
	return fmt.Sprintf("ChangePasswordRequest{Email:%s NewPassword:%s RecoveryCode:%s}",
		r.Email, SecretMarker, SecretMarker)
}

// LogValue implements slog.LogValuer without the password or code.
func (r ChangePasswordRequest) LogValue() slog.Value {
	return slog.GroupValue(slog.String("email", r.Email))
}

// ChangePasswordResponse reports the outcome of a password change. A failed
// change is a normal result, described by Message.
type ChangePasswordResponse struct {
	Success bool
	Message string
}
