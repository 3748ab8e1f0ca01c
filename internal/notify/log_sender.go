// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

// Package notify delivers recovery codes to users.
package notify

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/gymtracker/gymtracker/internal/auth"
)

// LogSender delivers recovery codes by logging them. It stands in for an
// email provider in development and on the command line, and writes the
// code in clear text.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// SendRecoveryCode logs the recovery message.
func (s *LogSender) SendRecoveryCode(ctx context.Context, msg auth.RecoveryMessage) error {
	if msg.Email == "" {
		return oops.Code("RECOVERY_RECIPIENT_MISSING").Errorf("recovery message has no recipient")
	}
	s.logger.InfoContext(ctx, "recovery code",
		"recipient", msg.Email,
		"name", msg.Name,
		"delivery_code", msg.Code,
		"expires_at", msg.ExpiresAt,
	)
	return nil
}
