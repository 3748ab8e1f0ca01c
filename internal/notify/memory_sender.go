// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package notify

import (
	"context"
	"slices"
	"sync"

	"github.com/gymtracker/gymtracker/internal/auth"
)

// MemorySender keeps delivered recovery messages in memory.
type MemorySender struct {
	mu       sync.Mutex
	messages []auth.RecoveryMessage
}

// NewMemorySender creates an empty MemorySender.
func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

// SendRecoveryCode records msg.
func (s *MemorySender) SendRecoveryCode(_ context.Context, msg auth.RecoveryMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

// Messages returns a copy of every recorded message, oldest first.
func (s *MemorySender) Messages() []auth.RecoveryMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Last returns the most recent message sent to email.
func (s *MemorySender) Last(email string) (auth.RecoveryMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Email == email {
			return s.messages[i], true
		}
	}
	return auth.RecoveryMessage{}, false
}
