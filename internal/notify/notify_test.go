// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymtracker/gymtracker/internal/auth"
	"github.com/gymtracker/gymtracker/internal/logging"
	"github.com/gymtracker/gymtracker/internal/notify"
	"github.com/gymtracker/gymtracker/pkg/errutil"
)

var expiresAt = time.Date(2026, 3, 14, 12, 15, 0, 0, time.UTC)

func message(email string) auth.RecoveryMessage {
	return auth.RecoveryMessage{Email: email, Name: "Ana", Code: "c0ffee", ExpiresAt: expiresAt}
}

func TestLogSender_SendRecoveryCode(t *testing.T) {
	var buf bytes.Buffer
	sender := notify.NewLogSender(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, sender.SendRecoveryCode(context.Background(), message("a@x.com")))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "recovery code", record["msg"])
	assert.Equal(t, "a@x.com", record["recipient"])
	assert.Equal(t, "c0ffee", record["delivery_code"])
	assert.Equal(t, "Ana", record["name"])
	assert.Contains(t, record, "expires_at")
}

func TestLogSender_CodeSurvivesRedaction(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("gymtracker", "test", logging.Options{Writer: &buf})

	require.NoError(t, notify.NewLogSender(logger).SendRecoveryCode(context.Background(), message("a@x.com")))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "c0ffee", record["delivery_code"])
	assert.NotContains(t, buf.String(), logging.Redacted)
}

func TestLogSender_RequiresRecipient(t *testing.T) {
	sender := notify.NewLogSender(nil)

	err := sender.SendRecoveryCode(context.Background(), message(""))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "RECOVERY_RECIPIENT_MISSING")
}

func TestMemorySender(t *testing.T) {
	ctx := context.Background()
	sender := notify.NewMemorySender()

	_, ok := sender.Last("a@x.com")
	assert.False(t, ok)

	first := message("a@x.com")
	second := message("a@x.com")
	second.Code = "beef"
	require.NoError(t, sender.SendRecoveryCode(ctx, first))
	require.NoError(t, sender.SendRecoveryCode(ctx, message("b@x.com")))
	require.NoError(t, sender.SendRecoveryCode(ctx, second))

	last, ok := sender.Last("a@x.com")
	require.True(t, ok)
	assert.Equal(t, "beef", last.Code)

	msgs := sender.Messages()
	require.Len(t, msgs, 3)
	msgs[0].Code = "mutated"
	assert.Equal(t, "c0ffee", sender.Messages()[0].Code)
}

func TestMemorySender_ConcurrentSends(t *testing.T) {
	sender := notify.NewMemorySender()
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sender.SendRecoveryCode(context.Background(), message("a@x.com"))
		}()
	}
	wg.Wait()
	assert.Len(t, sender.Messages(), 10)
}
