// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymtracker/gymtracker/internal/config"
	"github.com/gymtracker/gymtracker/pkg/errutil"
)

func TestRun_WritesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas", "config.schema.json")
	var out bytes.Buffer

	require.NoError(t, run([]string{"--out", path}, &out))
	assert.Contains(t, out.String(), "Generated")

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := config.GenerateSchema()
	require.NoError(t, err)
	assert.Equal(t, want, written)
}

func TestRun_Check(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.schema.json")
	var out bytes.Buffer

	err := run([]string{"--check", "-o", path}, &out)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "SCHEMA_READ_FAILED")

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	err = run([]string{"--check", "-o", path}, &out)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "SCHEMA_STALE")

	require.NoError(t, run([]string{"-o", path}, &out))
	out.Reset()
	require.NoError(t, run([]string{"--check", "-o", path}, &out))
	assert.Contains(t, out.String(), "up to date")
}

func TestRun_BadFlag(t *testing.T) {
	err := run([]string{"--nope"}, &bytes.Buffer{})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "ARGS_INVALID")
}
