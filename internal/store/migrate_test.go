// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package store

import (
	"errors"
	"regexp"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymtracker/gymtracker/pkg/errutil"
)

// mockMigrate implements migrateIface for testing.
type mockMigrate struct {
	upErr          error
	downErr        error
	versionVal     uint
	versionErr     error
	dirty          bool
	forceErr       error
	forced         int
	closeSourceErr error
	closeDbErr     error
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Down() error                  { return m.downErr }
func (m *mockMigrate) Version() (uint, bool, error) { return m.versionVal, m.dirty, m.versionErr }
func (m *mockMigrate) Close() (error, error)        { return m.closeSourceErr, m.closeDbErr }

func (m *mockMigrate) Force(v int) error {
	m.forced = v
	return m.forceErr
}

func TestNewMigrator_InvalidURL(t *testing.T) {
	_, err := NewMigrator("badscheme://localhost:5432/testdb")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}

func TestMigrateURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/gym":   "pgx5://u:p@db:5432/gym",
		"postgresql://u:p@db:5432/gym": "pgx5://u:p@db:5432/gym",
		"pgx5://u:p@db:5432/gym":       "pgx5://u:p@db:5432/gym",
	}
	for in, want := range tests {
		assert.Equal(t, want, migrateURL(in), in)
	}
}

func TestMigrator_Errors(t *testing.T) {
	boom := errors.New("database locked")
	tests := []struct {
		name string
		mock *mockMigrate
		call func(*Migrator) error
		code string
	}{
		{"up", &mockMigrate{upErr: boom}, (*Migrator).Up, "MIGRATION_UP_FAILED"},
		{"down", &mockMigrate{downErr: boom}, (*Migrator).Down, "MIGRATION_DOWN_FAILED"},
		{"force", &mockMigrate{forceErr: boom}, func(m *Migrator) error { return m.Force(1) }, "MIGRATION_FORCE_FAILED"},
		{"negative force", &mockMigrate{}, func(m *Migrator) error { return m.Force(-1) }, "INVALID_VERSION"},
		{"version", &mockMigrate{versionErr: boom}, func(m *Migrator) error {
			_, _, err := m.Version()
			return err
		}, "MIGRATION_VERSION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(&Migrator{m: tt.mock})
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.code)
		})
	}
}

func TestMigrator_NoChangeIsSuccess(t *testing.T) {
	m := &Migrator{m: &mockMigrate{upErr: migrate.ErrNoChange, downErr: migrate.ErrNoChange}}
	require.NoError(t, m.Up())
	require.NoError(t, m.Down())
}

func TestMigrator_Force(t *testing.T) {
	mock := &mockMigrate{}
	require.NoError(t, (&Migrator{m: mock}).Force(2))
	assert.Equal(t, 2, mock.forced)
}

func TestMigrator_Version(t *testing.T) {
	version, dirty, err := (&Migrator{m: &mockMigrate{versionVal: 2, dirty: true}}).Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.True(t, dirty)

	version, dirty, err = (&Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}).Version()
	require.NoError(t, err, "ErrNilVersion should report version 0")
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)
}

func TestMigrator_Status(t *testing.T) {
	t.Run("fresh database", func(t *testing.T) {
		status, err := (&Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}).Status()
		require.NoError(t, err)
		assert.Equal(t, uint(0), status.Version)
		assert.Empty(t, status.Name)
		assert.Equal(t, []uint{1, 2}, status.Pending)
	})

	t.Run("partially migrated", func(t *testing.T) {
		status, err := (&Migrator{m: &mockMigrate{versionVal: 1}}).Status()
		require.NoError(t, err)
		assert.Equal(t, "000001_create_users", status.Name)
		assert.Equal(t, []uint{2}, status.Pending)
	})

	t.Run("up to date", func(t *testing.T) {
		status, err := (&Migrator{m: &mockMigrate{versionVal: 2}}).Status()
		require.NoError(t, err)
		assert.Equal(t, "000002_add_recovery_code", status.Name)
		assert.Empty(t, status.Pending)
	})

	t.Run("version failure", func(t *testing.T) {
		_, err := (&Migrator{m: &mockMigrate{versionErr: errors.New("connection lost")}}).Status()
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "operation", "migration status")
	})
}

func TestMigrator_Close(t *testing.T) {
	require.NoError(t, (&Migrator{m: &mockMigrate{}}).Close())

	tests := []struct {
		name      string
		mock      *mockMigrate
		component string
	}{
		{"source", &mockMigrate{closeSourceErr: errors.New("source close failed")}, "source"},
		{"database", &mockMigrate{closeDbErr: errors.New("db close failed")}, "database"},
		{"both", &mockMigrate{
			closeSourceErr: errors.New("source close failed"),
			closeDbErr:     errors.New("db close failed"),
		}, "both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Migrator{m: tt.mock}).Close()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
			errutil.AssertErrorContext(t, err, "component", tt.component)
		})
	}
}

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^\d{6}_\w+\.(up|down)\.sql$`)
	names := make(map[string]bool, len(entries))
	for _, entry := range entries {
		names[entry.Name()] = true
		assert.Regexp(t, pattern, entry.Name())
	}

	versions, err := MigrationVersions()
	require.NoError(t, err)
	for _, v := range versions {
		name, err := MigrationName(v)
		require.NoError(t, err)
		assert.True(t, names[name+".up.sql"], "missing up migration for %d", v)
		assert.True(t, names[name+".down.sql"], "missing down migration for %d", v)
	}
}

func TestMigrationName_Unknown(t *testing.T) {
	name, err := MigrationName(999)
	require.NoError(t, err)
	assert.Empty(t, name)
}
