// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/gymtracker/gymtracker/internal/auth"
	"github.com/gymtracker/gymtracker/internal/auth/postgres"
	"github.com/gymtracker/gymtracker/internal/config"
	"github.com/gymtracker/gymtracker/internal/notify"
	"github.com/gymtracker/gymtracker/internal/store"
)

// Deps contains injectable dependencies for the subcommands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// MigratorFactory creates a schema migrator from a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ServiceFactory builds a credential service from the loaded config.
	// The returned func releases its resources.
	// Default: newCredentialService
	ServiceFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (CredentialService, func(), error)
}

// Migrator wraps the methods used by the migrate command from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// CredentialService wraps the methods used by the user command from
// auth.CredentialService.
type CredentialService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (auth.RegisterResponse, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResponse, error)
	RequestPasswordRecovery(ctx context.Context, req auth.RecoveryRequest) error
	ChangePassword(ctx context.Context, req auth.ChangePasswordRequest) (auth.ChangePasswordResponse, error)
	Authenticate(ctx context.Context, token string) (*auth.User, error)
}

var (
	_ Migrator          = (*store.Migrator)(nil)
	_ CredentialService = (*auth.CredentialService)(nil)
)

func (d *Deps) migrator(databaseURL string) (Migrator, error) {
	if d.MigratorFactory != nil {
		return d.MigratorFactory(databaseURL)
	}
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (d *Deps) service(ctx context.Context, cfg *config.Config, logger *slog.Logger) (CredentialService, func(), error) {
	if d.ServiceFactory != nil {
		return d.ServiceFactory(ctx, cfg, logger)
	}
	return newCredentialService(ctx, cfg, logger)
}

// newCredentialService wires the PostgreSQL store, argon2id hasher, JWT
// issuer and log-based recovery delivery into a CredentialService.
func newCredentialService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (CredentialService, func(), error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, nil, err
	}
	if err := cfg.RequireTokenSecret(); err != nil {
		return nil, nil, err
	}

	tokens, err := auth.NewJWTIssuer([]byte(cfg.Token.Secret), cfg.Token.Issuer, cfg.Token.TTL)
	if err != nil {
		return nil, nil, oops.With("operation", "create token issuer").Wrap(err)
	}

	pool, err := store.Connect(ctx, cfg.Database.URL, cfg.Database.ConnectTimeout)
	if err != nil {
		return nil, nil, err
	}

	svc, err := auth.NewCredentialService(auth.ServiceDeps{
		Users:      postgres.NewUserRepository(pool),
		Transactor: postgres.NewTransactor(pool),
		Hasher:     auth.NewArgon2idHasher(cfg.Argon2Params()),
		Tokens:     tokens,
		Sender:     notify.NewLogSender(logger),
	},
		auth.WithLogger(logger),
		auth.WithRecoveryCodeTTL(cfg.Recovery.CodeTTL),
	)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return svc, pool.Close, nil
}
