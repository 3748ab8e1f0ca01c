// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gymtracker/gymtracker/internal/auth"
)

const userColumns = `id, email, name, birth_year, gender,
		       password_hash, password_salt,
		       recovery_code_hash, recovery_code_expires_at,
		       created_at, updated_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
// Calls made with a context from Transactor.InTransaction run in that
// transaction.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) conn(ctx context.Context) querier {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return r.db
}

// Create stores a new user. A unique violation on the email index is
// reported as auth.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO users (
			id, email, name, birth_year, gender,
			password_hash, password_salt,
			recovery_code_hash, recovery_code_expires_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		user.ID.String(),
		user.Email,
		user.Name,
		user.BirthYear,
		string(user.Gender),
		user.PasswordHash,
		user.PasswordSalt,
		user.RecoveryCodeHash,
		user.RecoveryCodeExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return auth.EmailTaken(user.Email)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("id", user.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.User, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id.String())

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(auth.CodeNotFound).
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id.String()).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(auth.CodeNotFound).
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			With("email", email).
			Wrap(err)
	}
	return user, nil
}

// LockByEmail retrieves a user by email and holds its row lock until the
// surrounding transaction ends. Outside a transaction the lock is released
// as soon as the statement completes.
func (r *UserRepository) LockByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
		FOR UPDATE
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code(auth.CodeNotFound).
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_LOCK_FAILED").
			With("operation", "lock user by email").
			With("email", email).
			Wrap(err)
	}
	return user, nil
}

// Update writes every mutable column of an existing user.
func (r *UserRepository) Update(ctx context.Context, user *auth.User) error {
	result, err := r.conn(ctx).Exec(ctx, `
		UPDATE users SET
			email = $2,
			name = $3,
			birth_year = $4,
			gender = $5,
			password_hash = $6,
			password_salt = $7,
			recovery_code_hash = $8,
			recovery_code_expires_at = $9,
			updated_at = $10
		WHERE id = $1
	`,
		user.ID.String(),
		user.Email,
		user.Name,
		user.BirthYear,
		string(user.Gender),
		user.PasswordHash,
		user.PasswordSalt,
		user.RecoveryCodeHash,
		user.RecoveryCodeExpiresAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return auth.EmailTaken(user.Email)
		}
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", user.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code(auth.CodeNotFound).
			With("id", user.ID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser scans a single row into a User.
// Callers are responsible for handling pgx.ErrNoRows.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr        string
		gender       string
		user         auth.User
		recoveryHash []byte
		recoveryExp  *time.Time
	)

	err := row.Scan(
		&idStr,
		&user.Email,
		&user.Name,
		&user.BirthYear,
		&gender,
		&user.PasswordHash,
		&user.PasswordSalt,
		&recoveryHash,
		&recoveryExp,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}

	user.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("operation", "parse user id").
			With("id", idStr).
			Wrap(err)
	}
	user.Gender = auth.Gender(gender)

	// Both recovery columns are set or both are null.
	if len(recoveryHash) > 0 && recoveryExp != nil {
		user.RecoveryCodeHash = recoveryHash
		exp := recoveryExp.UTC()
		user.RecoveryCodeExpiresAt = &exp
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}
