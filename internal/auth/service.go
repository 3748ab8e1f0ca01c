// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gymtracker/gymtracker/pkg/errutil"
)

var tracer = otel.Tracer("gymtracker/auth")

// ServiceDeps lists the collaborators of a CredentialService. All are required.
type ServiceDeps struct {
	Users      UserRepository
	Transactor Transactor
	Hasher     PasswordHasher
	Tokens     TokenIssuer
	Sender     RecoveryCodeSender
}

// CredentialService handles registration, login and password recovery.
// It is safe for concurrent use.
type CredentialService struct {
	users       UserRepository
	tx          Transactor
	hasher      PasswordHasher
	tokens      TokenIssuer
	sender      RecoveryCodeSender
	logger      *slog.Logger
	now         func() time.Time
	recoveryTTL time.Duration

	// Credentials for a password nobody knows, verified against when the
	// login email is unknown.
	comparisonHash []byte
	comparisonSalt []byte
}

// ServiceOption configures a CredentialService during construction.
type ServiceOption func(*CredentialService)

// WithLogger sets the logger used for operational messages.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *CredentialService) {
		s.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *CredentialService) {
		s.now = now
	}
}

// WithRecoveryCodeTTL sets how long an issued recovery code stays valid.
func WithRecoveryCodeTTL(ttl time.Duration) ServiceOption {
	return func(s *CredentialService) {
		s.recoveryTTL = ttl
	}
}

// NewCredentialService creates a CredentialService. It hashes a random
// comparison password once, so construction costs one hash.
func NewCredentialService(deps ServiceDeps, opts ...ServiceOption) (*CredentialService, error) {
	if deps.Users == nil {
		return nil, oops.Code("SERVICE_DEPENDENCY_MISSING").Errorf("user repository is required")
	}
	if deps.Transactor == nil {
		return nil, oops.Code("SERVICE_DEPENDENCY_MISSING").Errorf("transactor is required")
	}
	if deps.Hasher == nil {
		return nil, oops.Code("SERVICE_DEPENDENCY_MISSING").Errorf("password hasher is required")
	}
	if deps.Tokens == nil {
		return nil, oops.Code("SERVICE_DEPENDENCY_MISSING").Errorf("token issuer is required")
	}
	if deps.Sender == nil {
		return nil, oops.Code("SERVICE_DEPENDENCY_MISSING").Errorf("recovery code sender is required")
	}

	s := &CredentialService{
		users:       deps.Users,
		tx:          deps.Transactor,
		hasher:      deps.Hasher,
		tokens:      deps.Tokens,
		sender:      deps.Sender,
		logger:      slog.Default(),
		now:         time.Now,
		recoveryTTL: DefaultRecoveryCodeTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("SERVICE_DEPENDENCY_MISSING").Errorf("logger is required")
	}
	if s.now == nil {
		return nil, oops.Code("SERVICE_DEPENDENCY_MISSING").Errorf("clock is required")
	}
	if s.recoveryTTL <= 0 {
		return nil, oops.Code("SERVICE_CONFIG_INVALID").
			With("recovery_code_ttl", s.recoveryTTL).
			Errorf("recovery code ttl must be positive")
	}

	hash, salt, err := comparisonCredentials(s.hasher)
	if err != nil {
		return nil, oops.Code("SERVICE_INIT_FAILED").With("operation", "hash comparison password").Wrap(err)
	}
	s.comparisonHash = hash
	s.comparisonSalt = salt
	return s, nil
}

// Register creates an account. The user is validated and hashed before the
// transaction opens; the insert either commits fully or not at all.
func (s *CredentialService) Register(ctx context.Context, req RegisterRequest) (resp RegisterResponse, err error) {
	ctx, span := tracer.Start(ctx, "credentials.register")
	defer func() { s.finish(span, OpRegister, outcomeOf(err), err) }()

	user, err := NewUser(NewUserParams{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		BirthYear: req.BirthYear,
		Gender:    req.Gender,
	}, s.hasher, s.now())
	if err != nil {
		return RegisterResponse{}, err
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		return s.users.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return RegisterResponse{}, EmailTaken(user.Email)
		}
		errutil.LogErrorContext(ctx, s.logger, "register user failed", err)
		return RegisterResponse{}, PersistenceFailure("create user")
	}

	s.logger.InfoContext(ctx, "user registered", "user", user)
	return RegisterResponse{Name: user.Name, Email: user.Email}, nil
}

// Login checks credentials and returns a session token. Unknown emails,
// malformed emails and wrong passwords all fail with the same error after
// the same amount of hashing work.
func (s *CredentialService) Login(ctx context.Context, req LoginRequest) (resp LoginResponse, err error) {
	ctx, span := tracer.Start(ctx, "credentials.login")
	defer func() { s.finish(span, OpLogin, outcomeOf(err), err) }()

	var user *User
	if email, normErr := NormalizeEmail(req.Email); normErr == nil {
		found, lookupErr := s.users.GetByEmail(ctx, email)
		switch {
		case lookupErr == nil:
			user = found
		case errors.Is(lookupErr, ErrNotFound):
		default:
			errutil.LogErrorContext(ctx, s.logger, "login lookup failed", lookupErr)
			return LoginResponse{}, PersistenceFailure("get user by email")
		}
	}

	hash, salt := s.comparisonHash, s.comparisonSalt
	if user != nil {
		hash, salt = user.PasswordHash, user.PasswordSalt
	}
	// Always verify so both branches cost one derivation.
	match := s.hasher.Verify(req.Password, hash, salt)
	if user == nil || !match {
		return LoginResponse{}, InvalidCredentials()
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResponse{}, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue session token").
			Wrap(err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	s.logger.InfoContext(ctx, "user logged in", "user", user)
	return LoginResponse{Token: token.Value, ExpiresAt: token.ExpiresAt}, nil
}

// RequestPasswordRecovery issues a recovery code and delivers it through the
// configured sender. Unknown emails succeed silently so callers cannot probe
// which accounts exist.
func (s *CredentialService) RequestPasswordRecovery(ctx context.Context, req RecoveryRequest) (err error) {
	ctx, span := tracer.Start(ctx, "credentials.request_recovery")
	outcome := OutcomeSuccess
	defer func() {
		if err != nil {
			outcome = outcomeOf(err)
		}
		s.finish(span, OpRequestRecovery, outcome, err)
	}()

	email, err := NormalizeEmail(req.Email)
	if err != nil {
		return err
	}

	var (
		msg      *RecoveryMessage
		issueErr error
	)
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		user, err := s.users.LockByEmail(ctx, email)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		code, err := user.IssueRecoveryCode(s.now(), s.recoveryTTL)
		if err != nil {
			issueErr = err
			return err
		}
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		msg = &RecoveryMessage{
			Email:     user.Email,
			Name:      user.Name,
			Code:      code,
			ExpiresAt: *user.RecoveryCodeExpiresAt,
		}
		return nil
	})
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "issue recovery code failed", err)
		if issueErr != nil {
			return oops.With("operation", "issue recovery code").Wrap(issueErr)
		}
		return PersistenceFailure("issue recovery code")
	}

	if msg == nil {
		outcome = OutcomeNotFound
		s.logger.DebugContext(ctx, "recovery requested for unknown email")
		return nil
	}

	if err := s.sender.SendRecoveryCode(ctx, *msg); err != nil {
		errutil.LogErrorContext(ctx, s.logger, "deliver recovery code failed", err)
		return oops.Code("RECOVERY_DELIVERY_FAILED").With("email", msg.Email).Wrap(err)
	}
	s.logger.InfoContext(ctx, "recovery code issued", "recovery", *msg)
	return nil
}

// ChangePassword replaces a password using a recovery code. Unknown users and
// wrong codes are reported in the response, not as errors. The lookup,
// check and update run in one transaction holding the user's row lock, so a
// code can only be used once.
func (s *CredentialService) ChangePassword(ctx context.Context, req ChangePasswordRequest) (resp ChangePasswordResponse, err error) {
	ctx, span := tracer.Start(ctx, "credentials.change_password")
	outcome := OutcomeSuccess
	defer func() {
		if err != nil {
			outcome = outcomeOf(err)
		}
		s.finish(span, OpChangePassword, outcome, err)
	}()

	if err := ValidatePassword(req.NewPassword); err != nil {
		return ChangePasswordResponse{}, err
	}

	email, normErr := NormalizeEmail(req.Email)
	if normErr != nil {
		outcome = OutcomeNotFound
		return ChangePasswordResponse{Success: false, Message: MsgUserNotFound}, nil
	}

	var (
		result    ChangePasswordResponse
		changeErr error
	)
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		user, err := s.users.LockByEmail(ctx, email)
		if errors.Is(err, ErrNotFound) {
			result = ChangePasswordResponse{Success: false, Message: MsgUserNotFound}
			return nil
		}
		if err != nil {
			return err
		}

		changed, err := user.ChangePassword(req.NewPassword, req.RecoveryCode, s.hasher, s.now())
		if err != nil {
			changeErr = err
			return err
		}
		if !changed {
			result = ChangePasswordResponse{Success: false, Message: MsgInvalidRecoveryCode}
			return nil
		}
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		result = ChangePasswordResponse{Success: true, Message: MsgPasswordChanged}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return ChangePasswordResponse{}, err
		}
		errutil.LogErrorContext(ctx, s.logger, "change password failed", err)
		if changeErr != nil {
			return ChangePasswordResponse{}, oops.With("operation", "change password").Wrap(changeErr)
		}
		return ChangePasswordResponse{}, PersistenceFailure("change password")
	}

	switch result.Message {
	case MsgUserNotFound:
		outcome = OutcomeNotFound
	case MsgInvalidRecoveryCode:
		outcome = OutcomeRejected
	default:
		s.logger.InfoContext(ctx, "password changed", "email", email)
	}
	return result, nil
}

// Authenticate resolves a session token to its user.
func (s *CredentialService) Authenticate(ctx context.Context, token string) (user *User, err error) {
	ctx, span := tracer.Start(ctx, "credentials.authenticate")
	defer func() { s.finish(span, OpAuthenticate, outcomeOf(err), err) }()

	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, err
		}
		return nil, InvalidToken(err)
	}

	id, err := ulid.Parse(claims.UserID)
	if err != nil {
		return nil, InvalidToken(err)
	}

	user, err = s.users.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, InvalidToken(nil)
	}
	if err != nil {
		errutil.LogErrorContext(ctx, s.logger, "authenticate lookup failed", err)
		return nil, PersistenceFailure("get user by id")
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	return user, nil
}

// finish records the outcome metric and closes the span. Expected rejections
// are not span errors.
func (s *CredentialService) finish(span trace.Span, operation, outcome string, err error) {
	RecordOperation(operation, outcome)
	span.SetAttributes(attribute.String("credentials.outcome", outcome))
	if err != nil && outcome == OutcomeError {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrEmailTaken):
		return OutcomeRejected
	case errors.Is(err, ErrValidation):
		return OutcomeInvalid
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}
