// Package service contains the business logic layer: validation, policy
// enforcement, and orchestration between the repositories and the auth
// collaborators. Handlers parse HTTP and delegate here; nothing in this
// package knows about status codes or SQL.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kalendar-app/kalendar/internal/apperror"
	"github.com/kalendar-app/kalendar/internal/auth"
	"github.com/kalendar-app/kalendar/internal/model"
	"github.com/kalendar-app/kalendar/internal/policy"
	"github.com/kalendar-app/kalendar/internal/repository"
)

// Validation limits, mirroring the users table column sizes.
const (
	MaxUsernameLength = 80
	MaxEmailLength    = 120
)

// AccountService handles registration, login, and admin account management.
type AccountService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAccountService creates an AccountService with all dependencies
// injected. The caller (internal/server) decides the concrete repository.
func NewAccountService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the authenticated user with the issued token so the
// handler can respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// authorize converts a policy denial into the Forbidden app error. Shared by
// both services in this package — the policy itself stays a pure function.
func authorize(actor policy.Identity, action policy.Action, target policy.Target) error {
	if d := policy.Authorize(actor, action, target); !d.Allowed {
		return apperror.Forbidden(d.Reason)
	}
	return nil
}

// Register creates a user account through public self-registration.
//
// The role is always "user": letting the registration payload pick a role
// would be privilege escalation. Admin accounts are created by admins via
// CreateUser.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	user, err := s.newUser(username, email, password, model.RoleUser)
	if err != nil {
		return nil, err
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("registering user %q: %w", user.Username, err)
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// CreateUser is the admin path for creating accounts; unlike Register it may
// assign the admin role.
func (s *AccountService) CreateUser(ctx context.Context, actor policy.Identity, username, email, password, role string) (*model.User, error) {
	if err := authorize(actor, policy.ActionCreateUser, policy.Target{}); err != nil {
		return nil, err
	}

	if role == "" {
		role = model.RoleUser
	}
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, apperror.ValidationFailed("role", "role must be user or admin")
	}

	user, err := s.newUser(username, email, password, role)
	if err != nil {
		return nil, err
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user %q: %w", user.Username, err)
	}

	s.logger.Info("user created by admin",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
		slog.String("role", user.Role),
		slog.Int64("createdBy", actor.UserID),
	)

	return user, nil
}

// newUser validates the registration fields and hashes the password.
// All validation happens before any persistence write.
func (s *AccountService) newUser(username, email, password, role string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > MaxEmailLength {
		return nil, apperror.ValidationFailed("email",
			fmt.Sprintf("email must be %d characters or less", MaxEmailLength))
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	return &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}, nil
}

// Authenticate verifies credentials and issues a token.
//
// Unknown username and wrong password return the identical error so a
// caller cannot probe which usernames exist. When the lookup misses, a dummy
// bcrypt comparison runs anyway to keep the two failure paths from being
// separable by response time.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, apperror.ValidationFailed("credentials", "username and password are required")
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		s.passwords.DummyVerify()
		return nil, apperror.InvalidCredentials()
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Generate(policy.Identity{UserID: user.ID, Role: user.Role})
	if err != nil {
		return nil, fmt.Errorf("generating token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user authenticated",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// ListUsers returns every account. Admin only.
func (s *AccountService) ListUsers(ctx context.Context, actor policy.Identity) ([]model.User, error) {
	if err := authorize(actor, policy.ActionListUsers, policy.Target{}); err != nil {
		return nil, err
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// DeleteAccount removes a user and, via the repository's cascade contract,
// every event the user owns. The policy denies deleting one's own account —
// an admin cannot lock the deployment out through this path.
func (s *AccountService) DeleteAccount(ctx context.Context, actor policy.Identity, id int64) error {
	if err := authorize(actor, policy.ActionDeleteUser, policy.UserTarget(id)); err != nil {
		return err
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted",
		slog.Int64("userID", id),
		slog.Int64("deletedBy", actor.UserID),
	)
	return nil
}
