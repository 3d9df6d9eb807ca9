package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"opsgov/internal/audit"
	"opsgov/internal/governance"
	identitymetrics "opsgov/internal/identity/metrics"
	"opsgov/internal/jwttoken"
	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
	"opsgov/pkg/email"
	"opsgov/pkg/platform/middleware/auth"
	"opsgov/pkg/platform/sentinel"
	"opsgov/pkg/requestcontext"
)

// Session is the result of a successful login.
type Session struct {
	AccessToken string
	ExpiresIn   time.Duration
	User        *User
}

// CreateUserInput carries validated fields for account creation.
type CreateUserInput struct {
	WorkspaceID id.WorkspaceID
	Email       string
	Name        string
	Password    string
	Role        id.Role
}

// Service orchestrates account lifecycle and authentication.
type Service struct {
	users     Store
	tokens    *jwttoken.JWTService
	recorder  *audit.Recorder
	accessTTL time.Duration
	logger    *slog.Logger
	metrics   *identitymetrics.Metrics
}

func NewService(users Store, tokens *jwttoken.JWTService, recorder *audit.Recorder, accessTTL time.Duration, logger *slog.Logger, m *identitymetrics.Metrics) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		recorder:  recorder,
		accessTTL: accessTTL,
		logger:    logger,
		metrics:   m,
	}
}

// Login verifies the credentials and issues an access token. Blocked
// accounts authenticate but are refused, so the caller learns the real
// state of the account rather than a generic credential failure.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementLogin("invalid_credentials")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.metrics.IncrementLogin("invalid_credentials")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	if !user.IsActive() {
		s.metrics.IncrementLogin("blocked")
		return nil, dErrors.New(dErrors.CodeRestricted, "Account suspended by security policy")
	}

	token, err := s.tokens.GenerateAccessToken(uuid.UUID(user.ID), string(user.Role), s.accessTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.metrics.IncrementLogin("success")
	s.logger.InfoContext(ctx, "user logged in",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", user.ID,
	)
	return &Session{AccessToken: token, ExpiresIn: s.accessTTL, User: user}, nil
}

// Register creates a new account. The caller's role gate (ADMIN) is
// enforced at the route.
func (s *Service) Register(ctx context.Context, input CreateUserInput) (*User, error) {
	if len(input.Password) < 8 {
		return nil, dErrors.New(dErrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = email.DeriveName(input.Email)
	}

	user, err := NewUser(id.UserID(uuid.New()), input.WorkspaceID, input.Email, name, string(hash), input.Role, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.metrics.IncrementLifecycle("created")
	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: user.WorkspaceID,
		EntityType:  "user",
		EntityID:    user.ID.String(),
		Action:      audit.ActionUserCreated,
		NewValue:    snapshot(user),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return user, nil
}

// GetUser returns one account.
func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapUserErr(err)
	}
	return user, nil
}

// ListUsers returns the workspace's accounts, newest first.
func (s *Service) ListUsers(ctx context.Context, workspaceID id.WorkspaceID) ([]*User, error) {
	users, err := s.users.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

// BlockUser suspends an account. Takes effect on the user's next request.
func (s *Service) BlockUser(ctx context.Context, userID id.UserID) (*User, error) {
	return s.transition(ctx, userID, audit.ActionUserBlocked, "blocked", (*User).Block)
}

// ReactivateUser lifts a block.
func (s *Service) ReactivateUser(ctx context.Context, userID id.UserID) (*User, error) {
	return s.transition(ctx, userID, audit.ActionUserReactivated, "reactivated", (*User).Reactivate)
}

// DeleteUser removes an account permanently. Audit events referencing the
// user remain in the trail.
func (s *Service) DeleteUser(ctx context.Context, userID id.UserID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return wrapUserErr(err)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return wrapUserErr(err)
	}

	s.metrics.IncrementLifecycle("deleted")
	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: user.WorkspaceID,
		EntityType:  "user",
		EntityID:    user.ID.String(),
		Action:      audit.ActionUserDeleted,
		OldValue:    snapshot(user),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return nil
}

func (s *Service) transition(ctx context.Context, userID id.UserID, action, label string, apply func(*User, time.Time) error) (*User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapUserErr(err)
	}

	oldValue := snapshot(user)
	if err := apply(user, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, wrapUserErr(err)
	}

	s.metrics.IncrementLifecycle(label)
	s.recorder.Log(ctx, audit.Event{
		WorkspaceID: user.WorkspaceID,
		EntityType:  "user",
		EntityID:    user.ID.String(),
		Action:      action,
		OldValue:    oldValue,
		NewValue:    snapshot(user),
		PerformedBy: requestcontext.UserID(ctx),
	})
	return user, nil
}

// ResolvePrincipal satisfies the bearer middleware's lookup so blocks take
// effect without re-issuing tokens.
func (s *Service) ResolvePrincipal(ctx context.Context, userID id.UserID) (auth.Principal, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return auth.Principal{}, wrapUserErr(err)
	}
	return auth.Principal{
		ID:     user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Status: user.Status,
	}, nil
}

// UserContext satisfies the decision engine's user source.
func (s *Service) UserContext(ctx context.Context, userID id.UserID) (governance.UserContext, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return governance.UserContext{}, wrapUserErr(err)
	}
	return governance.UserContext{
		ID:     user.ID,
		Role:   user.Role,
		Status: user.Status,
	}, nil
}

func wrapUserErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "user store failure")
}

func snapshot(user *User) map[string]any {
	return map[string]any{
		"email":  user.Email,
		"name":   user.Name,
		"role":   string(user.Role),
		"status": string(user.Status),
	}
}
