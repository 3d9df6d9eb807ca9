package identity_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsgov/internal/audit"
	auditmemory "opsgov/internal/audit/store/memory"
	"opsgov/internal/identity"
	identitymemory "opsgov/internal/identity/store/memory"
	"opsgov/internal/jwttoken"
	id "opsgov/pkg/domain"
	dErrors "opsgov/pkg/domain-errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	service    *identity.Service
	auditStore *auditmemory.Store
	cancel     context.CancelFunc
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	auditStore := auditmemory.New()
	recorder := audit.NewRecorder(auditStore, nil, testLogger(), 32)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = recorder.Run(ctx) }()
	t.Cleanup(cancel)

	tokens := jwttoken.NewJWTService("test-signing-key", "opsgov", "opsgov-api")
	service := identity.NewService(identitymemory.New(), tokens, recorder, time.Hour, testLogger(), nil)
	return &fixture{service: service, auditStore: auditStore, cancel: cancel}
}

func registerUser(t *testing.T, service *identity.Service, email string, role id.Role) *identity.User {
	t.Helper()
	user, err := service.Register(context.Background(), identity.CreateUserInput{
		WorkspaceID: id.WorkspaceID(uuid.New()),
		Email:       email,
		Name:        "Test User",
		Password:    "correct-horse",
		Role:        role,
	})
	require.NoError(t, err)
	return user
}

func TestService_LoginSuccess(t *testing.T) {
	f := newFixture(t)
	user := registerUser(t, f.service, "admin@example.com", id.RoleAdmin)

	session, err := f.service.Login(context.Background(), "Admin@Example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.Equal(t, time.Hour, session.ExpiresIn)
	assert.Equal(t, user.ID, session.User.ID)
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	registerUser(t, f.service, "admin@example.com", id.RoleAdmin)

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.service.Login(context.Background(), "admin@example.com", "wrong")
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password"))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.service.Login(context.Background(), "nobody@example.com", "correct-horse")
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password"))
	})
}

func TestService_LoginBlockedAccountIsRestricted(t *testing.T) {
	f := newFixture(t)
	user := registerUser(t, f.service, "operator@example.com", id.RoleOperator)

	_, err := f.service.BlockUser(context.Background(), user.ID)
	require.NoError(t, err)

	_, err = f.service.Login(context.Background(), "operator@example.com", "correct-horse")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRestricted))
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	registerUser(t, f.service, "dup@example.com", id.RoleOperator)

	_, err := f.service.Register(context.Background(), identity.CreateUserInput{
		WorkspaceID: id.WorkspaceID(uuid.New()),
		Email:       "dup@example.com",
		Name:        "Someone Else",
		Password:    "another-pass",
		Role:        id.RoleOperator,
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestService_RegisterRejectsShortPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Register(context.Background(), identity.CreateUserInput{
		WorkspaceID: id.WorkspaceID(uuid.New()),
		Email:       "short@example.com",
		Name:        "Short",
		Password:    "tiny",
		Role:        id.RoleOperator,
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestService_BlockAndReactivate(t *testing.T) {
	f := newFixture(t)
	user := registerUser(t, f.service, "cycle@example.com", id.RoleOperator)

	blocked, err := f.service.BlockUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, id.UserBlocked, blocked.Status)

	t.Run("double block violates the transition invariant", func(t *testing.T) {
		_, err := f.service.BlockUser(context.Background(), user.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	reactivated, err := f.service.ReactivateUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, id.UserActive, reactivated.Status)

	// The transition lands in the trail.
	require.Eventually(t, func() bool {
		events, err := f.auditStore.List(context.Background(), audit.Query{
			Action: audit.ActionUserBlocked,
			Limit:  10,
		})
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestService_ResolvePrincipal(t *testing.T) {
	f := newFixture(t)
	user := registerUser(t, f.service, "principal@example.com", id.RoleAdmin)

	principal, err := f.service.ResolvePrincipal(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.ID)
	assert.Equal(t, id.RoleAdmin, principal.Role)
	assert.Equal(t, id.UserActive, principal.Status)

	t.Run("unknown user maps to not found", func(t *testing.T) {
		_, err := f.service.ResolvePrincipal(context.Background(), id.UserID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestService_RegisterDerivesNameFromEmail(t *testing.T) {
	f := newFixture(t)

	user, err := f.service.Register(context.Background(), identity.CreateUserInput{
		WorkspaceID: id.WorkspaceID(uuid.New()),
		Email:       "ana.garcia@example.com",
		Password:    "correct-horse",
		Role:        id.RoleOperator,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Garcia", user.Name)
}

func TestService_DeleteUser(t *testing.T) {
	f := newFixture(t)
	user := registerUser(t, f.service, "gone@example.com", id.RoleOperator)

	require.NoError(t, f.service.DeleteUser(context.Background(), user.ID))

	_, err := f.service.GetUser(context.Background(), user.ID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	t.Run("deleting twice maps to not found", func(t *testing.T) {
		err := f.service.DeleteUser(context.Background(), user.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	// The removal lands in the trail with the account snapshot.
	require.Eventually(t, func() bool {
		events, err := f.auditStore.List(context.Background(), audit.Query{
			WorkspaceID: user.WorkspaceID,
			Action:      audit.ActionUserDeleted,
			Limit:       10,
		})
		return err == nil && len(events) == 1 && events[0].OldValue != nil
	}, time.Second, 10*time.Millisecond)
}
