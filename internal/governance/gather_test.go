package governance

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "opsgov/pkg/domain"
)

type fakeWorkspaceSource struct {
	ctx WorkspaceContext
	err error
}

func (f *fakeWorkspaceSource) WorkspaceContext(context.Context, id.WorkspaceID) (WorkspaceContext, error) {
	return f.ctx, f.err
}

type fakeUserSource struct {
	ctx UserContext
	err error
}

func (f *fakeUserSource) UserContext(context.Context, id.UserID) (UserContext, error) {
	return f.ctx, f.err
}

func TestGatherer_CombinesBothSources(t *testing.T) {
	userID := id.UserID(uuid.New())
	gatherer := NewGatherer(
		&fakeWorkspaceSource{ctx: WorkspaceContext{Status: id.WorkspaceActive, RiskLevel: id.RiskHigh, GovernanceMode: id.GovernanceRestricted}},
		&fakeUserSource{ctx: UserContext{ID: userID, Role: id.RoleOperator, Status: id.UserActive}},
		testLogger(), nil,
	)

	gathered, err := gatherer.Gather(context.Background(), id.WorkspaceID(uuid.New()), userID)
	require.NoError(t, err)
	assert.Equal(t, id.RiskHigh, gathered.Workspace.RiskLevel)
	assert.Equal(t, id.GovernanceRestricted, gathered.Workspace.GovernanceMode)
	assert.Equal(t, userID, gathered.User.ID)
	assert.Equal(t, id.RoleOperator, gathered.User.Role)
}

func TestGatherer_FailsWhenAnySourceFails(t *testing.T) {
	t.Run("workspace source failure", func(t *testing.T) {
		gatherer := NewGatherer(
			&fakeWorkspaceSource{err: errors.New("workspace store down")},
			&fakeUserSource{ctx: UserContext{Status: id.UserActive}},
			testLogger(), nil,
		)
		_, err := gatherer.Gather(context.Background(), id.WorkspaceID(uuid.New()), id.UserID(uuid.New()))
		require.Error(t, err)
	})

	t.Run("user source failure", func(t *testing.T) {
		gatherer := NewGatherer(
			&fakeWorkspaceSource{ctx: WorkspaceContext{Status: id.WorkspaceActive}},
			&fakeUserSource{err: errors.New("user store down")},
			testLogger(), nil,
		)
		_, err := gatherer.Gather(context.Background(), id.WorkspaceID(uuid.New()), id.UserID(uuid.New()))
		require.Error(t, err)
	})
}
