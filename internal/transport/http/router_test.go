package httptransport_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"opsgov/internal/audit"
	audithandler "opsgov/internal/audit/handler"
	auditmemory "opsgov/internal/audit/store/memory"
	"opsgov/internal/governance"
	"opsgov/internal/identity"
	identityhandler "opsgov/internal/identity/handler"
	identitymemory "opsgov/internal/identity/store/memory"
	"opsgov/internal/integration/workflow"
	"opsgov/internal/jwttoken"
	"opsgov/internal/lead"
	leadhandler "opsgov/internal/lead/handler"
	leadmemory "opsgov/internal/lead/store/memory"
	"opsgov/internal/machine"
	machinehandler "opsgov/internal/machine/handler"
	machinememory "opsgov/internal/machine/store/memory"
	"opsgov/internal/operation"
	operationhandler "opsgov/internal/operation/handler"
	operationmemory "opsgov/internal/operation/store/memory"
	"opsgov/internal/platform/config"
	"opsgov/internal/security"
	securityhandler "opsgov/internal/security/handler"
	securitymemory "opsgov/internal/security/store/memory"
	"opsgov/internal/task"
	taskhandler "opsgov/internal/task/handler"
	taskmemory "opsgov/internal/task/store/memory"
	httptransport "opsgov/internal/transport/http"
	"opsgov/internal/workspace"
	workspacehandler "opsgov/internal/workspace/handler"
	workspacememory "opsgov/internal/workspace/store/memory"
	id "opsgov/pkg/domain"
	"opsgov/pkg/testutil"
)

type routerFixture struct {
	router   http.Handler
	identity *identity.Service
}

func newFixture(t *testing.T) *routerFixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	recorder := audit.NewRecorder(auditmemory.New(), nil, log, 64)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = recorder.Run(ctx) }()

	tokens := jwttoken.NewJWTService("router-test-key", "opsgov", "opsgov-api")
	identityService := identity.NewService(identitymemory.New(), tokens, recorder, time.Hour, log, nil)
	workspaceService := workspace.NewService(workspacememory.New(), recorder, log)

	engine := governance.NewService(recorder, governance.DefaultThresholds(), log, nil)
	gatherer := governance.NewGatherer(workspaceService, identityService, log, nil)
	workflowClient := workflow.New(config.Workflow{}, log)

	operationService := operation.NewService(operationmemory.New(), engine, gatherer, recorder, workflowClient, log, nil)
	leadService := lead.NewService(leadmemory.New(), recorder, log)
	taskService := task.NewService(taskmemory.New(), recorder, log)
	machineService := machine.NewService(machinememory.New(), recorder, log)
	securityService := security.NewService(securitymemory.New(), recorder, log)

	router := httptransport.New(httptransport.Handlers{
		Identity:  identityhandler.New(identityService, log),
		Workspace: workspacehandler.New(workspaceService, log),
		Operation: operationhandler.New(operationService, log),
		Lead:      leadhandler.New(leadService, log),
		Task:      taskhandler.New(taskService, log),
		Machine:   machinehandler.New(machineService, log),
		Security:  securityhandler.New(securityService, log),
		Audit:     audithandler.New(recorder, log),
		Workflow:  workflow.NewHandler(workflowClient, log),
	}, tokens, identityService, nil, log)

	return &routerFixture{router: router, identity: identityService}
}

func (f *routerFixture) seedUser(t *testing.T, role id.Role, email string) {
	t.Helper()
	_, err := f.identity.Register(context.Background(), identity.CreateUserInput{
		WorkspaceID: id.WorkspaceID(uuid.New()),
		Email:       email,
		Name:        "Router Test",
		Password:    "correct-horse",
		Role:        role,
	})
	require.NoError(t, err)
}

func (f *routerFixture) login(t *testing.T, email string) string {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": "correct-horse",
	})
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatusOK(t, rr)

	session := testutil.UnmarshalResponse[struct {
		AccessToken string `json:"access_token"`
	}](t, rr)
	require.NotEmpty(t, session.AccessToken)
	return session.AccessToken
}

func TestRouter_PublicEndpoints(t *testing.T) {
	f := newFixture(t)

	testutil.Given(t, "the assembled router", func(t *testing.T) {
		testutil.When(t, "calling GET /healthz", func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/healthz"))

			testutil.Then(t, "it responds OK without authentication", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				testutil.AssertJSONContains(t, rr, "status", "ok")
			})
		})

		testutil.When(t, "calling GET /metrics", func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/metrics"))

			testutil.Then(t, "it serves the scrape endpoint", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
			})
		})
	})
}

func TestRouter_AuthenticationGate(t *testing.T) {
	f := newFixture(t)

	testutil.Given(t, "a request without credentials", func(t *testing.T) {
		testutil.When(t, "calling an authenticated route", func(t *testing.T) {
			rr := testutil.DoRequest(f.router, testutil.NewRequest(t, http.MethodGet, "/leads"))

			testutil.Then(t, "it is rejected with 401", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusUnauthorized)
			})
		})
	})

	testutil.Given(t, "a logged-in operator", func(t *testing.T) {
		f.seedUser(t, id.RoleOperator, "operator@example.com")
		token := f.login(t, "operator@example.com")

		testutil.When(t, "calling an authenticated route with the token", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/leads?workspace_id="+uuid.NewString())
			req.Header.Set("Authorization", "Bearer "+token)
			rr := testutil.DoRequest(f.router, req)

			testutil.Then(t, "it is accepted", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
			})
		})

		testutil.When(t, "calling an admin route with the token", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/users")
			req.Header.Set("Authorization", "Bearer "+token)
			rr := testutil.DoRequest(f.router, req)

			testutil.Then(t, "it is rejected with 403", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusForbidden)
			})
		})
	})

	testutil.Given(t, "a logged-in admin", func(t *testing.T) {
		f.seedUser(t, id.RoleAdmin, "admin@example.com")
		token := f.login(t, "admin@example.com")

		testutil.When(t, "calling an admin route with the token", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/users?workspace_id="+uuid.NewString())
			req.Header.Set("Authorization", "Bearer "+token)
			rr := testutil.DoRequest(f.router, req)

			testutil.Then(t, "it is accepted", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
			})
		})
	})
}
