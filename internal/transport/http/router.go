// Package httptransport assembles the API router: middleware chain, public
// endpoints, the authenticated subtree, and the ADMIN-gated subtree.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	audithandler "opsgov/internal/audit/handler"
	identityhandler "opsgov/internal/identity/handler"
	"opsgov/internal/integration/workflow"
	"opsgov/internal/jwttoken"
	leadhandler "opsgov/internal/lead/handler"
	machinehandler "opsgov/internal/machine/handler"
	operationhandler "opsgov/internal/operation/handler"
	securityhandler "opsgov/internal/security/handler"
	taskhandler "opsgov/internal/task/handler"
	workspacehandler "opsgov/internal/workspace/handler"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/httputil"
	"opsgov/pkg/platform/middleware/auth"
	"opsgov/pkg/platform/middleware/metadata"
	"opsgov/pkg/platform/middleware/ratelimit"
	"opsgov/pkg/platform/middleware/requestid"
	"opsgov/pkg/platform/middleware/requesttime"
)

// Handlers groups the per-feature handlers mounted by the router.
type Handlers struct {
	Identity  *identityhandler.Handler
	Workspace *workspacehandler.Handler
	Operation *operationhandler.Handler
	Lead      *leadhandler.Handler
	Task      *taskhandler.Handler
	Machine   *machinehandler.Handler
	Security  *securityhandler.Handler
	Audit     *audithandler.Handler
	Workflow  *workflow.Handler
}

// New wires the full router. Every authenticated route sees request ID,
// request time, and client metadata in its context; admin routes additionally
// pass the role gate.
func New(
	handlers Handlers,
	tokens *jwttoken.JWTService,
	principals auth.PrincipalSource,
	loginLimiter *ratelimit.Limiter,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if loginLimiter != nil {
			r.Use(loginLimiter.Middleware)
		}
		handlers.Identity.RegisterPublic(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(claimsAdapter{tokens}, principals, logger))

		handlers.Workspace.Register(r)
		handlers.Operation.Register(r)
		handlers.Lead.Register(r)
		handlers.Task.Register(r)
		handlers.Machine.Register(r)
		handlers.Security.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(id.RoleAdmin, logger))

			handlers.Identity.RegisterUsers(r)
			handlers.Workspace.RegisterAdmin(r)
			handlers.Operation.RegisterAdmin(r)
			handlers.Security.RegisterAdmin(r)
			handlers.Audit.RegisterAdmin(r)
			handlers.Workflow.RegisterAdmin(r)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// claimsAdapter narrows jwttoken claims to what the middleware consumes.
type claimsAdapter struct {
	tokens *jwttoken.JWTService
}

func (a claimsAdapter) ValidateToken(tokenString string) (*auth.JWTClaims, error) {
	claims, err := a.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.JWTClaims{UserID: claims.UserID, Role: claims.Role}, nil
}
