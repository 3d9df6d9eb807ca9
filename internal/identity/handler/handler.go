package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"opsgov/internal/identity"
	id "opsgov/pkg/domain"
	"opsgov/pkg/platform/httputil"
	"opsgov/pkg/requestcontext"
)

// Service defines the identity operations the handler needs.
type Service interface {
	Login(ctx context.Context, email, password string) (*identity.Session, error)
	Register(ctx context.Context, input identity.CreateUserInput) (*identity.User, error)
	GetUser(ctx context.Context, userID id.UserID) (*identity.User, error)
	ListUsers(ctx context.Context, workspaceID id.WorkspaceID) ([]*identity.User, error)
	BlockUser(ctx context.Context, userID id.UserID) (*identity.User, error)
	ReactivateUser(ctx context.Context, userID id.UserID) (*identity.User, error)
	DeleteUser(ctx context.Context, userID id.UserID) error
}

// Handler wires identity endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated login endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

// RegisterUsers mounts the account-management endpoints. The router applies
// the ADMIN gate before this subtree.
func (h *Handler) RegisterUsers(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{userID}", h.HandleGet)
		r.Post("/{userID}/block", h.HandleBlock)
		r.Post("/{userID}/reactivate", h.HandleReactivate)
		r.Delete("/{userID}", h.HandleDelete)
	})
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	session, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromSession(session))
}

// HandleCreate handles POST /users.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateUserRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	user, err := h.service.Register(ctx, req.Input())
	if err != nil {
		h.logger.ErrorContext(ctx, "user creation failed",
			"request_id", requestID,
			"email", req.Email,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user created",
		"request_id", requestID,
		"user_id", user.ID,
		"role", user.Role,
	)
	httputil.WriteJSON(w, http.StatusCreated, FromUser(user))
}

// HandleList handles GET /users?workspace_id=...
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	workspaceID, err := id.ParseWorkspaceID(r.URL.Query().Get("workspace_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	users, err := h.service.ListUsers(ctx, workspaceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromUsers(users))
}

// HandleGet handles GET /users/{userID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.service.GetUser(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromUser(user))
}

// HandleBlock handles POST /users/{userID}/block.
func (h *Handler) HandleBlock(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "user blocked", h.service.BlockUser)
}

// HandleReactivate handles POST /users/{userID}/reactivate.
func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "user reactivated", h.service.ReactivateUser)
}

// HandleDelete handles DELETE /users/{userID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteUser(ctx, userID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user deleted",
		"request_id", requestID,
		"user_id", userID,
		"actor_id", requestcontext.UserID(ctx),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, message string, apply func(context.Context, id.UserID) (*identity.User, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := apply(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "user transition failed",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, message,
		"request_id", requestID,
		"user_id", user.ID,
		"actor_id", requestcontext.UserID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, FromUser(user))
}
