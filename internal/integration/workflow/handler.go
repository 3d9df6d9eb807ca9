package workflow

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"opsgov/pkg/platform/httputil"
	"opsgov/pkg/requestcontext"
)

// Handler exposes the webhook test endpoint so operators can verify the
// integration before relying on it.
type Handler struct {
	client *Client
	logger *slog.Logger
}

func NewHandler(client *Client, logger *slog.Logger) *Handler {
	return &Handler{client: client, logger: logger}
}

// RegisterAdmin mounts the test-fire endpoint. The router applies the ADMIN
// gate before this subtree.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/integrations/workflow/test", h.HandleTestFire)
}

// HandleTestFire handles POST /integrations/workflow/test.
func (h *Handler) HandleTestFire(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if err := h.client.TestFire(ctx); err != nil {
		h.logger.WarnContext(ctx, "workflow test fire failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "workflow test fire delivered",
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "delivered"})
}
