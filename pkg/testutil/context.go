package testutil

import (
	"net/http"

	id "opsgov/pkg/domain"
	"opsgov/pkg/requestcontext"
)

// WithUser stamps the authenticated user onto the request context, simulating
// what the bearer middleware does. Invalid IDs are silently ignored.
func WithUser(req *http.Request, userID string, role id.Role) *http.Request {
	ctx := req.Context()
	if parsed, err := id.ParseUserID(userID); err == nil {
		ctx = requestcontext.WithUserID(ctx, parsed)
	}
	if role != "" {
		ctx = requestcontext.WithUserRole(ctx, role)
	}
	return req.WithContext(ctx)
}

// WithRequestID stamps a request ID onto the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
