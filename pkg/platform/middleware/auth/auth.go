// Package auth provides the bearer-token middleware gating the API.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "opsgov/pkg/domain"
	"opsgov/pkg/requestcontext"
)

// JWTValidator defines the interface for validating access tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims expected from the JWT validator.
type JWTClaims struct {
	UserID string
	Role   string
}

// Principal is the resolved identity attached to a request.
type Principal struct {
	ID     id.UserID
	Email  string
	Role   id.Role
	Status id.UserStatus
}

// PrincipalSource resolves a token subject to a live user record so status
// changes (blocking) take effect without re-issuing tokens.
type PrincipalSource interface {
	ResolvePrincipal(ctx context.Context, userID id.UserID) (Principal, error)
}

// writeJSONError writes a JSON error response with the given status code.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth validates the bearer token, resolves the principal, and rejects
// blocked accounts. On success the user ID and role are stored in the
// request context.
func RequireAuth(validator JWTValidator, source PrincipalSource, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			userID, err := id.ParseUserID(claims.UserID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed subject",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			principal, err := source.ResolvePrincipal(ctx, userID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - unknown subject",
					"user_id", userID,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			if principal.Status != id.UserActive {
				logger.WarnContext(ctx, "restricted access - blocked account",
					"user_id", userID,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusForbidden, "restricted", "Account suspended by security policy")
				return
			}

			ctx = requestcontext.WithUserID(ctx, principal.ID)
			ctx = requestcontext.WithUserRole(ctx, principal.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates an endpoint to a single role. Must run after RequireAuth.
func RequireRole(role id.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.UserRole(ctx) != role {
				logger.WarnContext(ctx, "restricted access - insufficient role",
					"required_role", role,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "restricted", "Action restricted by privilege level")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
