package handler

import (
	"time"

	"opsgov/internal/identity"
)

// UserResponse is the public view of an account. The password hash never
// leaves the service.
type UserResponse struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromUser(user *identity.User) UserResponse {
	return UserResponse{
		ID:          user.ID.String(),
		WorkspaceID: user.WorkspaceID.String(),
		Email:       user.Email,
		Name:        user.Name,
		Role:        string(user.Role),
		Status:      string(user.Status),
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func FromUsers(users []*identity.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, FromUser(user))
	}
	return responses
}

// LoginResponse is the body returned by POST /auth/login.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

func FromSession(session *identity.Session) LoginResponse {
	return LoginResponse{
		AccessToken: session.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(session.ExpiresIn.Seconds()),
		User:        FromUser(session.User),
	}
}
