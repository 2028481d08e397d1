package dto

import (
	"time"

	"studyhub/internal/domain"
)

// LoginRequest holds the credentials forwarded to the learning platform.
// @Description Request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse defines the structure for the logged-in user's profile.
type UserResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewUserResponse converts the session's cached profile.
func NewUserResponse(u *domain.User) UserResponse {
	if u == nil {
		return UserResponse{}
	}
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.DisplayName()}
}

// LoginResponse is returned after a successful login; the session itself travels
// in an HttpOnly cookie.
// @Description Response body for login
type LoginResponse struct {
	User UserResponse `json:"user"`
}

// MessageResponse represents a generic message response.
// @Description Generic message response
type MessageResponse struct {
	Message string `json:"message"`
}

// Notice levels.
const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Notice is a toast shown once to the user.
type Notice struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NoticesResponse carries drained notices.
type NoticesResponse struct {
	Notices []Notice `json:"notices"`
}
