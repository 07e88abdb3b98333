package client

import "time"

// User is the public user view returned by the server.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type envelope struct {
	Success                 bool   `json:"success"`
	Message                 string `json:"message"`
	Email                   string `json:"email,omitempty"`
	Token                   string `json:"token,omitempty"`
	User                    *User  `json:"user,omitempty"`
	ExpiresIn               int64  `json:"expires_in,omitempty"`
	RequiresOTPVerification bool   `json:"requires_otp_verification,omitempty"`
}
