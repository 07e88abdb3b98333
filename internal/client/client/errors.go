package client

import (
	"errors"
	"net/http"
)

var (
	ErrUnavailable          = errors.New("server unavailable")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrVerificationRequired = errors.New("verification required")
	ErrNotLoggedIn          = errors.New("not logged in")
)

// APIError is a failure response from the server.
type APIError struct {
	Status               int
	Message              string
	RequiresVerification bool
	Email                string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrVerificationRequired:
		return e.RequiresVerification
	}
	return false
}
