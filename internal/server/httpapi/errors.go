package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	msgBadBody            = "Invalid request body"
	msgAlreadyRegistered  = "Email already registered. Please log in instead."
	msgInvalidCredentials = "Invalid email or password"
	msgVerifyEmail        = "Please verify your email address with the OTP sent to your email."
	msgAccountDisabled    = "Account is deactivated. Please contact support."
	msgSlowDown           = "Please wait before requesting another OTP"
	msgTooManyRequests    = "Too many requests. Please slow down."
	msgInvalidCode        = "Invalid or expired OTP"
	msgInvalidResetToken  = "Invalid or expired token. Please request a new password reset."
	msgUserNotFound       = "User not found"
	msgUnauthorized       = "Authentication credentials were not provided or are invalid."
	msgTokenExpired       = "Token has expired"
	msgTimeout            = "Request timed out. Please try again."
	msgInternal           = "An error occurred while processing your request."
)

// statusFor maps a service error to an HTTP status and a client-facing
// message. Anything unrecognised is a 500 with a generic message.
func statusFor(err error) (int, string) {
	var verr *common.ValidationError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, common.ErrAlreadyRegistered):
		return http.StatusBadRequest, msgAlreadyRegistered
	case errors.Is(err, common.ErrInvalidOrExpiredCode):
		return http.StatusBadRequest, msgInvalidCode
	case errors.Is(err, common.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest, msgInvalidResetToken
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, msgTokenExpired
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, common.ErrVerificationRequired):
		return http.StatusForbidden, msgVerifyEmail
	case errors.Is(err, common.ErrAccountDisabled):
		return http.StatusForbidden, msgAccountDisabled
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, msgUserNotFound
	case errors.Is(err, common.ErrTooManyRequests):
		return http.StatusTooManyRequests, msgSlowDown
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	c.AbortWithStatusJSON(status, errorResponse{Message: msg})
}

func writeMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Message: msg})
}
