package services

import (
	"strconv"
	"strings"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/go-playground/validator/v10"
)

const minPasswordLength = 6

// Field-specific messages returned to clients on validation failure.
const (
	msgNameRequired         = "Name is required"
	msgEmailRequired        = "Valid email is required"
	msgPasswordTooShort     = "Password must be at least 6 characters long"
	msgCredentialsRequired  = "Email and password are required"
	msgOTPFormat            = "Valid 6-digit OTP is required"
	msgResetEmailInvalid    = "Please provide a valid email address"
	msgTokenAndPasswordReqd = "Token and new password are required"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// NormalizeEmail trims and lower-cases an address. Every store lookup uses
// the normalised form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmail(email string, message string) error {
	if validate.Var(email, "required,email") != nil {
		return common.NewValidationError("email", message)
	}
	return nil
}

func checkPassword(field, password string) error {
	if validate.Var(password, "min="+strconv.Itoa(minPasswordLength)) != nil {
		return common.NewValidationError(field, msgPasswordTooShort)
	}
	return nil
}

func checkCode(code string) error {
	if validate.Var(code, "required,len=6,number") != nil {
		return common.NewValidationError("otp", msgOTPFormat)
	}
	return nil
}
