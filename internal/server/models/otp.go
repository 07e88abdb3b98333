package models

import "time"

// OTPCode is the single outstanding one-time code for an email address.
type OTPCode struct {
	Email     string
	Code      string
	IPAddress string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// Valid reports whether the code can still be redeemed at now.
func (c *OTPCode) Valid(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}
