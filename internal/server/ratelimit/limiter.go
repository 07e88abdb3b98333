// Package ratelimit provides atomic check-and-set limiters keyed by string.
// The account service uses them for the per-email send-code cooldown and for
// per-IP request throttling.
package ratelimit

import "context"

// Limiter reports whether an action identified by key may proceed now and,
// if so, records it. Concurrent calls for one key admit at most one caller
// per window.
type Limiter interface {
	TryAcquire(ctx context.Context, key string) (bool, error)
}

// SendCodeKey is the limiter key guarding code issuance for email.
func SendCodeKey(email string) string {
	return "send_code:" + email
}
