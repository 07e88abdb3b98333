// Package mailer delivers transactional email: verification codes and
// password-reset links.
package mailer

import "context"

// Message is a single email. HTML is optional; Text is always sent.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends a message or returns why it could not.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
