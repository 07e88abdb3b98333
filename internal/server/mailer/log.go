package mailer

import (
	"context"

	"github.com/dmitrijs2005/tripkeeper/internal/logging"
)

// LogMailer writes messages to the log instead of sending them. It is used
// in development when no SMTP host is configured.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(l logging.Logger) *LogMailer {
	return &LogMailer{logger: l.With("module", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info(ctx, "DEVELOPER MODE: email not sent",
		"to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}
