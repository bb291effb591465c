// Package email renders and delivers the service's transactional email
// through SES, Resend or the log (development).
package email

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Message is one rendered email ready for a provider.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	log *zap.SugaredLogger
}

func NewLogSender(log *zap.SugaredLogger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Infow("Email (log provider)",
		"to", strings.Join(msg.To, ","),
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}
