package mailer

import (
	"context"

	"github.com/ignite/dailyhi/internal/pkg/logger"
)

// LogMailer logs messages instead of sending them. Used when no SES
// credentials are configured.
type LogMailer struct{}

// Send logs the message and reports success.
func (LogMailer) Send(_ context.Context, to, subject string, body Body) error {
	if body.Empty() {
		return ErrEmptyBody
	}
	logger.Info("mail logged (not sent)",
		"to", to,
		"subject", subject,
		"text_bytes", len(body.Text),
		"html_bytes", len(body.HTML))
	return nil
}
