// Package mailer sends composed messages to subscribers. The Mailer
// interface is the seam the scheduler and signup flow depend on; SES
// is the production implementation and LogMailer covers development.
package mailer

import (
	"context"
	"errors"
)

// Body is the message payload. At least one of Text and HTML must be
// set; a message may carry both parts.
type Body struct {
	Text string
	HTML string
}

// Empty reports whether the body has no content at all.
func (b Body) Empty() bool { return b.Text == "" && b.HTML == "" }

// ErrEmptyBody rejects a send with neither text nor HTML content.
var ErrEmptyBody = errors.New("message body has no text or html part")

// Mailer delivers one message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject string, body Body) error
}
