package delivery

import (
	"fmt"
	"html"
	"time"

	"github.com/osteele/liquid"

	"github.com/ignite/dailyhi/internal/domain"
	"github.com/ignite/dailyhi/internal/mailer"
)

// digestHTMLTemplate renders the daily digest. Photo and fact blocks
// are omitted when the binding is absent.
const digestHTMLTemplate = `<html>
<body style="font-family: sans-serif; max-width: 640px; margin: 0 auto;">
  <h1>Good morning!</h1>
  <p>It's {{ weekday }}, {{ date }}. Here's your daily hi.</p>
{% if photo %}
  <p>
    <a href="{{ photo.page_url }}"><img src="{{ photo.url }}" width="{{ photo.width }}" height="{{ photo.height }}" alt="{{ photo.title | escape }}" style="max-width: 100%;"></a>
  </p>
{% endif %}
{% if fact %}
  <p><em>{{ fact | escape }}</em></p>
{% endif %}
  <p>Have a wonderful day.</p>
</body>
</html>
`

const digestTextTemplate = `Good morning! It's {{ weekday }}, {{ date }}.
{% if fact %}
{{ fact }}
{% endif %}
Have a wonderful day.
`

const verificationTextTemplate = `Before you can receive emails, we need to verify your email address.

Daily bliss, after you click this link:
  {{ url }}

`

// VerificationSubject is the fixed subject of the verification mail.
const VerificationSubject = "Please verify your email address"

// Composer renders digest and verification messages from Liquid
// templates parsed once at startup.
type Composer struct {
	hostname   string
	digestHTML *liquid.Template
	digestText *liquid.Template
	verifyText *liquid.Template
}

// NewComposer parses the message templates. hostname appears in
// verification links as http://<hostname>/verify/<code>.
func NewComposer(hostname string) (*Composer, error) {
	engine := liquid.NewEngine()
	engine.RegisterFilter("escape", htmlEscape)

	c := &Composer{hostname: hostname}
	var err error
	if c.digestHTML, err = engine.ParseString(digestHTMLTemplate); err != nil {
		return nil, fmt.Errorf("parse digest html template: %w", err)
	}
	if c.digestText, err = engine.ParseString(digestTextTemplate); err != nil {
		return nil, fmt.Errorf("parse digest text template: %w", err)
	}
	if c.verifyText, err = engine.ParseString(verificationTextTemplate); err != nil {
		return nil, fmt.Errorf("parse verification template: %w", err)
	}
	return c, nil
}

// Subject returns the digest subject line for a local time.
func Subject(localTime time.Time) string {
	return fmt.Sprintf("Good morning, today is %s!", localTime.Weekday())
}

// Digest renders the daily message for one subscriber. Photo and fact
// are optional; absent values drop their section from the output.
func (c *Composer) Digest(sub *domain.Subscriber, localTime time.Time, photo *domain.Photo, fact string) (mailer.Body, error) {
	bindings := map[string]interface{}{
		"email":   sub.Email,
		"weekday": localTime.Weekday().String(),
		"date":    localTime.Format("January 2, 2006"),
	}
	if photo != nil {
		bindings["photo"] = map[string]interface{}{
			"title":    photo.Title,
			"url":      photo.URL,
			"page_url": photo.PageURL,
			"width":    photo.Width,
			"height":   photo.Height,
		}
	}
	if fact != "" {
		bindings["fact"] = fact
	}

	html, err := c.digestHTML.RenderString(bindings)
	if err != nil {
		return mailer.Body{}, fmt.Errorf("render digest html: %w", err)
	}
	text, err := c.digestText.RenderString(bindings)
	if err != nil {
		return mailer.Body{}, fmt.Errorf("render digest text: %w", err)
	}
	return mailer.Body{Text: text, HTML: html}, nil
}

// VerificationURL builds the link a new subscriber must follow.
func (c *Composer) VerificationURL(code string) string {
	return fmt.Sprintf("http://%s/verify/%s", c.hostname, code)
}

// Verification renders the text-only verification request mail.
func (c *Composer) Verification(code string) (mailer.Body, error) {
	text, err := c.verifyText.RenderString(map[string]interface{}{
		"url": c.VerificationURL(code),
	})
	if err != nil {
		return mailer.Body{}, fmt.Errorf("render verification mail: %w", err)
	}
	return mailer.Body{Text: text}, nil
}

func htmlEscape(s string) string {
	return html.EscapeString(s)
}
