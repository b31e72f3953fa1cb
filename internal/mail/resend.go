package mail

import (
	"context"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/resend/resend-go/v2"
)

var _ Mailer = (*ResendMailer)(nil)

// ResendMailer sends email through the Resend API.
type ResendMailer struct {
	client *resend.Client
}

// NewResendMailer creates a mailer authenticated with the given API key.
// baseURL overrides the Resend endpoint; leave it empty for production.
func NewResendMailer(apiKey, baseURL string) (*ResendMailer, error) {
	client := resend.NewClient(apiKey)
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, errors.Wrap(err, "parse resend base URL")
		}
		client.BaseURL = u
	}
	return &ResendMailer{client: client}, nil
}

// Send delivers one email.
func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return errors.Wrap(err, "resend: send email")
	}
	return nil
}
