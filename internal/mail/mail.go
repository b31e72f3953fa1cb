// Package mail abstracts the transactional email provider.
package mail

import "context"

// Message is one outbound email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Mailer sends transactional email. Implementations must respect ctx.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
