package ports

import "context"

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers email. Implementations are the transport only; content is
// assembled by the notification service.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
