package mail

import "context"

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Client sends email. Implementations live in infra so that the application
// layer does not depend on a particular provider SDK.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
