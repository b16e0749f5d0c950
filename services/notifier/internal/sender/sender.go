package sender

import "context"

// Message is a single confirmation to deliver. To is an email address
// or a phone number depending on the channel.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages through a specific channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}
