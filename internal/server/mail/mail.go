// Package mail delivers account emails (verification and password reset)
// through a pluggable Sender, off the request path.
package mail

import "context"

// Message is a single HTML email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers one message. Implementations must honour ctx deadlines
// where the transport allows it.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
