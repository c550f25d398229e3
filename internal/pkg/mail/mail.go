// Package mail sends transactional email. Use cases depend on the Mail
// interface; SMTP is the only transport shipped.
package mail

import (
	"context"
	"io"
)

// Message is one outgoing email. When both bodies are set the message is
// sent as multipart/alternative.
type Message struct {
	From     string // empty means the sender's configured default
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
