package mailer

import "errors"

var (
	ErrInvalidMessage = errors.New("mailer: invalid message")
	ErrRender         = errors.New("mailer: failed to render template")
	ErrSend           = errors.New("mailer: failed to send message")
	ErrNoTransport    = errors.New("mailer: no transport configured")
)
