package mailer

import "context"

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Sender транспорт писем
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}
