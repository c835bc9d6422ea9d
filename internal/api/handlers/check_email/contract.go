package check_email

import "context"

type AccountService interface {
	CheckEmail(ctx context.Context, email string) (bool, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
