package accounts

import "context"

// AccountRepository интерфейс репозитория аккаунтов
type AccountRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
