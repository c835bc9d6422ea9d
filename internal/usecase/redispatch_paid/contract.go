package redispatch_paid

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/internal/service/dispatcher"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	ListUnnotifiedPaid(ctx context.Context, paidFrom, paidTo time.Time, limit uint64) ([]uuid.UUID, error)
}

// Dispatcher синхронный прогон побочных эффектов; повтор безопасен
type Dispatcher interface {
	Dispatch(ctx context.Context, bookingID uuid.UUID) (*dispatcher.Report, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
