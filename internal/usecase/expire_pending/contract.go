package expire_pending

import (
	"context"
	"time"

	bookingRepo "github.com/m04kA/stancastle-booking/internal/infra/storage/booking"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	ExpirePending(ctx context.Context, cutoff, now time.Time) ([]bookingRepo.ExpiredBooking, error)
}

// CacheInvalidator сброс кэша доступности
type CacheInvalidator interface {
	Invalidate(ctx context.Context, dates ...time.Time) error
}

type Metrics interface {
	IncBookingTransition(status string)
	AddExpiredBookings(n int)
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
