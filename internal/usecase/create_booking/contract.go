package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/stancastle-booking/internal/domain"
	"github.com/m04kA/stancastle-booking/pkg/types"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
}

// AvailabilityChecker проверка слота в обход кэша
type AvailabilityChecker interface {
	CheckSlot(ctx context.Context, date time.Time, start types.TimeString) error
}

// CacheInvalidator сброс кэша доступности после записи
type CacheInvalidator interface {
	Invalidate(ctx context.Context, dates ...time.Time) error
}

type Metrics interface {
	IncBookingTransition(status string)
	IncSlotConflict()
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
