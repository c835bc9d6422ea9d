package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string, now time.Time) error
}

// CacheInvalidator сброс кэша доступности
type CacheInvalidator interface {
	Invalidate(ctx context.Context, dates ...time.Time) error
}

type Metrics interface {
	IncBookingTransition(status string)
	IncManualRefund(reason string)
}

// ManualRefundCancelledPaid причина ручного возврата при отмене оплаченного бронирования
const ManualRefundCancelledPaid = "cancelled_paid"

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

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time { return time.Now() }
