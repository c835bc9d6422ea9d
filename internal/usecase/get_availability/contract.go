package get_availability

import (
	"context"
	"time"

	"github.com/m04kA/stancastle-booking/internal/domain"
	"github.com/m04kA/stancastle-booking/pkg/types"
)

// BookingRepository занятые слоты
type BookingRepository interface {
	GetActiveSlots(ctx context.Context, from, to time.Time) ([]domain.SlotKey, error)
}

// CalendarClient внешний календарь консультанта
type CalendarClient interface {
	FreeBusy(ctx context.Context, from, to time.Time) ([]domain.BusyInterval, error)
}

// SlotCache кэш открытых слотов по датам
type SlotCache interface {
	Get(ctx context.Context, date time.Time) ([]types.TimeString, bool, error)
	Set(ctx context.Context, date time.Time, slots []types.TimeString) error
}

type Metrics interface {
	IncAvailabilityDegraded()
	IncAvailabilityCache(result string)
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
