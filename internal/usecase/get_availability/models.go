package get_availability

import (
	"time"

	"github.com/m04kA/stancastle-booking/internal/domain"
)

// Request диапазон дат. nil = значение по умолчанию (сегодня, сегодня + DefaultRangeDays)
type Request struct {
	From *time.Time
	To   *time.Time
}

// Response открытые слоты по датам, даты по возрастанию
type Response struct {
	From                time.Time
	To                  time.Time
	SlotDurationMinutes int
	Days                []domain.DayAvailability
	// Degraded календарь недоступен, слоты посчитаны только по шаблону и бронированиям
	Degraded bool
}

// Config параметры доступности
type Config struct {
	Location          *time.Location
	MinNoticeMinutes  int
	DefaultRangeDays  int
	MaxRangeDays      int
	CalendarBatchDays int
}
