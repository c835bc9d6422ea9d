package dispatcher

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/internal/domain"
	"github.com/m04kA/stancastle-booking/internal/integrations/googlecalendar"
	"github.com/m04kA/stancastle-booking/internal/integrations/mailer"
	"github.com/m04kA/stancastle-booking/internal/integrations/zoom"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	AttachMeeting(ctx context.Context, id uuid.UUID, meetingRef, joinURL string, now time.Time) (bool, error)
	MarkNotified(ctx context.Context, id uuid.UUID, now time.Time) error
}

// MeetingCreator сервис видеовстреч
type MeetingCreator interface {
	CreateMeeting(ctx context.Context, req zoom.MeetingRequest) (*zoom.Meeting, error)
}

// CalendarWriter зеркалирование в календарь консультанта
type CalendarWriter interface {
	InsertEvent(ctx context.Context, e googlecalendar.Event) (string, error)
}

// Notifier отправка писем клиенту
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, d mailer.SessionDetails) error
	SendMeetingDetails(ctx context.Context, d mailer.SessionDetails) error
}

type Metrics interface {
	IncSideEffectFailure(step string)
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

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time { return time.Now() }
