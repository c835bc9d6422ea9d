package confirm_payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/internal/domain"
	"github.com/m04kA/stancastle-booking/internal/integrations/stripegateway"
)

// EventParser проверка подписи и разбор события шлюза
type EventParser interface {
	ParseEvent(payload []byte, signature string) (*stripegateway.PaymentEvent, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	MarkPaid(ctx context.Context, id uuid.UUID, sessionRef string, amountPaid int64, now time.Time) (bool, error)
}

// EventLedger журнал обработанных событий (идемпотентность по event id)
type EventLedger interface {
	Record(ctx context.Context, eventID, eventType string, bookingID *uuid.UUID, now time.Time) (bool, error)
}

// AccountRepository партнёрский флаг аккаунта
type AccountRepository interface {
	MarkPartner(ctx context.Context, accountID uuid.UUID, gatewayCustomerID string, now time.Time) error
	ClearPartnerByCustomer(ctx context.Context, gatewayCustomerID string, now time.Time) (int64, error)
}

// Dispatcher побочные эффекты после первого перехода в paid
type Dispatcher interface {
	DispatchAsync(ctx context.Context, bookingID uuid.UUID)
}

// CacheInvalidator сброс кэша доступности
type CacheInvalidator interface {
	Invalidate(ctx context.Context, dates ...time.Time) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type Metrics interface {
	IncBookingTransition(status string)
	IncWebhookEvent(eventType, outcome string)
	IncManualRefund(reason string)
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
