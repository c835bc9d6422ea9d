package begin_payment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/internal/domain"
	"github.com/m04kA/stancastle-booking/internal/integrations/stripegateway"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	SetPaymentSession(ctx context.Context, id uuid.UUID, sessionRef string, now time.Time) error
}

// PaymentGateway создание checkout-сессии и проверка ранее созданной
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req stripegateway.CheckoutRequest) (*stripegateway.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*stripegateway.CheckoutSession, error)
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
