package begin_payment

import (
	"time"

	"github.com/google/uuid"
)

// Request модель запроса
type Request struct {
	BookingID uuid.UUID
}

// Response ссылка на оплату
type Response struct {
	BookingID   uuid.UUID
	SessionID   string
	CheckoutURL string
	ExpiresAt   time.Time
}

// Config параметры checkout
type Config struct {
	SuccessURL     string
	CancelURL      string
	CheckoutExpiry time.Duration
	// PendingTTL после него reaper отменяет неоплаченное бронирование
	PendingTTL time.Duration
}

// MinCheckoutExpiry Stripe не принимает expires_at ближе 30 минут
const MinCheckoutExpiry = 30 * time.Minute
