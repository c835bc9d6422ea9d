package stripegateway

import "time"

// Ключи metadata checkout-сессии
const (
	MetadataBookingID   = "booking_id"
	MetadataServiceType = "service_type"
	MetadataCustomerRef = "customer_ref"
)

// CheckoutRequest параметры checkout-сессии для одного бронирования
type CheckoutRequest struct {
	BookingID     string
	ServiceType   string
	CustomerRef   string // пусто для гостя
	CustomerEmail string

	ProductName string
	Description string
	AmountMinor int64
	Currency    string

	// Recurring = подписка с интервалом Interval ("month")
	Recurring bool
	Interval  string
	// PriceID готовая цена в Stripe, если задана, заменяет inline цену
	PriceID string

	SuccessURL string
	CancelURL  string
	ExpiresAt  time.Time
}

// SessionStatus состояние checkout-сессии
type SessionStatus string

const (
	SessionOpen     SessionStatus = "open"
	SessionComplete SessionStatus = "complete"
	SessionExpired  SessionStatus = "expired"
)

// CheckoutSession созданная сессия
type CheckoutSession struct {
	ID        string
	URL       string
	Status    SessionStatus
	ExpiresAt time.Time
}

// EventKind нормализованный тип события
type EventKind string

const (
	EventCheckoutCompleted     EventKind = "checkout_completed"
	EventSubscriptionCancelled EventKind = "subscription_cancelled"
	EventInvoicePaymentFailed  EventKind = "invoice_payment_failed"
	EventIgnored               EventKind = "ignored"
)

// PaymentEvent проверенное событие шлюза без stripe-специфичных типов
type PaymentEvent struct {
	ID      string
	RawType string
	Kind    EventKind

	// Для checkout событий
	SessionID   string
	BookingID   string
	ServiceType string
	CustomerRef string
	AmountTotal int64
	Currency    string
	// Paid false для отложенных методов оплаты: ждём async_payment_succeeded
	Paid bool

	CustomerID     string
	SubscriptionID string
	InvoiceID      string
}
