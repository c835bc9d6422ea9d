package confirm_payment

import "github.com/google/uuid"

// Request сырое тело webhook и заголовок подписи
type Request struct {
	Payload   []byte
	Signature string
}

// Outcome результат обработки события. Любой Outcome означает 200 для шлюза
type Outcome string

const (
	OutcomeConfirmed        Outcome = "confirmed"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeAlreadyPaid      Outcome = "already_paid"
	OutcomeDoublePayment    Outcome = "double_payment"
	OutcomeUnknownBooking   Outcome = "unknown_booking"
	OutcomeCancelledBooking Outcome = "cancelled_booking"
	OutcomeAwaitingPayment  Outcome = "awaiting_payment"
	OutcomePartnerCleared   Outcome = "partner_cleared"
	OutcomePaymentFailed    Outcome = "payment_failed"
	OutcomeMalformed        Outcome = "malformed"
	OutcomeIgnored          Outcome = "ignored"
)

// Response итог обработки
type Response struct {
	EventID   string
	EventType string
	Outcome   Outcome
	BookingID *uuid.UUID
}
