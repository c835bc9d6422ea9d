package begin_payment

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/stancastle-booking/internal/api/handlers"
	beginPayment "github.com/m04kA/stancastle-booking/internal/usecase/begin_payment"
)

const (
	msgInvalidBookingID   = "invalid booking id"
	msgNotFound           = "booking not found"
	msgAlreadyPaid        = "booking is already paid"
	msgNotPayable         = "booking can no longer be paid"
	msgPaymentInProgress  = "payment is already submitted and awaiting confirmation"
	msgReservationExpired = "reservation has expired, please book again"
	msgPaymentInitFailed  = "payment could not be started, please retry"
)

// CheckoutResponse HTTP response model
type CheckoutResponse struct {
	BookingID         uuid.UUID `json:"bookingId"`
	CheckoutURL       string    `json:"checkoutUrl"`
	CheckoutSessionID string    `json:"checkoutSessionId"`
	CheckoutExpiresAt string    `json:"checkoutExpiresAt"`
}

type Handler struct {
	useCase BeginPaymentUseCase
	logger  Logger
}

func NewHandler(useCase BeginPaymentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/checkout
// Повторная попытка открыть оплату для существующего резерва
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["bookingId"])
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/checkout - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &beginPayment.Request{BookingID: bookingID})
	if err != nil {
		switch {
		case errors.Is(err, beginPayment.ErrBookingNotFound):
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, beginPayment.ErrAlreadyPaid):
			handlers.RespondConflict(w, msgAlreadyPaid)

		case errors.Is(err, beginPayment.ErrBookingNotPayable):
			handlers.RespondConflict(w, msgNotPayable)

		case errors.Is(err, beginPayment.ErrPaymentInProgress):
			handlers.RespondConflict(w, msgPaymentInProgress)

		case errors.Is(err, beginPayment.ErrReservationExpired):
			handlers.RespondError(w, http.StatusGone, msgReservationExpired)

		case errors.Is(err, beginPayment.ErrPaymentInit):
			h.logger.Warn("POST /bookings/{id}/checkout - Payment init failed: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondError(w, http.StatusBadGateway, msgPaymentInitFailed)

		default:
			h.logger.Error("POST /bookings/{id}/checkout - Failed: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, CheckoutResponse{
		BookingID:         result.BookingID,
		CheckoutURL:       result.CheckoutURL,
		CheckoutSessionID: result.SessionID,
		CheckoutExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
