package create_booking

import (
	"errors"
	"net/http"

	"github.com/m04kA/stancastle-booking/internal/api/handlers"
	"github.com/m04kA/stancastle-booking/internal/api/middleware"
	beginPayment "github.com/m04kA/stancastle-booking/internal/usecase/begin_payment"
	createBooking "github.com/m04kA/stancastle-booking/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "invalid request body"
	msgValidationFailed   = "validation failed"
	msgUnknownService     = "unknown service type"
	msgSlotNotOffered     = "the selected time is not offered on this date"
	msgTooLateToBook      = "it is too late to book this slot"
	msgSlotTaken          = "the selected slot is no longer available"
	msgPaymentInitFailed  = "payment could not be started, please retry"
	msgReservationExpired = "reservation has expired, please book again"
)

type Handler struct {
	reserve CreateBookingUseCase
	pay     BeginPaymentUseCase
	logger  Logger
}

func NewHandler(reserve CreateBookingUseCase, pay BeginPaymentUseCase, logger Logger) *Handler {
	return &Handler{
		reserve: reserve,
		pay:     pay,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
// Резервирует слот и сразу открывает сессию оплаты
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// 1. Резерв
	booking, err := h.reserve.Execute(r.Context(), req.ToUseCaseRequest(middleware.UserIDPtr(r.Context())))
	if err != nil {
		switch {
		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Validation failed: %v", err)
			handlers.RespondValidationError(w, msgValidationFailed, validationDetails(err))

		case errors.Is(err, createBooking.ErrUnknownService):
			h.logger.Warn("POST /bookings - Unknown service type: %q", req.ServiceType)
			handlers.RespondBadRequest(w, msgUnknownService)

		case errors.Is(err, createBooking.ErrSlotNotOffered):
			handlers.RespondBadRequest(w, msgSlotNotOffered)

		case errors.Is(err, createBooking.ErrTooLateToBook):
			handlers.RespondBadRequest(w, msgTooLateToBook)

		case errors.Is(err, createBooking.ErrSlotTaken):
			h.logger.Info("POST /bookings - Slot taken: %s %s", req.BookingDate, req.StartTime)
			handlers.RespondConflict(w, msgSlotTaken)

		default:
			h.logger.Error("POST /bookings - Failed to create booking: date=%s, time=%s, error=%v",
				req.BookingDate, req.StartTime, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	// 2. Оплата. Резерв уже создан: при сбое шлюза клиент повторяет по bookingId
	payment, err := h.pay.Execute(r.Context(), &beginPayment.Request{BookingID: booking.ID})
	if err != nil {
		switch {
		case errors.Is(err, beginPayment.ErrPaymentInit):
			h.logger.Warn("POST /bookings - Payment init failed: booking_id=%s, error=%v", booking.ID, err)
			handlers.RespondJSON(w, http.StatusBadGateway, PaymentInitFailedResponse{
				Code:      http.StatusBadGateway,
				Message:   msgPaymentInitFailed,
				BookingID: booking.ID,
			})

		case errors.Is(err, beginPayment.ErrReservationExpired):
			h.logger.Warn("POST /bookings - Reservation expired before checkout: booking_id=%s", booking.ID)
			handlers.RespondError(w, http.StatusGone, msgReservationExpired)

		default:
			h.logger.Error("POST /bookings - Failed to start payment: booking_id=%s, error=%v", booking.ID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings - Booking reserved: booking_id=%s, session=%s", booking.ID, payment.SessionID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(booking, payment))
}
