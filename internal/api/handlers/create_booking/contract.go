package create_booking

import (
	"context"

	beginPayment "github.com/m04kA/stancastle-booking/internal/usecase/begin_payment"
	createBooking "github.com/m04kA/stancastle-booking/internal/usecase/create_booking"
)

type CreateBookingUseCase interface {
	Execute(ctx context.Context, req *createBooking.Request) (*createBooking.Response, error)
}

type BeginPaymentUseCase interface {
	Execute(ctx context.Context, req *beginPayment.Request) (*beginPayment.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
