package begin_payment

import (
	"context"

	beginPayment "github.com/m04kA/stancastle-booking/internal/usecase/begin_payment"
)

type BeginPaymentUseCase interface {
	Execute(ctx context.Context, req *beginPayment.Request) (*beginPayment.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
