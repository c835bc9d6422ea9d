package begin_payment

import "errors"

var (
	// ErrBookingNotFound бронирование не найдено
	ErrBookingNotFound = errors.New("begin_payment: booking not found")

	// ErrAlreadyPaid бронирование уже оплачено
	ErrAlreadyPaid = errors.New("begin_payment: booking is already paid")

	// ErrPaymentInProgress клиент уже оплатил сессию, подтверждение ещё не пришло
	ErrPaymentInProgress = errors.New("begin_payment: payment is already submitted")

	// ErrBookingNotPayable бронирование отменено
	ErrBookingNotPayable = errors.New("begin_payment: booking cannot be paid")

	// ErrReservationExpired резерв истекает раньше, чем шлюз позволяет закрыть сессию
	ErrReservationExpired = errors.New("begin_payment: reservation is about to expire")

	// ErrPaymentInit шлюз не создал сессию. Бронирование не изменено, можно повторить
	ErrPaymentInit = errors.New("begin_payment: payment initialisation failed")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("begin_payment: internal error")
)
