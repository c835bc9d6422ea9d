package dispatcher

import "errors"

var (
	// ErrNotPaid побочные эффекты запускаются только для оплаченного бронирования
	ErrNotPaid = errors.New("dispatcher: booking is not paid")

	// ErrLoadBooking бронирование не прочитано, шаги не выполнялись
	ErrLoadBooking = errors.New("dispatcher: failed to load booking")
)
