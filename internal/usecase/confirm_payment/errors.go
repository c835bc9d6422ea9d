package confirm_payment

import "errors"

var (
	// ErrInvalidSignature подпись не прошла проверку, событие не обработано
	ErrInvalidSignature = errors.New("confirm_payment: invalid signature")

	// ErrInternal ошибка хранилища; транзакция откатана, шлюз повторит доставку
	ErrInternal = errors.New("confirm_payment: internal error")
)
