package accounts

import "errors"

var (
	// ErrInvalidEmail адрес пустой или не похож на email
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
