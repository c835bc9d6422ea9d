package create_booking

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrUnknownService неизвестный тип услуги
	ErrUnknownService = errors.New("create_booking: unknown service type")

	// ErrSlotNotOffered слота нет в расписании на эту дату
	ErrSlotNotOffered = errors.New("create_booking: slot is not offered on this date")

	// ErrTooLateToBook слот в прошлом или ближе минимального уведомления
	ErrTooLateToBook = errors.New("create_booking: too late to book this slot")

	// ErrSlotTaken слот занят: другим бронированием или во внешнем календаре
	ErrSlotTaken = errors.New("create_booking: slot is already taken")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
