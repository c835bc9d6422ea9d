package get_availability

import "errors"

var (
	// ErrInvalidRange to раньше from
	ErrInvalidRange = errors.New("get_availability: invalid date range")

	// ErrRangeTooLarge диапазон длиннее допустимого
	ErrRangeTooLarge = errors.New("get_availability: date range too large")

	// ErrSlotNotOffered слота нет в недельном шаблоне на эту дату
	ErrSlotNotOffered = errors.New("get_availability: slot is not offered on this date")

	// ErrTooLateToBook слот в прошлом или ближе минимального уведомления
	ErrTooLateToBook = errors.New("get_availability: too late to book this slot")

	// ErrSlotBusy слот занят во внешнем календаре
	ErrSlotBusy = errors.New("get_availability: slot is busy in the calendar")

	// ErrSlotReserved слот уже занят другим pending/paid бронированием
	ErrSlotReserved = errors.New("get_availability: slot is already reserved")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_availability: internal error")
)
