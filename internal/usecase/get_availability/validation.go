package get_availability

import "errors"

// isSlotRejection ошибка означает "слот закрыт", а не сбой
func isSlotRejection(err error) bool {
	return errors.Is(err, ErrSlotNotOffered) ||
		errors.Is(err, ErrTooLateToBook) ||
		errors.Is(err, ErrSlotBusy) ||
		errors.Is(err, ErrSlotReserved)
}
