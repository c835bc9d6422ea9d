package redispatch_paid

import "errors"

var (
	ErrInvalidWindow = errors.New("redispatch_paid: grace must be positive and less than max age")
	ErrInternal      = errors.New("redispatch_paid: internal error")
)
