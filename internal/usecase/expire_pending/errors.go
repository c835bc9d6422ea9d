package expire_pending

import "errors"

var (
	ErrInvalidTTL = errors.New("expire_pending: ttl must be positive")
	ErrInternal   = errors.New("expire_pending: internal error")
)
