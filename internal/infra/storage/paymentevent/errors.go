package paymentevent

import "errors"

var (
	ErrBuildQuery = errors.New("paymentevent.repository: failed to build query")
	ErrExecQuery  = errors.New("paymentevent.repository: failed to execute query")
)
