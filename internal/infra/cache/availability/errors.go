package availability

import "errors"

var (
	ErrCacheRead   = errors.New("availability.cache: failed to read")
	ErrCacheWrite  = errors.New("availability.cache: failed to write")
	ErrCacheDecode = errors.New("availability.cache: failed to decode value")
)
