package zoom

import "errors"

var (
	ErrNotConfigured    = errors.New("zoom: no credentials configured")
	ErrTokenUnavailable = errors.New("zoom: failed to obtain access token")
	ErrUnauthorized     = errors.New("zoom: unauthorized")
	ErrCreateMeeting    = errors.New("zoom: failed to create meeting")
)
