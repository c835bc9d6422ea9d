package googlecalendar

import "errors"

var (
	ErrInvalidRange  = errors.New("googlecalendar: invalid time range")
	ErrFreeBusy      = errors.New("googlecalendar: free/busy query failed")
	ErrCalendarError = errors.New("googlecalendar: calendar reported an error")
	ErrInsertEvent   = errors.New("googlecalendar: failed to insert event")
)
