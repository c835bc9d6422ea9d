package stripegateway

import "time"

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
