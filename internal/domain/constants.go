package domain

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// BusinessTimezone все слоты и даты бронирований в этой зоне
const BusinessTimezone = "Europe/London"

// Default configuration values
const (
	DefaultSlotDurationMinutes     = 90
	DefaultAvailabilityRangeDays   = 21
	DefaultMaxAvailabilityDays     = 93
	DefaultMinBookingNoticeMinutes = 60
	DefaultPendingTTLMinutes       = 60
	DefaultCurrency                = "gbp"
)

// Business validation constants
const (
	MaxNameLength               = 100
	MaxCompanyLength            = 200
	MaxWebsiteLength            = 500
	MaxCancellationReasonLength = 500
)

// Cancellation reasons
const (
	CancellationReasonPaymentTimeout = "payment_timeout"
	CancellationReasonCustomer       = "cancelled_by_customer"
)

// BlockingStatuses статусы, которые занимают слот
// Используется при подсчёте доступных слотов и в частичном уникальном индексе
var BlockingStatuses = []BookingStatus{
	StatusPending,
	StatusPaid,
}
