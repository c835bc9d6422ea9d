package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/pkg/types"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusPaid      BookingStatus = "paid"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// transitions допустимые переходы. Статус двигается только вперёд
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// IsValid returns true for known statuses
func (s BookingStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the status may move to next
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal returns true for completed and cancelled
func (s BookingStatus) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// IsBlocking returns true if a booking in this status occupies its slot
func (s BookingStatus) IsBlocking() bool {
	for _, b := range BlockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

// Contact данные клиента, собранные при резервировании (в том числе для гостей)
type Contact struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Company   *string
	Website   *string
}

// DisplayName имя для писем
func (c Contact) DisplayName() string {
	switch {
	case c.FirstName != "":
		return c.FirstName
	case c.LastName != "":
		return c.LastName
	default:
		return "there"
	}
}

// Booking represents a consultation booking
type Booking struct {
	ID              uuid.UUID
	CustomerRef     *uuid.UUID // nil = гостевое бронирование
	ServiceType     ServiceType
	BookingDate     time.Time
	StartTime       types.TimeString
	DurationMinutes int
	Status          BookingStatus
	Contact         Contact

	// Цена на момент резервирования, в минимальных единицах валюты
	PriceMinor int64
	Currency   string

	PaymentSessionRef *string
	AmountPaid        *int64
	PaidAt            *time.Time

	MeetingRef     *string
	MeetingJoinURL *string
	NotifiedAt     *time.Time

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking still occupies its slot
func (b *Booking) IsActive() bool {
	return b.Status.IsBlocking()
}

// CanBeCancelled returns true if the booking can be cancelled
func (b *Booking) CanBeCancelled() bool {
	return b.Status.CanTransitionTo(StatusCancelled)
}

// IsPaid returns true once payment was confirmed (paid or later, except cancellation)
func (b *Booking) IsPaid() bool {
	return b.Status == StatusPaid || b.Status == StatusCompleted
}

// HasMeeting returns true if the meeting reference was attached
func (b *Booking) HasMeeting() bool {
	return b.MeetingRef != nil && *b.MeetingRef != ""
}

// StartsAt returns the absolute start time of the booking in loc
func (b *Booking) StartsAt(loc *time.Location) (time.Time, error) {
	return b.StartTime.On(b.BookingDate, loc)
}
