package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/internal/domain"
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	CustomerRef        *uuid.UUID `json:"-"`
	CancellationReason string     `json:"cancellationReason"`
}

// Response модели

// BookingResponse ответ с данными бронирования. Контакты клиента наружу не отдаём
type BookingResponse struct {
	ID              uuid.UUID `json:"id"`
	ServiceType     string    `json:"serviceType"`
	BookingDate     string    `json:"bookingDate"` // "2026-03-02"
	StartTime       string    `json:"startTime"`   // "09:30"
	DurationMinutes int       `json:"durationMinutes"`
	Status          string    `json:"status"`

	PriceMinor int64  `json:"priceMinor"`
	Currency   string `json:"currency"`
	AmountPaid *int64 `json:"amountPaid,omitempty"`

	MeetingJoinURL *string `json:"meetingJoinUrl,omitempty"`

	CancellationReason *string    `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	PaidAt             *time.Time `json:"paidAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	return &BookingResponse{
		ID:                 b.ID,
		ServiceType:        string(b.ServiceType),
		BookingDate:        b.BookingDate.Format(domain.DateFormat),
		StartTime:          b.StartTime.String(),
		DurationMinutes:    b.DurationMinutes,
		Status:             string(b.Status),
		PriceMinor:         b.PriceMinor,
		Currency:           b.Currency,
		AmountPaid:         b.AmountPaid,
		MeetingJoinURL:     b.MeetingJoinURL,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		PaidAt:             b.PaidAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}
