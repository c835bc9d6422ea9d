package create_booking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/internal/domain"
	beginPayment "github.com/m04kA/stancastle-booking/internal/usecase/begin_payment"
	createBooking "github.com/m04kA/stancastle-booking/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ServiceType string  `json:"serviceType"`
	BookingDate string  `json:"bookingDate"` // "2026-03-02"
	StartTime   string  `json:"startTime"`   // "09:30"
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Company     *string `json:"company,omitempty"`
	Website     *string `json:"website,omitempty"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID              uuid.UUID `json:"id"`
	Status          string    `json:"status"`
	ServiceType     string    `json:"serviceType"`
	BookingDate     string    `json:"bookingDate"`
	StartTime       string    `json:"startTime"`
	DurationMinutes int       `json:"durationMinutes"`
	PriceMinor      int64     `json:"priceMinor"`
	Currency        string    `json:"currency"`
	CreatedAt       string    `json:"createdAt"`
}

// CreateBookingResponse резерв и ссылка на оплату
type CreateBookingResponse struct {
	Booking           *BookingResponse `json:"booking"`
	CheckoutURL       string           `json:"checkoutUrl"`
	CheckoutSessionID string           `json:"checkoutSessionId"`
	CheckoutExpiresAt string           `json:"checkoutExpiresAt"`
}

// PaymentInitFailedResponse 502: резерв создан, оплату можно повторить по bookingId
type PaymentInitFailedResponse struct {
	Code      int       `json:"code"`
	Message   string    `json:"message"`
	BookingID uuid.UUID `json:"bookingId"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(customerRef *uuid.UUID) *createBooking.Request {
	return &createBooking.Request{
		CustomerRef: customerRef,
		ServiceType: r.ServiceType,
		Date:        r.BookingDate,
		StartTime:   r.StartTime,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		Phone:       r.Phone,
		Company:     r.Company,
		Website:     r.Website,
	}
}

// FromUseCaseResponse конвертирует ответы use case в HTTP response
func FromUseCaseResponse(booking *createBooking.Response, payment *beginPayment.Response) *CreateBookingResponse {
	return &CreateBookingResponse{
		Booking:           fromBooking(booking),
		CheckoutURL:       payment.CheckoutURL,
		CheckoutSessionID: payment.SessionID,
		CheckoutExpiresAt: payment.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func fromBooking(b *createBooking.Response) *BookingResponse {
	return &BookingResponse{
		ID:              b.ID,
		Status:          b.Status,
		ServiceType:     b.ServiceType,
		BookingDate:     b.BookingDate.Format(domain.DateFormat),
		StartTime:       b.StartTime.String(),
		DurationMinutes: b.DurationMinutes,
		PriceMinor:      b.PriceMinor,
		Currency:        b.Currency,
		CreatedAt:       b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// validationDetails раскладывает сообщение валидатора по полям
func validationDetails(err error) []string {
	_, rest, ok := strings.Cut(err.Error(), createBooking.ErrInvalidInput.Error()+": ")
	if !ok || rest == "" {
		return nil
	}
	return strings.Split(rest, "; ")
}
