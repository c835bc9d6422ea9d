package cancel_booking

import (
	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/internal/service/bookings/models"
)

// CancelBookingRequest HTTP request model
type CancelBookingRequest struct {
	CancellationReason string `json:"cancellationReason"`
}

// ToServiceRequest конвертирует в модель сервиса
func (r *CancelBookingRequest) ToServiceRequest(customerRef *uuid.UUID) *models.CancelBookingRequest {
	return &models.CancelBookingRequest{
		CustomerRef:        customerRef,
		CancellationReason: r.CancellationReason,
	}
}
