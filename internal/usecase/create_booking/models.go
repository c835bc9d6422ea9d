package create_booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/pkg/types"
)

// Request модель запроса на резервирование слота
type Request struct {
	CustomerRef *uuid.UUID // nil для гостя
	ServiceType string     `validate:"required"`
	Date        string     `validate:"required,datetime=2006-01-02"`
	StartTime   string     `validate:"required,datetime=15:04"`

	FirstName string  `validate:"required,max=100"`
	LastName  string  `validate:"required,max=100"`
	Email     string  `validate:"required,email,max=254"`
	Phone     string  `validate:"required,ukphone"`
	Company   *string `validate:"omitempty,max=200"`
	Website   *string `validate:"omitempty,url,max=500"`
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID              uuid.UUID
	Status          string
	ServiceType     string
	BookingDate     time.Time
	StartTime       types.TimeString
	DurationMinutes int
	PriceMinor      int64
	Currency        string
	CreatedAt       time.Time
}
