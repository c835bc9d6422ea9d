package googlecalendar

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event зеркальное событие в календаре консультанта
type Event struct {
	// ID задаётся клиентом: повторная вставка с тем же ID не создаёт дубль
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	// BookingID попадает в extendedProperties, по нему событие находится повторно
	BookingID string
}

// EventIDFor детерминированный id события для бронирования.
// Google принимает [a-v0-9]{5,1024}, hex без дефисов в это укладывается
func EventIDFor(bookingID uuid.UUID) string {
	return strings.ReplaceAll(bookingID.String(), "-", "")
}
