package get_availability

import (
	"time"

	"github.com/m04kA/stancastle-booking/internal/domain"
	getAvailability "github.com/m04kA/stancastle-booking/internal/usecase/get_availability"
	"github.com/m04kA/stancastle-booking/pkg/ptr"
)

// AvailabilityResponse HTTP response model
type AvailabilityResponse struct {
	From                string            `json:"from"`
	To                  string            `json:"to"`
	Timezone            string            `json:"timezone"`
	SlotDurationMinutes int               `json:"slotDurationMinutes"`
	Days                []DayAvailability `json:"days"`
	Degraded            bool              `json:"degraded"`
}

// DayAvailability открытые слоты одной даты
type DayAvailability struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// ToUseCaseRequest разбирает query параметры from/to (YYYY-MM-DD), пустые = по умолчанию
func ToUseCaseRequest(fromStr, toStr string, loc *time.Location) (*getAvailability.Request, error) {
	req := &getAvailability.Request{}

	if fromStr != "" {
		from, err := domain.ParseDate(fromStr, loc)
		if err != nil {
			return nil, err
		}
		req.From = ptr.Ptr(from)
	}
	if toStr != "" {
		to, err := domain.ParseDate(toStr, loc)
		if err != nil {
			return nil, err
		}
		req.To = ptr.Ptr(to)
	}
	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailability.Response, loc *time.Location) *AvailabilityResponse {
	days := make([]DayAvailability, len(resp.Days))
	for i, d := range resp.Days {
		slots := make([]string, len(d.Slots))
		for j, s := range d.Slots {
			slots[j] = s.String()
		}
		days[i] = DayAvailability{Date: d.Date.Format(domain.DateFormat), Slots: slots}
	}

	return &AvailabilityResponse{
		From:                resp.From.Format(domain.DateFormat),
		To:                  resp.To.Format(domain.DateFormat),
		Timezone:            loc.String(),
		SlotDurationMinutes: resp.SlotDurationMinutes,
		Days:                days,
		Degraded:            resp.Degraded,
	}
}
