package domain

import "fmt"

// ServiceType enumerates the bookable offerings
type ServiceType string

const (
	ServiceDiagnostic ServiceType = "diagnostic"
	ServicePartner    ServiceType = "partner"
)

// PaymentMode one-time vs recurring
type PaymentMode string

const (
	PaymentModeOneTime      PaymentMode = "payment"
	PaymentModeSubscription PaymentMode = "subscription"
)

// ServiceOffering price, duration and payment mode of a service type
type ServiceOffering struct {
	Type            ServiceType
	Name            string
	Description     string
	PriceMinor      int64
	Currency        string
	DurationMinutes int
	Mode            PaymentMode
	// RecurringInterval для подписок ("month")
	RecurringInterval string
	// GatewayPriceID если задан, используется вместо inline цены
	GatewayPriceID string
}

// IsRecurring returns true for subscription offerings
func (o ServiceOffering) IsRecurring() bool {
	return o.Mode == PaymentModeSubscription
}

// Catalog набор услуг по типу
type Catalog map[ServiceType]ServiceOffering

// DefaultCatalog прайс по умолчанию
func DefaultCatalog() Catalog {
	return Catalog{
		ServiceDiagnostic: {
			Type:            ServiceDiagnostic,
			Name:            "Diagnostic Session",
			Description:     "90-minute deep dive into your business and priorities",
			PriceMinor:      15999,
			Currency:        DefaultCurrency,
			DurationMinutes: 90,
			Mode:            PaymentModeOneTime,
		},
		ServicePartner: {
			Type:              ServicePartner,
			Name:              "Partner Programme",
			Description:       "Monthly partner programme with a recurring strategy call",
			PriceMinor:        74999,
			Currency:          DefaultCurrency,
			DurationMinutes:   60,
			Mode:              PaymentModeSubscription,
			RecurringInterval: "month",
		},
	}
}

// Lookup возвращает услугу по типу
func (c Catalog) Lookup(t ServiceType) (ServiceOffering, error) {
	o, ok := c[t]
	if !ok {
		return ServiceOffering{}, fmt.Errorf("unknown service type %q", t)
	}
	return o, nil
}

// Has returns true if the catalog knows the service type
func (c Catalog) Has(t ServiceType) bool {
	_, ok := c[t]
	return ok
}
