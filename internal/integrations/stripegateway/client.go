package stripegateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const sessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

// checkoutSessionAPI подмножество stripe.Client.V1CheckoutSessions
type checkoutSessionAPI interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
	Retrieve(ctx context.Context, id string, params *stripe.CheckoutSessionRetrieveParams) (*stripe.CheckoutSession, error)
}

// Client адаптер Stripe: создание checkout-сессии и разбор подписанных событий
type Client struct {
	sessions      checkoutSessionAPI
	webhookSecret string
	log           Logger
}

// NewClient создает адаптер поверх stripe.Client
func NewClient(secretKey, webhookSecret string, log Logger) *Client {
	sc := stripe.NewClient(secretKey)
	return newClient(sc.V1CheckoutSessions, webhookSecret, log)
}

func newClient(sessions checkoutSessionAPI, webhookSecret string, log Logger) *Client {
	return &Client{
		sessions:      sessions,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// CreateCheckoutSession создает hosted checkout для бронирования
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if err := validateCheckoutRequest(req); err != nil {
		return nil, err
	}

	successURL, err := withQuery(req.SuccessURL, req.BookingID, true)
	if err != nil {
		return nil, fmt.Errorf("%w: success url: %v", ErrInvalidRequest, err)
	}
	cancelURL, err := withQuery(req.CancelURL, req.BookingID, false)
	if err != nil {
		return nil, fmt.Errorf("%w: cancel url: %v", ErrInvalidRequest, err)
	}

	metadata := map[string]string{
		MetadataBookingID:   req.BookingID,
		MetadataServiceType: req.ServiceType,
	}
	if req.CustomerRef != "" {
		metadata[MetadataCustomerRef] = req.CustomerRef
	}

	params := &stripe.CheckoutSessionCreateParams{
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ClientReferenceID: stripe.String(req.BookingID),
		Metadata:          metadata,
		LineItems:         []*stripe.CheckoutSessionCreateLineItemParams{lineItem(req)},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(req.ExpiresAt.Unix())
	}

	if req.Recurring {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		params.SubscriptionData = &stripe.CheckoutSessionCreateSubscriptionDataParams{
			Metadata: metadata,
		}
	} else {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
		params.PaymentIntentData = &stripe.CheckoutSessionCreatePaymentIntentDataParams{
			Metadata: metadata,
		}
	}

	session, err := c.sessions.Create(ctx, params)
	if err != nil {
		c.log.Error("Stripe: create checkout session failed for booking_id=%s: %v", req.BookingID, err)
		return nil, fmt.Errorf("%w: booking_id=%s: %v", ErrSessionCreate, req.BookingID, err)
	}
	if session == nil || session.URL == "" {
		return nil, fmt.Errorf("%w: booking_id=%s: empty session url", ErrSessionCreate, req.BookingID)
	}

	c.log.Info("Stripe: checkout session %s created for booking_id=%s", session.ID, req.BookingID)

	out := &CheckoutSession{ID: session.ID, URL: session.URL, Status: SessionOpen}
	if session.ExpiresAt > 0 {
		out.ExpiresAt = unixTime(session.ExpiresAt)
	}
	return out, nil
}

// GetCheckoutSession текущее состояние ранее созданной сессии
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidRequest)
	}

	session, err := c.sessions.Retrieve(ctx, id, &stripe.CheckoutSessionRetrieveParams{})
	if err != nil {
		c.log.Error("Stripe: retrieve checkout session %s failed: %v", id, err)
		return nil, fmt.Errorf("%w: session=%s: %v", ErrSessionLookup, id, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session=%s: empty response", ErrSessionLookup, id)
	}

	out := &CheckoutSession{ID: session.ID, URL: session.URL, Status: SessionStatus(session.Status)}
	if session.ExpiresAt > 0 {
		out.ExpiresAt = unixTime(session.ExpiresAt)
	}
	return out, nil
}

func lineItem(req CheckoutRequest) *stripe.CheckoutSessionCreateLineItemParams {
	if req.PriceID != "" {
		return &stripe.CheckoutSessionCreateLineItemParams{
			Price:    stripe.String(req.PriceID),
			Quantity: stripe.Int64(1),
		}
	}

	priceData := &stripe.CheckoutSessionCreateLineItemPriceDataParams{
		Currency:   stripe.String(strings.ToLower(req.Currency)),
		UnitAmount: stripe.Int64(req.AmountMinor),
		ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
			Name: stripe.String(req.ProductName),
		},
	}
	if req.Description != "" {
		priceData.ProductData.Description = stripe.String(req.Description)
	}
	if req.Recurring {
		priceData.Recurring = &stripe.CheckoutSessionCreateLineItemPriceDataRecurringParams{
			Interval: stripe.String(req.Interval),
		}
	}

	return &stripe.CheckoutSessionCreateLineItemParams{
		PriceData: priceData,
		Quantity:  stripe.Int64(1),
	}
}

func validateCheckoutRequest(req CheckoutRequest) error {
	switch {
	case req.BookingID == "":
		return fmt.Errorf("%w: booking id is required", ErrInvalidRequest)
	case req.SuccessURL == "" || req.CancelURL == "":
		return fmt.Errorf("%w: success and cancel urls are required", ErrInvalidRequest)
	case req.PriceID == "" && (req.AmountMinor <= 0 || req.Currency == "" || req.ProductName == ""):
		return fmt.Errorf("%w: price, currency and product name are required without a price id", ErrInvalidRequest)
	case req.Recurring && req.PriceID == "" && req.Interval == "":
		return fmt.Errorf("%w: recurring price needs an interval", ErrInvalidRequest)
	}
	return nil
}

// withQuery добавляет booking_id (и session_id на success) к redirect URL.
// Плейсхолдер {CHECKOUT_SESSION_ID} подставляет сам Stripe, поэтому он идёт без экранирования
func withQuery(raw, bookingID string, withSession bool) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(MetadataBookingID, bookingID)
	q.Del("session_id")
	encoded := q.Encode()

	if withSession {
		encoded += "&session_id=" + sessionIDPlaceholder
	}
	u.RawQuery = encoded
	return u.String(), nil
}

// ParseEvent проверяет подпись и только потом разбирает событие
func (c *Client) ParseEvent(payload []byte, signature string) (*PaymentEvent, error) {
	if signature == "" {
		return nil, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &PaymentEvent{
		ID:      event.ID,
		RawType: string(event.Type),
		Kind:    EventIgnored,
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", ErrMalformedEvent, err)
		}
		out.Kind = EventCheckoutCompleted
		out.SessionID = cs.ID
		out.BookingID = cs.Metadata[MetadataBookingID]
		out.ServiceType = cs.Metadata[MetadataServiceType]
		out.CustomerRef = cs.Metadata[MetadataCustomerRef]
		out.AmountTotal = cs.AmountTotal
		out.Currency = string(cs.Currency)
		out.Paid = cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
		if cs.Customer != nil {
			out.CustomerID = cs.Customer.ID
		}
		if cs.Subscription != nil {
			out.SubscriptionID = cs.Subscription.ID
		}

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: subscription: %v", ErrMalformedEvent, err)
		}
		out.Kind = EventSubscriptionCancelled
		out.SubscriptionID = sub.ID
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}

	case stripe.EventTypeInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("%w: invoice: %v", ErrMalformedEvent, err)
		}
		out.Kind = EventInvoicePaymentFailed
		out.InvoiceID = inv.ID
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
	}

	return out, nil
}
