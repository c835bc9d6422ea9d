package begin_payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/stancastle-booking/internal/domain"
	bookingRepo "github.com/m04kA/stancastle-booking/internal/infra/storage/booking"
	"github.com/m04kA/stancastle-booking/internal/integrations/stripegateway"
	"github.com/m04kA/stancastle-booking/pkg/logger"
)

type fakeRepo struct {
	booking    *domain.Booking
	getErr     error
	setErr     error
	sessionRef string
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Booking, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	if r.booking == nil || r.booking.ID != id {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return r.booking, nil
}

func (r *fakeRepo) SetPaymentSession(_ context.Context, _ uuid.UUID, sessionRef string, _ time.Time) error {
	if r.setErr != nil {
		return r.setErr
	}
	r.sessionRef = sessionRef
	return nil
}

type fakeGateway struct {
	req   *stripegateway.CheckoutRequest
	err   error
	calls int

	existing  *stripegateway.CheckoutSession
	lookupErr error
	lookedUp  string
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*stripegateway.CheckoutSession, error) {
	g.lookedUp = id
	if g.lookupErr != nil {
		return nil, g.lookupErr
	}
	return g.existing, nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req stripegateway.CheckoutRequest) (*stripegateway.CheckoutSession, error) {
	g.calls++
	g.req = &req
	if g.err != nil {
		return nil, g.err
	}
	return &stripegateway.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/cs_test_1"}, nil
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func pendingBooking(createdAgo time.Duration) *domain.Booking {
	ref := uuid.New()
	return &domain.Booking{
		ID:          uuid.New(),
		CustomerRef: &ref,
		ServiceType: domain.ServiceDiagnostic,
		BookingDate: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
		StartTime:   "09:30",
		Status:      domain.StatusPending,
		Contact:     domain.Contact{FirstName: "Jane", Email: "jane@example.com"},
		PriceMinor:  15999,
		Currency:    "gbp",
		CreatedAt:   testNow.Add(-createdAgo),
	}
}

func newUseCase(repo *fakeRepo, gw *fakeGateway) *UseCase {
	return NewUseCase(repo, gw, domain.DefaultCatalog(), Config{
		SuccessURL:     "https://stancastle.com/booking/success",
		CancelURL:      "https://stancastle.com/booking/cancelled",
		CheckoutExpiry: 30 * time.Minute,
		PendingTTL:     60 * time.Minute,
	}, logger.Nop()).WithTimeProvider(fixedTime{testNow})
}

func TestExecute_Success(t *testing.T) {
	b := pendingBooking(time.Minute)
	repo := &fakeRepo{booking: b}
	gw := &fakeGateway{}

	resp, err := newUseCase(repo, gw).Execute(context.Background(), &Request{BookingID: b.ID})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", resp.CheckoutURL)
	assert.Equal(t, "cs_test_1", repo.sessionRef)
	assert.Equal(t, testNow.Add(30*time.Minute), resp.ExpiresAt)

	require.NotNil(t, gw.req)
	assert.Equal(t, b.ID.String(), gw.req.BookingID)
	assert.Equal(t, b.CustomerRef.String(), gw.req.CustomerRef)
	assert.Equal(t, "Diagnostic Session", gw.req.ProductName)
	assert.Equal(t, int64(15999), gw.req.AmountMinor)
	assert.False(t, gw.req.Recurring)
	assert.Equal(t, "jane@example.com", gw.req.CustomerEmail)
}

func TestExecute_PartnerIsRecurring(t *testing.T) {
	b := pendingBooking(time.Minute)
	b.ServiceType = domain.ServicePartner
	b.PriceMinor = 74999
	gw := &fakeGateway{}

	_, err := newUseCase(&fakeRepo{booking: b}, gw).Execute(context.Background(), &Request{BookingID: b.ID})
	require.NoError(t, err)
	assert.True(t, gw.req.Recurring)
	assert.Equal(t, "month", gw.req.Interval)
}

func TestExecute_ExpiryBoundedByPendingTTL(t *testing.T) {
	b := pendingBooking(25 * time.Minute)
	b.CreatedAt = testNow.Add(-25 * time.Minute)

	uc := newUseCase(&fakeRepo{booking: b}, &fakeGateway{})
	uc.cfg.CheckoutExpiry = 45 * time.Minute

	resp, err := uc.Execute(context.Background(), &Request{BookingID: b.ID})
	require.NoError(t, err)
	// createdAt + 60m = now + 35m < now + 45m
	assert.Equal(t, testNow.Add(35*time.Minute), resp.ExpiresAt)
}

func TestExecute_ReservationTooOld(t *testing.T) {
	b := pendingBooking(40 * time.Minute)
	gw := &fakeGateway{}

	_, err := newUseCase(&fakeRepo{booking: b}, gw).Execute(context.Background(), &Request{BookingID: b.ID})
	assert.ErrorIs(t, err, ErrReservationExpired)
	assert.Zero(t, gw.calls)
}

func TestExecute_StatusChecks(t *testing.T) {
	tests := []struct {
		status domain.BookingStatus
		want   error
	}{
		{domain.StatusPaid, ErrAlreadyPaid},
		{domain.StatusCompleted, ErrAlreadyPaid},
		{domain.StatusCancelled, ErrBookingNotPayable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			b := pendingBooking(time.Minute)
			b.Status = tt.status
			gw := &fakeGateway{}

			_, err := newUseCase(&fakeRepo{booking: b}, gw).Execute(context.Background(), &Request{BookingID: b.ID})
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, gw.calls)
		})
	}
}

func TestExecute_NotFound(t *testing.T) {
	_, err := newUseCase(&fakeRepo{}, &fakeGateway{}).Execute(context.Background(), &Request{BookingID: uuid.New()})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestExecute_GatewayFailureLeavesBookingUntouched(t *testing.T) {
	b := pendingBooking(time.Minute)
	repo := &fakeRepo{booking: b}
	gw := &fakeGateway{err: stripegateway.ErrSessionCreate}

	_, err := newUseCase(repo, gw).Execute(context.Background(), &Request{BookingID: b.ID})
	assert.ErrorIs(t, err, ErrPaymentInit)
	assert.Empty(t, repo.sessionRef)
	assert.Equal(t, domain.StatusPending, b.Status)
}

func TestExecute_StatusChangedWhileCreatingSession(t *testing.T) {
	b := pendingBooking(time.Minute)
	repo := &fakeRepo{booking: b, setErr: bookingRepo.ErrStatusConflict}

	_, err := newUseCase(repo, &fakeGateway{}).Execute(context.Background(), &Request{BookingID: b.ID})
	assert.ErrorIs(t, err, ErrBookingNotPayable)
}

func TestExecute_StorageError(t *testing.T) {
	repo := &fakeRepo{getErr: errors.New("db down")}

	_, err := newUseCase(repo, &fakeGateway{}).Execute(context.Background(), &Request{BookingID: uuid.New()})
	assert.ErrorIs(t, err, ErrInternal)
}

func TestExecute_ReusesOpenSession(t *testing.T) {
	b := pendingBooking(5 * time.Minute)
	ref := "cs_test_open"
	b.PaymentSessionRef = &ref
	repo := &fakeRepo{booking: b}
	expiresAt := testNow.Add(25 * time.Minute)
	gw := &fakeGateway{existing: &stripegateway.CheckoutSession{
		ID:        ref,
		URL:       "https://checkout.stripe.com/c/cs_test_open",
		Status:    stripegateway.SessionOpen,
		ExpiresAt: expiresAt,
	}}

	resp, err := newUseCase(repo, gw).Execute(context.Background(), &Request{BookingID: b.ID})
	require.NoError(t, err)

	assert.Equal(t, ref, gw.lookedUp)
	assert.Zero(t, gw.calls)
	assert.Empty(t, repo.sessionRef)
	assert.Equal(t, ref, resp.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_open", resp.CheckoutURL)
	assert.Equal(t, expiresAt, resp.ExpiresAt)
}

func TestExecute_ExpiredSessionIsReplaced(t *testing.T) {
	b := pendingBooking(5 * time.Minute)
	ref := "cs_test_old"
	b.PaymentSessionRef = &ref
	repo := &fakeRepo{booking: b}
	gw := &fakeGateway{existing: &stripegateway.CheckoutSession{ID: ref, Status: stripegateway.SessionExpired}}

	resp, err := newUseCase(repo, gw).Execute(context.Background(), &Request{BookingID: b.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, gw.calls)
	assert.Equal(t, "cs_test_1", resp.SessionID)
	assert.Equal(t, "cs_test_1", repo.sessionRef)
}

func TestExecute_CompletedSessionBlocksNewCheckout(t *testing.T) {
	b := pendingBooking(5 * time.Minute)
	ref := "cs_test_paid"
	b.PaymentSessionRef = &ref
	repo := &fakeRepo{booking: b}
	gw := &fakeGateway{existing: &stripegateway.CheckoutSession{ID: ref, Status: stripegateway.SessionComplete}}

	_, err := newUseCase(repo, gw).Execute(context.Background(), &Request{BookingID: b.ID})
	assert.ErrorIs(t, err, ErrPaymentInProgress)
	assert.Zero(t, gw.calls)
	assert.Empty(t, repo.sessionRef)
}

func TestExecute_SessionLookupFailure(t *testing.T) {
	b := pendingBooking(5 * time.Minute)
	ref := "cs_test_open"
	b.PaymentSessionRef = &ref
	gw := &fakeGateway{lookupErr: stripegateway.ErrSessionLookup}

	_, err := newUseCase(&fakeRepo{booking: b}, gw).Execute(context.Background(), &Request{BookingID: b.ID})
	assert.ErrorIs(t, err, ErrPaymentInit)
	assert.Zero(t, gw.calls)
}
