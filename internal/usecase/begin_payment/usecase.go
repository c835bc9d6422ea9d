package begin_payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/stancastle-booking/internal/domain"
	bookingRepo "github.com/m04kA/stancastle-booking/internal/infra/storage/booking"
	"github.com/m04kA/stancastle-booking/internal/integrations/stripegateway"
)

// UseCase use case начала оплаты
type UseCase struct {
	bookingRepo  BookingRepository
	gateway      PaymentGateway
	catalog      domain.Catalog
	cfg          Config
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	gateway PaymentGateway,
	catalog domain.Catalog,
	cfg Config,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		gateway:      gateway,
		catalog:      catalog,
		cfg:          cfg,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет часы (тесты)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute создает checkout-сессию для pending бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("BeginPayment: booking id=%s", req.BookingID)

	// 1. Бронирование
	booking, err := uc.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Warn("BeginPayment: booking id=%s not found", req.BookingID)
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("BeginPayment: failed to get booking id=%s: %v", req.BookingID, err)
		return nil, fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
	}

	// 2. Статус
	switch booking.Status {
	case domain.StatusPending:
	case domain.StatusPaid, domain.StatusCompleted:
		uc.logger.Warn("BeginPayment: booking id=%s is already %s", booking.ID, booking.Status)
		return nil, ErrAlreadyPaid
	default:
		uc.logger.Warn("BeginPayment: booking id=%s is %s", booking.ID, booking.Status)
		return nil, fmt.Errorf("%w: status %s", ErrBookingNotPayable, booking.Status)
	}

	// 3. Ранее открытая сессия. Вторая открытая сессия позволила бы оплатить бронирование дважды
	if booking.PaymentSessionRef != nil && *booking.PaymentSessionRef != "" {
		resp, err := uc.reuseSession(ctx, booking, *booking.PaymentSessionRef)
		if err != nil || resp != nil {
			return resp, err
		}
	}

	// 4. Сессия должна истечь не позже, чем reaper освободит слот
	now := uc.timeProvider.Now()
	expiresAt, err := uc.sessionExpiry(booking, now)
	if err != nil {
		uc.logger.Warn("BeginPayment: booking id=%s: %v", booking.ID, err)
		return nil, err
	}

	offering, err := uc.catalog.Lookup(booking.ServiceType)
	if err != nil {
		uc.logger.Error("BeginPayment: booking id=%s: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	checkoutReq := stripegateway.CheckoutRequest{
		BookingID:     booking.ID.String(),
		ServiceType:   string(booking.ServiceType),
		CustomerEmail: booking.Contact.Email,
		ProductName:   offering.Name,
		Description:   offering.Description,
		AmountMinor:   booking.PriceMinor,
		Currency:      booking.Currency,
		Recurring:     offering.IsRecurring(),
		Interval:      offering.RecurringInterval,
		PriceID:       offering.GatewayPriceID,
		SuccessURL:    uc.cfg.SuccessURL,
		CancelURL:     uc.cfg.CancelURL,
		ExpiresAt:     expiresAt,
	}
	if booking.CustomerRef != nil {
		checkoutReq.CustomerRef = booking.CustomerRef.String()
	}

	// 5. Шлюз
	session, err := uc.gateway.CreateCheckoutSession(ctx, checkoutReq)
	if err != nil {
		uc.logger.Error("BeginPayment: gateway failed for booking id=%s: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentInit, err)
	}

	// 6. Ссылка на сессию; статус мог смениться, пока ждали шлюз
	if err := uc.bookingRepo.SetPaymentSession(ctx, booking.ID, session.ID, now); err != nil {
		if errors.Is(err, bookingRepo.ErrStatusConflict) {
			uc.logger.Warn("BeginPayment: booking id=%s left pending while creating session %s", booking.ID, session.ID)
			return nil, fmt.Errorf("%w: status changed", ErrBookingNotPayable)
		}
		uc.logger.Error("BeginPayment: failed to store session for booking id=%s: %v", booking.ID, err)
		return nil, fmt.Errorf("%w: failed to store session: %v", ErrInternal, err)
	}

	uc.logger.Info("BeginPayment: booking id=%s session=%s expires_at=%s",
		booking.ID, session.ID, expiresAt.Format(time.RFC3339))

	return &Response{
		BookingID:   booking.ID,
		SessionID:   session.ID,
		CheckoutURL: session.URL,
		ExpiresAt:   expiresAt,
	}, nil
}

// reuseSession открытая сессия возвращается как есть, оплаченная блокирует новую.
// nil, nil означает, что сессия истекла и нужна новая
func (uc *UseCase) reuseSession(ctx context.Context, booking *domain.Booking, sessionID string) (*Response, error) {
	existing, err := uc.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		uc.logger.Error("BeginPayment: failed to check session %s for booking id=%s: %v", sessionID, booking.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentInit, err)
	}

	switch existing.Status {
	case stripegateway.SessionOpen:
		uc.logger.Info("BeginPayment: booking id=%s reuses open session %s", booking.ID, existing.ID)
		return &Response{
			BookingID:   booking.ID,
			SessionID:   existing.ID,
			CheckoutURL: existing.URL,
			ExpiresAt:   existing.ExpiresAt,
		}, nil
	case stripegateway.SessionComplete:
		uc.logger.Warn("BeginPayment: booking id=%s session %s is already completed, awaiting confirmation", booking.ID, existing.ID)
		return nil, ErrPaymentInProgress
	}
	return nil, nil
}

// sessionExpiry min(now + CheckoutExpiry, createdAt + PendingTTL), но не ближе MinCheckoutExpiry
func (uc *UseCase) sessionExpiry(booking *domain.Booking, now time.Time) (time.Time, error) {
	expiresAt := now.Add(uc.cfg.CheckoutExpiry)
	if uc.cfg.PendingTTL > 0 {
		if cutoff := booking.CreatedAt.Add(uc.cfg.PendingTTL); cutoff.Before(expiresAt) {
			expiresAt = cutoff
		}
	}
	if expiresAt.Before(now.Add(MinCheckoutExpiry)) {
		return time.Time{}, fmt.Errorf("%w: reservation created at %s", ErrReservationExpired, booking.CreatedAt.Format(time.RFC3339))
	}
	return expiresAt, nil
}
