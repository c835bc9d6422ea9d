package confirm_payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/internal/domain"
	accountRepo "github.com/m04kA/stancastle-booking/internal/infra/storage/account"
	bookingRepo "github.com/m04kA/stancastle-booking/internal/infra/storage/booking"
	"github.com/m04kA/stancastle-booking/internal/integrations/stripegateway"
)

// UseCase обработка подтверждений оплаты.
// Сначала подпись, потом одна транзакция (журнал событий + условный переход pending -> paid),
// и только после коммита побочные эффекты
type UseCase struct {
	parser       EventParser
	bookingRepo  BookingRepository
	ledger       EventLedger
	accountRepo  AccountRepository
	dispatcher   Dispatcher
	cache        CacheInvalidator
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	parser EventParser,
	bookingRepo BookingRepository,
	ledger EventLedger,
	accountRepo AccountRepository,
	dispatcher Dispatcher,
	cache CacheInvalidator,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		parser:       parser,
		bookingRepo:  bookingRepo,
		ledger:       ledger,
		accountRepo:  accountRepo,
		dispatcher:   dispatcher,
		cache:        cache,
		txManager:    txManager,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет часы (тесты)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute обрабатывает одно событие. Ошибка только для неверной подписи и сбоев хранилища
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Подпись до любого чтения полей
	event, err := uc.parser.ParseEvent(req.Payload, req.Signature)
	if err != nil {
		if errors.Is(err, stripegateway.ErrInvalidSignature) {
			uc.metrics.IncWebhookEvent("unknown", "invalid_signature")
			uc.logger.Warn("ConfirmPayment: SECURITY rejected webhook with invalid signature: %v", err)
			return nil, ErrInvalidSignature
		}
		// Подпись верна, но тело не разбирается: повтор не поможет, подтверждаем
		uc.metrics.IncWebhookEvent("unknown", string(OutcomeMalformed))
		uc.logger.Error("ConfirmPayment: signed event could not be parsed: %v", err)
		return &Response{Outcome: OutcomeMalformed}, nil
	}

	var resp *Response
	switch event.Kind {
	case stripegateway.EventCheckoutCompleted:
		resp, err = uc.handleCheckout(ctx, event)
	case stripegateway.EventSubscriptionCancelled:
		resp, err = uc.handleSubscriptionCancelled(ctx, event)
	case stripegateway.EventInvoicePaymentFailed:
		resp, err = uc.handleInvoiceFailed(ctx, event)
	default:
		uc.logger.Info("ConfirmPayment: event %s (%s) ignored", event.ID, event.RawType)
		resp = uc.response(event, OutcomeIgnored, nil)
	}
	if err != nil {
		uc.metrics.IncWebhookEvent(event.RawType, "error")
		return nil, err
	}

	uc.metrics.IncWebhookEvent(event.RawType, string(resp.Outcome))
	return resp, nil
}

func (uc *UseCase) handleCheckout(ctx context.Context, event *stripegateway.PaymentEvent) (*Response, error) {
	if !event.Paid {
		// Отложенный метод оплаты: ждём checkout.session.async_payment_succeeded
		uc.logger.Info("ConfirmPayment: event %s session=%s completed without payment yet", event.ID, event.SessionID)
		return uc.response(event, OutcomeAwaitingPayment, nil), nil
	}

	bookingID, err := uuid.Parse(event.BookingID)
	if err != nil {
		uc.logger.Warn("ConfirmPayment: event %s session=%s has no valid booking_id metadata (%q), acknowledged",
			event.ID, event.SessionID, event.BookingID)
		return uc.response(event, OutcomeUnknownBooking, nil), nil
	}

	now := uc.timeProvider.Now()
	outcome := OutcomeConfirmed
	var booking *domain.Booking

	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 1. Журнал: повторная доставка того же события ничего не делает
		recorded, err := uc.ledger.Record(txCtx, event.ID, event.RawType, &bookingID, now)
		if err != nil {
			return fmt.Errorf("record event: %w", err)
		}
		if !recorded {
			outcome = OutcomeDuplicate
			return nil
		}

		// 2. Бронирование под блокировкой строки
		booking, err = uc.bookingRepo.GetByID(txCtx, bookingID)
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			outcome = OutcomeUnknownBooking
			return nil
		}
		if err != nil {
			return fmt.Errorf("get booking: %w", err)
		}

		if settled, ok := settledOutcome(booking, event); ok {
			outcome = settled
			return nil
		}

		// 3. Условный переход pending -> paid
		transitioned, err := uc.bookingRepo.MarkPaid(txCtx, bookingID, event.SessionID, event.AmountTotal, now)
		if err != nil {
			return fmt.Errorf("mark paid: %w", err)
		}
		if !transitioned {
			// статус сменился между чтением и обновлением: перечитываем, чтобы не потерять вторую оплату
			booking, err = uc.bookingRepo.GetByID(txCtx, bookingID)
			if err != nil {
				return fmt.Errorf("reload booking: %w", err)
			}
			outcome = OutcomeAlreadyPaid
			if settled, ok := settledOutcome(booking, event); ok {
				outcome = settled
			}
			return nil
		}

		// 4. Партнёрская подписка зарегистрированного аккаунта
		if booking.ServiceType == domain.ServicePartner && booking.CustomerRef != nil && event.CustomerID != "" {
			err := uc.accountRepo.MarkPartner(txCtx, *booking.CustomerRef, event.CustomerID, now)
			if errors.Is(err, accountRepo.ErrAccountNotFound) {
				uc.logger.Warn("ConfirmPayment: partner purchase by unknown account %s, booking id=%s", *booking.CustomerRef, bookingID)
			} else if err != nil {
				return fmt.Errorf("mark partner: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("ConfirmPayment: event %s booking id=%s: %v", event.ID, bookingID, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	switch outcome {
	case OutcomeDuplicate:
		uc.logger.Info("ConfirmPayment: event %s already processed", event.ID)
	case OutcomeUnknownBooking:
		uc.logger.Warn("ConfirmPayment: event %s references unknown booking id=%s, acknowledged", event.ID, bookingID)
	case OutcomeAlreadyPaid:
		uc.logger.Info("ConfirmPayment: booking id=%s already paid, event %s is a no-op", bookingID, event.ID)
	case OutcomeDoublePayment:
		uc.metrics.IncManualRefund(string(OutcomeDoublePayment))
		uc.logger.Error("ConfirmPayment: MANUAL REFUND REQUIRED booking id=%s already paid by session %s, second payment %s of %d %s arrived",
			bookingID, stringOrEmpty(booking.PaymentSessionRef), event.SessionID, event.AmountTotal, event.Currency)
	case OutcomeCancelledBooking:
		uc.metrics.IncManualRefund(string(OutcomeCancelledBooking))
		uc.logger.Error("ConfirmPayment: MANUAL REFUND REQUIRED booking id=%s was cancelled (%s) before payment %s of %d %s arrived",
			bookingID, stringOrEmpty(booking.CancellationReason), event.SessionID, event.AmountTotal, event.Currency)
	case OutcomeConfirmed:
		if booking.PriceMinor != event.AmountTotal {
			uc.logger.Warn("ConfirmPayment: booking id=%s paid %d, expected %d", bookingID, event.AmountTotal, booking.PriceMinor)
		}
		uc.metrics.IncBookingTransition(string(domain.StatusPaid))
		if err := uc.cache.Invalidate(ctx, booking.BookingDate); err != nil {
			uc.logger.Warn("ConfirmPayment: failed to invalidate availability cache: %v", err)
		}
		uc.logger.Info("ConfirmPayment: booking id=%s is paid (event %s, session %s)", bookingID, event.ID, event.SessionID)

		// Только после коммита и только для первого перехода
		uc.dispatcher.DispatchAsync(ctx, bookingID)
	}

	return uc.response(event, outcome, &bookingID), nil
}

func (uc *UseCase) handleSubscriptionCancelled(ctx context.Context, event *stripegateway.PaymentEvent) (*Response, error) {
	now := uc.timeProvider.Now()
	outcome := OutcomePartnerCleared
	var cleared int64

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		recorded, err := uc.ledger.Record(txCtx, event.ID, event.RawType, nil, now)
		if err != nil {
			return fmt.Errorf("record event: %w", err)
		}
		if !recorded {
			outcome = OutcomeDuplicate
			return nil
		}
		if event.CustomerID == "" {
			return nil
		}
		cleared, err = uc.accountRepo.ClearPartnerByCustomer(txCtx, event.CustomerID, now)
		if err != nil {
			return fmt.Errorf("clear partner: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.logger.Error("ConfirmPayment: event %s: %v", event.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if outcome == OutcomePartnerCleared {
		uc.logger.Info("ConfirmPayment: subscription %s of customer %s ended, partner flag cleared on %d account(s)",
			event.SubscriptionID, event.CustomerID, cleared)
	}
	return uc.response(event, outcome, nil), nil
}

func (uc *UseCase) handleInvoiceFailed(ctx context.Context, event *stripegateway.PaymentEvent) (*Response, error) {
	recorded, err := uc.ledger.Record(ctx, event.ID, event.RawType, nil, uc.timeProvider.Now())
	if err != nil {
		uc.logger.Error("ConfirmPayment: event %s: %v", event.ID, err)
		return nil, fmt.Errorf("%w: record event: %v", ErrInternal, err)
	}
	if !recorded {
		return uc.response(event, OutcomeDuplicate, nil), nil
	}

	uc.logger.Warn("ConfirmPayment: invoice %s payment failed for customer %s", event.InvoiceID, event.CustomerID)
	return uc.response(event, OutcomePaymentFailed, nil), nil
}

func (uc *UseCase) response(event *stripegateway.PaymentEvent, outcome Outcome, bookingID *uuid.UUID) *Response {
	return &Response{
		EventID:   event.ID,
		EventType: event.RawType,
		Outcome:   outcome,
		BookingID: bookingID,
	}
}

// settledOutcome итог для бронирования, которое уже не pending.
// Оплата другой сессии по уже оплаченному бронированию означает двойное списание
func settledOutcome(booking *domain.Booking, event *stripegateway.PaymentEvent) (Outcome, bool) {
	switch booking.Status {
	case domain.StatusPaid, domain.StatusCompleted:
		if booking.PaymentSessionRef != nil && event.SessionID != "" && *booking.PaymentSessionRef != event.SessionID {
			return OutcomeDoublePayment, true
		}
		return OutcomeAlreadyPaid, true
	case domain.StatusCancelled:
		return OutcomeCancelledBooking, true
	}
	return "", false
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
