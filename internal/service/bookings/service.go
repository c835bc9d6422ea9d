package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/internal/domain"
	bookingRepo "github.com/m04kA/stancastle-booking/internal/infra/storage/booking"
	"github.com/m04kA/stancastle-booking/internal/service/bookings/models"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo  BookingRepository
	cache        CacheInvalidator
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	cache CacheInvalidator,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		cache:        cache,
		metrics:      metrics,
		timeProvider: realTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет часы (тесты)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// GetByID получает бронирование по ID
// Гостевое бронирование доступно по его UUID, бронирование аккаунта только владельцу
func (s *Service) GetByID(ctx context.Context, id uuid.UUID, customerRef *uuid.UUID) (*models.BookingResponse, error) {
	booking, err := s.load(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if err := s.checkAccess(booking, customerRef); err != nil {
		s.logger.Warn("GetByID: access denied to booking id=%s", id)
		return nil, err
	}

	return models.FromDomainBooking(booking), nil
}

// Cancel отмена клиентом. Переход условный, поэтому гонка с webhook и очисткой безопасна
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%s", id)

	reason := strings.TrimSpace(req.CancellationReason)
	if reason == "" {
		reason = domain.CancellationReasonCustomer
	}
	if utf8.RuneCountInString(reason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: cancellationReason must be at most %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	// 1. Получаем бронирование
	booking, err := s.load(ctx, "Cancel", id)
	if err != nil {
		return nil, err
	}

	// 2. Проверяем права и статус
	if err := s.checkAccess(booking, req.CustomerRef); err != nil {
		s.logger.Warn("Cancel: access denied to booking id=%s", id)
		return nil, err
	}
	if !booking.CanBeCancelled() {
		s.logger.Warn("Cancel: booking id=%s cannot be cancelled, status=%s", id, booking.Status)
		return nil, ErrCannotCancel
	}

	// 3. Условная отмена
	if err := s.bookingRepo.Cancel(ctx, id, reason, s.timeProvider.Now()); err != nil {
		switch {
		case errors.Is(err, bookingRepo.ErrBookingNotFound):
			return nil, ErrBookingNotFound
		case errors.Is(err, bookingRepo.ErrStatusConflict):
			s.logger.Warn("Cancel: booking id=%s changed status concurrently", id)
			return nil, ErrCannotCancel
		}
		s.logger.Error("Cancel: repository error for booking id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
	}

	s.metrics.IncBookingTransition(string(domain.StatusCancelled))
	if err := s.cache.Invalidate(ctx, booking.BookingDate); err != nil {
		s.logger.Warn("Cancel: failed to invalidate availability cache: %v", err)
	}
	if booking.Status == domain.StatusPaid {
		s.metrics.IncManualRefund(ManualRefundCancelledPaid)
		s.logger.Warn("Cancel: MANUAL REFUND REQUIRED booking id=%s was paid (%s)", id, stringOrEmpty(booking.PaymentSessionRef))
	}

	s.logger.Info("Cancel: successfully cancelled booking id=%s", id)

	// Перечитываем, чтобы вернуть актуальные cancelled_at и причину
	updated, err := s.load(ctx, "Cancel", id)
	if err != nil {
		return nil, err
	}
	return models.FromDomainBooking(updated), nil
}

func (s *Service) load(ctx context.Context, op string, id uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%s not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%s: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return booking, nil
}

// checkAccess гостевое бронирование доступно по UUID.
// Бронирование аккаунта читает и отменяет только этот аккаунт, запрос без X-User-ID тоже отклоняется
func (s *Service) checkAccess(booking *domain.Booking, customerRef *uuid.UUID) error {
	if booking.CustomerRef == nil {
		return nil
	}
	if customerRef == nil || *booking.CustomerRef != *customerRef {
		return ErrAccessDenied
	}
	return nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
