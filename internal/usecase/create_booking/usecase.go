package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/internal/domain"
	bookingRepo "github.com/m04kA/stancastle-booking/internal/infra/storage/booking"
	"github.com/m04kA/stancastle-booking/internal/usecase/get_availability"
	"github.com/m04kA/stancastle-booking/pkg/types"
)

// UseCase use case резервирования слота
type UseCase struct {
	bookingRepo  BookingRepository
	availability AvailabilityChecker
	cache        CacheInvalidator
	catalog      domain.Catalog
	metrics      Metrics
	loc          *time.Location
	validate     *validator.Validate
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	availability AvailabilityChecker,
	cache CacheInvalidator,
	catalog domain.Catalog,
	metrics Metrics,
	loc *time.Location,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		availability: availability,
		cache:        cache,
		catalog:      catalog,
		metrics:      metrics,
		loc:          loc,
		validate:     newValidator(),
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет часы (тесты)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute резервирует слот: pending бронирование создаётся одним INSERT,
// гонку за слот решает частичный уникальный индекс
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if req != nil {
		normalizeRequest(req)
	}
	if err := validateRequest(uc.validate, req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("CreateBooking: service=%s, date=%s, time=%s, guest=%t",
		req.ServiceType, req.Date, req.StartTime, req.CustomerRef == nil)

	// 2. Услуга из каталога
	offering, err := uc.catalog.Lookup(domain.ServiceType(req.ServiceType))
	if err != nil {
		uc.logger.Warn("CreateBooking: %v", err)
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, req.ServiceType)
	}

	date, err := domain.ParseDate(req.Date, uc.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date: %v", ErrInvalidInput, err)
	}
	start, err := types.NewTimeStringFromString(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: startTime: %v", ErrInvalidInput, err)
	}

	// 3. Слот предлагается и свободен прямо сейчас (без кэша)
	if err := uc.availability.CheckSlot(ctx, date, start); err != nil {
		return nil, uc.mapSlotError(err, req)
	}

	// 4. Вставка
	now := uc.timeProvider.Now()
	booking := &domain.Booking{
		ID:              uuid.New(),
		CustomerRef:     req.CustomerRef,
		ServiceType:     offering.Type,
		BookingDate:     date,
		StartTime:       start,
		DurationMinutes: offering.DurationMinutes,
		Status:          domain.StatusPending,
		Contact: domain.Contact{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     NormalizePhone(req.Phone),
			Company:   req.Company,
			Website:   req.Website,
		},
		PriceMinor: offering.PriceMinor,
		Currency:   offering.Currency,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := uc.bookingRepo.Create(ctx, booking)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrSlotTaken) {
			uc.metrics.IncSlotConflict()
			uc.logger.Warn("CreateBooking: slot %s %s lost to a concurrent reservation", req.Date, req.StartTime)
			return nil, fmt.Errorf("%w: %s %s", ErrSlotTaken, req.Date, req.StartTime)
		}
		uc.logger.Error("CreateBooking: failed to create booking: %v", err)
		return nil, fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
	}

	uc.metrics.IncBookingTransition(string(domain.StatusPending))
	if err := uc.cache.Invalidate(ctx, date); err != nil {
		uc.logger.Warn("CreateBooking: failed to invalidate availability cache for %s: %v", req.Date, err)
	}

	uc.logger.Info("CreateBooking: booking id=%s reserved %s %s", created.ID, req.Date, req.StartTime)

	return &Response{
		ID:              created.ID,
		Status:          string(created.Status),
		ServiceType:     string(created.ServiceType),
		BookingDate:     created.BookingDate,
		StartTime:       created.StartTime,
		DurationMinutes: created.DurationMinutes,
		PriceMinor:      created.PriceMinor,
		Currency:        created.Currency,
		CreatedAt:       created.CreatedAt,
	}, nil
}

func (uc *UseCase) mapSlotError(err error, req *Request) error {
	switch {
	case errors.Is(err, get_availability.ErrSlotNotOffered):
		uc.logger.Warn("CreateBooking: slot %s %s is not offered", req.Date, req.StartTime)
		return fmt.Errorf("%w: %s %s", ErrSlotNotOffered, req.Date, req.StartTime)
	case errors.Is(err, get_availability.ErrTooLateToBook):
		uc.logger.Warn("CreateBooking: slot %s %s is too close or in the past", req.Date, req.StartTime)
		return fmt.Errorf("%w: %s %s", ErrTooLateToBook, req.Date, req.StartTime)
	case errors.Is(err, get_availability.ErrSlotReserved), errors.Is(err, get_availability.ErrSlotBusy):
		uc.metrics.IncSlotConflict()
		uc.logger.Warn("CreateBooking: slot %s %s is taken: %v", req.Date, req.StartTime, err)
		return fmt.Errorf("%w: %s %s", ErrSlotTaken, req.Date, req.StartTime)
	default:
		uc.logger.Error("CreateBooking: failed to check slot: %v", err)
		return fmt.Errorf("%w: failed to check slot: %v", ErrInternal, err)
	}
}
