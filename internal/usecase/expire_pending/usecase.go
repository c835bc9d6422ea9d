package expire_pending

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/stancastle-booking/internal/domain"
)

// UseCase освобождает слоты неоплаченных резерваций старше TTL.
// Отмена условная (status = pending), поэтому гонка с подтверждением оплаты безопасна:
// выигрывает тот, кто первым обновил строку
type UseCase struct {
	repo         BookingRepository
	cache        CacheInvalidator
	metrics      Metrics
	ttl          time.Duration
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(repo BookingRepository, cache CacheInvalidator, metrics Metrics, ttl time.Duration, logger Logger) (*UseCase, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	return &UseCase{
		repo:         repo,
		cache:        cache,
		metrics:      metrics,
		ttl:          ttl,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}, nil
}

// WithTimeProvider подменяет часы (тесты)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute один проход
func (uc *UseCase) Execute(ctx context.Context) (*Response, error) {
	now := uc.timeProvider.Now()
	cutoff := now.Add(-uc.ttl)

	expired, err := uc.repo.ExpirePending(ctx, cutoff, now)
	if err != nil {
		uc.logger.Error("ExpirePending: failed to expire reservations older than %s: %v", cutoff.Format(time.RFC3339), err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	resp := &Response{Expired: make([]uuid.UUID, 0, len(expired))}
	if len(expired) == 0 {
		return resp, nil
	}

	dates := make([]time.Time, 0, len(expired))
	seen := make(map[string]struct{}, len(expired))
	for _, e := range expired {
		resp.Expired = append(resp.Expired, e.ID)
		uc.metrics.IncBookingTransition(string(domain.StatusCancelled))
		uc.logger.Info("ExpirePending: booking id=%s (%s %s) released after %s without payment",
			e.ID, e.BookingDate.Format(domain.DateFormat), e.StartTime, uc.ttl)

		key := e.BookingDate.Format(domain.DateFormat)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			dates = append(dates, e.BookingDate)
		}
	}
	uc.metrics.AddExpiredBookings(len(expired))

	if err := uc.cache.Invalidate(ctx, dates...); err != nil {
		uc.logger.Warn("ExpirePending: failed to invalidate availability cache: %v", err)
	}

	return resp, nil
}
