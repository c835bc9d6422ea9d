package redispatch_paid

import (
	"context"
	"fmt"
	"time"
)

// UseCase подбирает оплаченные бронирования, по которым не дошли письма:
// процесс упал между коммитом оплаты и фоновой отправкой, или отправка не удалась.
// Dispatch идемпотентен (встреча и notified_at), поэтому повторный прогон безопасен
type UseCase struct {
	repo         BookingRepository
	dispatcher   Dispatcher
	opts         Options
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(repo BookingRepository, dispatcher Dispatcher, opts Options, logger Logger) (*UseCase, error) {
	if opts.Grace <= 0 || opts.MaxAge <= opts.Grace {
		return nil, ErrInvalidWindow
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &UseCase{
		repo:         repo,
		dispatcher:   dispatcher,
		opts:         opts,
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
	paidFrom := now.Add(-uc.opts.MaxAge)
	paidTo := now.Add(-uc.opts.Grace)

	ids, err := uc.repo.ListUnnotifiedPaid(ctx, paidFrom, paidTo, uc.opts.BatchSize)
	if err != nil {
		uc.logger.Error("RedispatchPaid: failed to list unnotified bookings paid before %s: %v", paidTo.Format(time.RFC3339), err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	resp := &Response{}
	for _, id := range ids {
		if ctx.Err() != nil {
			// Остаток подберёт следующий проход
			uc.logger.Warn("RedispatchPaid: pass interrupted, %d booking(s) left: %v", len(ids)-len(resp.Notified)-len(resp.Pending), ctx.Err())
			break
		}

		uc.logger.Warn("RedispatchPaid: booking id=%s paid but not notified, dispatching again", id)
		report, err := uc.dispatcher.Dispatch(ctx, id)
		if err != nil {
			uc.logger.Error("RedispatchPaid: booking id=%s dispatch failed: %v", id, err)
			resp.Pending = append(resp.Pending, id)
			continue
		}
		if !report.Notified {
			uc.logger.Error("RedispatchPaid: booking id=%s still not notified, failed steps %v", id, report.Failed)
			resp.Pending = append(resp.Pending, id)
			continue
		}
		resp.Notified = append(resp.Notified, id)
	}

	return resp, nil
}
