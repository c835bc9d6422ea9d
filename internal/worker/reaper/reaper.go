// Package reaper периодически освобождает слоты неоплаченных резерваций
// и, если подключено, повторяет потерянные уведомления по оплаченным.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/m04kA/stancastle-booking/internal/usecase/expire_pending"
	"github.com/m04kA/stancastle-booking/internal/usecase/redispatch_paid"
)

var (
	ErrInvalidInterval = errors.New("reaper: interval must be positive")
	ErrSchedule        = errors.New("reaper: failed to schedule job")
)

const (
	jobName           = "expire-pending-bookings"
	redispatchJobName = "redispatch-unnotified-bookings"
)

// Expirer один проход очистки
type Expirer interface {
	Execute(ctx context.Context) (*expire_pending.Response, error)
}

// Redispatcher один проход повторной отправки
type Redispatcher interface {
	Execute(ctx context.Context) (*redispatch_paid.Response, error)
}

// Option дополнительные задачи воркера
type Option func(*Worker)

// WithRedispatcher добавляет вторую задачу с собственным интервалом.
// Таймаут прохода равен интервалу: Dispatch по одному бронированию бывает долгим
func WithRedispatcher(r Redispatcher, interval time.Duration) Option {
	return func(w *Worker) {
		w.redispatcher = r
		w.redispatchInterval = interval
	}
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Worker обёртка над gocron. Проходы не пересекаются: следующий запуск
// переносится, если предыдущий ещё идёт
type Worker struct {
	scheduler gocron.Scheduler
	expirer   Expirer
	interval  time.Duration
	timeout   time.Duration
	logger    Logger

	redispatcher       Redispatcher
	redispatchInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// New создаёт воркер. Проход ограничен по времени половиной интервала
func New(expirer Expirer, interval time.Duration, logger Logger, opts ...Option) (*Worker, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchedule, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		scheduler: s,
		expirer:   expirer,
		interval:  interval,
		timeout:   interval / 2,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.redispatcher != nil && w.redispatchInterval <= 0 {
		cancel()
		_ = s.Shutdown()
		return nil, ErrInvalidInterval
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(w.runOnce),
		gocron.WithName(jobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = s.Shutdown()
		return nil, fmt.Errorf("%w: %v", ErrSchedule, err)
	}

	if w.redispatcher != nil {
		_, err = s.NewJob(
			gocron.DurationJob(w.redispatchInterval),
			gocron.NewTask(w.redispatchOnce),
			gocron.WithName(redispatchJobName),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			cancel()
			_ = s.Shutdown()
			return nil, fmt.Errorf("%w: %v", ErrSchedule, err)
		}
	}

	return w, nil
}

// Start запускает планировщик, не блокирует
func (w *Worker) Start() {
	w.logger.Info("Reaper: started, interval %s", w.interval)
	if w.redispatcher != nil {
		w.logger.Info("Reaper: redispatch of unnotified bookings enabled, interval %s", w.redispatchInterval)
	}
	w.scheduler.Start()
}

// Stop отменяет текущий проход и ждёт остановки планировщика
func (w *Worker) Stop() error {
	var err error
	w.once.Do(func() {
		w.cancel()
		if shutdownErr := w.scheduler.Shutdown(); shutdownErr != nil {
			err = fmt.Errorf("reaper: shutdown: %w", shutdownErr)
		}
		w.logger.Info("Reaper: stopped")
	})
	return err
}

func (w *Worker) runOnce() {
	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()

	resp, err := w.expirer.Execute(ctx)
	if err != nil {
		// Следующий проход подберёт те же строки
		w.logger.Error("Reaper: pass failed: %v", err)
		return
	}
	if len(resp.Expired) > 0 {
		w.logger.Info("Reaper: released %d unpaid reservation(s)", len(resp.Expired))
	}
}

func (w *Worker) redispatchOnce() {
	ctx, cancel := context.WithTimeout(w.ctx, w.redispatchInterval)
	defer cancel()

	resp, err := w.redispatcher.Execute(ctx)
	if err != nil {
		w.logger.Error("Reaper: redispatch pass failed: %v", err)
		return
	}
	if len(resp.Notified) > 0 || len(resp.Pending) > 0 {
		w.logger.Info("Reaper: redispatched %d booking(s), %d still pending", len(resp.Notified), len(resp.Pending))
	}
}
