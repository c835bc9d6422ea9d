package get_availability

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/m04kA/stancastle-booking/internal/domain"
	"github.com/m04kA/stancastle-booking/pkg/types"
)

const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

// UseCase вычисляет открытые слоты: шаблон, минус прошедшие и слишком близкие,
// минус занятое во внешнем календаре, минус pending/paid бронирования
type UseCase struct {
	schedule     *domain.WeeklySchedule
	bookingRepo  BookingRepository
	calendar     CalendarClient
	cache        SlotCache
	metrics      Metrics
	cfg          Config
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case. calendar может быть nil
func NewUseCase(
	schedule *domain.WeeklySchedule,
	bookingRepo BookingRepository,
	calendar CalendarClient,
	cache SlotCache,
	metrics Metrics,
	cfg Config,
	logger Logger,
) *UseCase {
	if cfg.CalendarBatchDays <= 0 {
		cfg.CalendarBatchDays = 7
	}
	return &UseCase{
		schedule:     schedule,
		bookingRepo:  bookingRepo,
		calendar:     calendar,
		cache:        cache,
		metrics:      metrics,
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

// Execute открытые слоты в диапазоне дат включительно
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	now := uc.timeProvider.Now().In(uc.cfg.Location)

	from, to, err := uc.resolveRange(req, now)
	if err != nil {
		uc.logger.Warn("GetAvailability: %v", err)
		return nil, err
	}

	dates := datesBetween(from, to)
	result := make(map[string][]types.TimeString, len(dates))
	misses := make([]time.Time, 0, len(dates))

	// 1. Кэш по датам
	for _, d := range dates {
		slots, found, err := uc.cache.Get(ctx, d)
		switch {
		case err != nil:
			uc.metrics.IncAvailabilityCache(cacheError)
			uc.logger.Warn("GetAvailability: cache read for %s failed: %v", d.Format(domain.DateFormat), err)
			misses = append(misses, d)
		case found:
			uc.metrics.IncAvailabilityCache(cacheHit)
			result[d.Format(domain.DateFormat)] = slots
		default:
			uc.metrics.IncAvailabilityCache(cacheMiss)
			misses = append(misses, d)
		}
	}

	degraded := false
	if len(misses) > 0 {
		computed, isDegraded, err := uc.compute(ctx, misses, now)
		if err != nil {
			return nil, err
		}
		degraded = isDegraded

		for _, d := range misses {
			key := d.Format(domain.DateFormat)
			result[key] = computed[key]

			// В деградированном режиме не кэшируем: иначе занятые в календаре слоты
			// будут показываться открытыми ещё TTL после восстановления
			if degraded {
				continue
			}
			if err := uc.cache.Set(ctx, d, computed[key]); err != nil {
				uc.logger.Warn("GetAvailability: cache write for %s failed: %v", key, err)
			}
		}
	}

	days := make([]domain.DayAvailability, 0, len(dates))
	for _, d := range dates {
		days = append(days, domain.DayAvailability{Date: d, Slots: result[d.Format(domain.DateFormat)]})
	}

	uc.logger.Info("GetAvailability: %s..%s, %d days, %d computed, degraded=%t",
		from.Format(domain.DateFormat), to.Format(domain.DateFormat), len(dates), len(misses), degraded)

	return &Response{
		From:                from,
		To:                  to,
		SlotDurationMinutes: uc.schedule.SlotDurationMinutes(),
		Days:                days,
		Degraded:            degraded,
	}, nil
}

// CheckSlot проверяет один слот в обход кэша. nil = слот можно резервировать.
// Итоговое решение всё равно за уникальным индексом при вставке
func (uc *UseCase) CheckSlot(ctx context.Context, date time.Time, start types.TimeString) error {
	now := uc.timeProvider.Now().In(uc.cfg.Location)
	date = domain.DateOnly(date, uc.cfg.Location)

	if !uc.schedule.Contains(date, start) {
		return fmt.Errorf("%w: %s %s", ErrSlotNotOffered, date.Format(domain.DateFormat), start)
	}

	startsAt, err := start.On(date, uc.cfg.Location)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if startsAt.Before(uc.earliestStart(now)) {
		return fmt.Errorf("%w: %s %s", ErrTooLateToBook, date.Format(domain.DateFormat), start)
	}

	reserved, err := uc.bookingRepo.GetActiveSlots(ctx, date, date)
	if err != nil {
		uc.logger.Error("CheckSlot: failed to get active slots: %v", err)
		return fmt.Errorf("%w: failed to get active slots: %v", ErrInternal, err)
	}
	key := domain.NewSlotKey(date, start)
	for _, r := range reserved {
		if r == key {
			return fmt.Errorf("%w: %s %s", ErrSlotReserved, key.Date, start)
		}
	}

	if uc.calendar == nil {
		return nil
	}

	endsAt := startsAt.Add(time.Duration(uc.schedule.SlotDurationMinutes()) * time.Minute)
	busy, err := uc.calendar.FreeBusy(ctx, startsAt, endsAt)
	if err != nil {
		// Тот же деградированный режим, что и для списка слотов
		uc.metrics.IncAvailabilityDegraded()
		uc.logger.Error("CheckSlot: calendar unavailable, accepting %s %s on rules only: %v",
			key.Date, start, err)
		return nil
	}
	for _, b := range busy {
		if b.Overlaps(startsAt, endsAt) {
			return fmt.Errorf("%w: %s %s", ErrSlotBusy, key.Date, start)
		}
	}
	return nil
}

// IsSlotOpen bool-обёртка над CheckSlot. Ошибки хранилища пробрасываются
func (uc *UseCase) IsSlotOpen(ctx context.Context, date time.Time, start types.TimeString) (bool, error) {
	err := uc.CheckSlot(ctx, date, start)
	switch {
	case err == nil:
		return true, nil
	case isSlotRejection(err):
		return false, nil
	default:
		return false, err
	}
}

func (uc *UseCase) resolveRange(req *Request, now time.Time) (time.Time, time.Time, error) {
	loc := uc.cfg.Location
	today := domain.DateOnly(now, loc)

	from := today
	if req != nil && req.From != nil {
		from = domain.DateOnly(*req.From, loc)
	}
	to := from.AddDate(0, 0, uc.cfg.DefaultRangeDays)
	if req != nil && req.To != nil {
		to = domain.DateOnly(*req.To, loc)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to %s is before from %s",
			ErrInvalidRange, to.Format(domain.DateFormat), from.Format(domain.DateFormat))
	}
	if n := daysInclusive(from, to); uc.cfg.MaxRangeDays > 0 && n > uc.cfg.MaxRangeDays {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %d days requested, max %d",
			ErrRangeTooLarge, n, uc.cfg.MaxRangeDays)
	}
	return from, to, nil
}

// compute считает слоты для дат (по возрастанию). Одним запросом в БД на весь диапазон
// и пачками по CalendarBatchDays дней в календарь
func (uc *UseCase) compute(ctx context.Context, dates []time.Time, now time.Time) (map[string][]types.TimeString, bool, error) {
	first, last := dates[0], dates[len(dates)-1]

	reserved, err := uc.bookingRepo.GetActiveSlots(ctx, first, last)
	if err != nil {
		uc.logger.Error("GetAvailability: failed to get active slots: %v", err)
		return nil, false, fmt.Errorf("%w: failed to get active slots: %v", ErrInternal, err)
	}
	taken := make(map[domain.SlotKey]struct{}, len(reserved))
	for _, r := range reserved {
		taken[r] = struct{}{}
	}

	busy, degraded := uc.fetchBusy(ctx, first, last)

	earliest := uc.earliestStart(now)
	duration := time.Duration(uc.schedule.SlotDurationMinutes()) * time.Minute

	out := make(map[string][]types.TimeString, len(dates))
	for _, d := range dates {
		open := make([]types.TimeString, 0)
		for _, slot := range uc.schedule.SlotsForDate(d) {
			startsAt, err := slot.On(d, uc.cfg.Location)
			if err != nil {
				return nil, false, fmt.Errorf("%w: %v", ErrInternal, err)
			}
			if startsAt.Before(earliest) {
				continue
			}
			if _, ok := taken[domain.NewSlotKey(d, slot)]; ok {
				continue
			}
			if overlapsAny(busy, startsAt, startsAt.Add(duration)) {
				continue
			}
			open = append(open, slot)
		}
		out[d.Format(domain.DateFormat)] = open
	}
	return out, degraded, nil
}

// fetchBusy запрашивает календарь окнами по CalendarBatchDays дней.
// Ошибка любого окна переводит весь ответ в деградированный режим
func (uc *UseCase) fetchBusy(ctx context.Context, first, last time.Time) ([]domain.BusyInterval, bool) {
	if uc.calendar == nil {
		return nil, false
	}

	end := last.AddDate(0, 0, 1)
	busy := make([]domain.BusyInterval, 0)
	for windowStart := first; windowStart.Before(end); windowStart = windowStart.AddDate(0, 0, uc.cfg.CalendarBatchDays) {
		windowEnd := windowStart.AddDate(0, 0, uc.cfg.CalendarBatchDays)
		if windowEnd.After(end) {
			windowEnd = end
		}

		intervals, err := uc.calendar.FreeBusy(ctx, windowStart, windowEnd)
		if err != nil {
			uc.metrics.IncAvailabilityDegraded()
			uc.logger.Error("GetAvailability: calendar unavailable for %s..%s, serving rule-based slots: %v",
				windowStart.Format(domain.DateFormat), windowEnd.Format(domain.DateFormat), err)
			return nil, true
		}
		busy = append(busy, intervals...)
	}
	return busy, false
}

func (uc *UseCase) earliestStart(now time.Time) time.Time {
	return now.Add(time.Duration(uc.cfg.MinNoticeMinutes) * time.Minute)
}

func overlapsAny(busy []domain.BusyInterval, start, end time.Time) bool {
	for _, b := range busy {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// daysInclusive число дат в from..to. Округление из-за 23/25-часовых суток при переводе часов
func daysInclusive(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours()/24)) + 1
}

// datesBetween даты from..to включительно
func datesBetween(from, to time.Time) []time.Time {
	dates := make([]time.Time, 0)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
