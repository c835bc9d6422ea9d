package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/stancastle-booking/pkg/types"
)

var (
	ErrInvalidSchedule = errors.New("domain: invalid weekly schedule")
)

// WeeklySchedule фиксированный недельный шаблон слотов одинаковой длительности
// Чистая структура без I/O: одна и та же дата всегда даёт один и тот же список
type WeeklySchedule struct {
	slotDuration int
	days         [7][]types.TimeString
}

// DefaultWeeklySchedule шаблон по умолчанию (90-минутные слоты, Europe/London)
func DefaultWeeklySchedule() *WeeklySchedule {
	s, err := NewWeeklySchedule(DefaultSlotDurationMinutes, map[time.Weekday][]string{
		time.Sunday:    {},
		time.Monday:    {"08:00", "09:30", "11:00", "12:30", "14:00", "15:30"},
		time.Tuesday:   {},
		time.Wednesday: {"10:00", "11:30", "13:00", "14:30"},
		time.Thursday:  {"11:00", "12:30", "14:00", "15:30"},
		time.Friday:    {"08:00"},
		time.Saturday:  {"17:00"},
	})
	if err != nil {
		panic(err)
	}
	return s
}

// NewWeeklySchedule строит шаблон и проверяет, что слоты каждого дня
// не пересекаются и укладываются в сутки. Порядок во входных данных не важен
func NewWeeklySchedule(slotDurationMinutes int, days map[time.Weekday][]string) (*WeeklySchedule, error) {
	if slotDurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: slot duration must be positive", ErrInvalidSchedule)
	}

	s := &WeeklySchedule{slotDuration: slotDurationMinutes}
	for day, raw := range days {
		if day < time.Sunday || day > time.Saturday {
			return nil, fmt.Errorf("%w: unknown weekday %d", ErrInvalidSchedule, day)
		}

		slots := make([]types.TimeString, 0, len(raw))
		for _, r := range raw {
			ts, err := types.NewTimeStringFromString(r)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, day, err)
			}
			slots = append(slots, ts)
		}
		sort.Slice(slots, func(i, j int) bool { return slots[i].IsBefore(slots[j]) })

		prevEnd, prevSlot := -1, types.TimeString("")
		for _, slot := range slots {
			start, _ := slot.Minutes()
			if start+slotDurationMinutes > 24*60 {
				return nil, fmt.Errorf("%w: %s slot %s runs past midnight", ErrInvalidSchedule, day, slot)
			}
			if start < prevEnd {
				return nil, fmt.Errorf("%w: %s slots %s and %s overlap", ErrInvalidSchedule, day, prevSlot, slot)
			}
			prevEnd, prevSlot = start+slotDurationMinutes, slot
		}
		s.days[day] = slots
	}
	return s, nil
}

// SlotDurationMinutes длительность одного слота
func (s *WeeklySchedule) SlotDurationMinutes() int {
	return s.slotDuration
}

// SlotsForDate возвращает упорядоченные времена начала слотов на дату
// Закрытые дни дают пустой список. Возвращается копия
func (s *WeeklySchedule) SlotsForDate(date time.Time) []types.TimeString {
	slots := s.days[date.Weekday()]
	out := make([]types.TimeString, len(slots))
	copy(out, slots)
	return out
}

// Contains returns true if the template offers slot on date
func (s *WeeklySchedule) Contains(date time.Time, slot types.TimeString) bool {
	for _, t := range s.days[date.Weekday()] {
		if t == slot {
			return true
		}
	}
	return false
}

// IsOpen returns true if the template has at least one slot on date's weekday
func (s *WeeklySchedule) IsOpen(date time.Time) bool {
	return len(s.days[date.Weekday()]) > 0
}
