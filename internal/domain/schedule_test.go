package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/stancastle-booking/pkg/types"
)

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(BusinessTimezone)
	require.NoError(t, err)
	return loc
}

func TestDefaultWeeklySchedule_SlotsForDate(t *testing.T) {
	loc := london(t)
	s := DefaultWeeklySchedule()

	// 2026-03-01 воскресенье
	tests := []struct {
		date string
		want []types.TimeString
	}{
		{"2026-03-01", []types.TimeString{}},
		{"2026-03-02", []types.TimeString{"08:00", "09:30", "11:00", "12:30", "14:00", "15:30"}},
		{"2026-03-03", []types.TimeString{}},
		{"2026-03-04", []types.TimeString{"10:00", "11:30", "13:00", "14:30"}},
		{"2026-03-05", []types.TimeString{"11:00", "12:30", "14:00", "15:30"}},
		{"2026-03-06", []types.TimeString{"08:00"}},
		{"2026-03-07", []types.TimeString{"17:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			date, err := ParseDate(tt.date, loc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.SlotsForDate(date))
		})
	}
}

func TestWeeklySchedule_Deterministic(t *testing.T) {
	loc := london(t)
	s := DefaultWeeklySchedule()
	date, err := ParseDate("2026-03-02", loc)
	require.NoError(t, err)

	first := s.SlotsForDate(date)
	first[0] = "23:00" // мутация копии не должна влиять на шаблон

	assert.Equal(t, types.TimeString("08:00"), s.SlotsForDate(date)[0])
	assert.Equal(t, s.SlotsForDate(date), s.SlotsForDate(date.AddDate(0, 0, 7)))
}

func TestWeeklySchedule_Contains(t *testing.T) {
	loc := london(t)
	s := DefaultWeeklySchedule()
	monday, err := ParseDate("2026-03-02", loc)
	require.NoError(t, err)

	assert.True(t, s.Contains(monday, "09:30"))
	assert.False(t, s.Contains(monday, "10:00"))
	assert.False(t, s.Contains(monday.AddDate(0, 0, 1), "09:30"))
	assert.True(t, s.IsOpen(monday))
	assert.False(t, s.IsOpen(monday.AddDate(0, 0, -1)))
	assert.Equal(t, 90, s.SlotDurationMinutes())
}

func TestNewWeeklySchedule_Validation(t *testing.T) {
	t.Run("sorts unordered input", func(t *testing.T) {
		s, err := NewWeeklySchedule(60, map[time.Weekday][]string{
			time.Monday: {"12:00", "09:00"},
		})
		require.NoError(t, err)
		monday := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, []types.TimeString{"09:00", "12:00"}, s.SlotsForDate(monday))
	})

	t.Run("rejects overlapping slots", func(t *testing.T) {
		_, err := NewWeeklySchedule(90, map[time.Weekday][]string{
			time.Monday: {"08:00", "09:00"},
		})
		assert.ErrorIs(t, err, ErrInvalidSchedule)
	})

	t.Run("rejects slot past midnight", func(t *testing.T) {
		_, err := NewWeeklySchedule(90, map[time.Weekday][]string{
			time.Saturday: {"23:00"},
		})
		assert.ErrorIs(t, err, ErrInvalidSchedule)
	})

	t.Run("allows slot ending at midnight", func(t *testing.T) {
		_, err := NewWeeklySchedule(90, map[time.Weekday][]string{
			time.Saturday: {"22:30"},
		})
		assert.NoError(t, err)
	})

	t.Run("rejects bad time", func(t *testing.T) {
		_, err := NewWeeklySchedule(90, map[time.Weekday][]string{
			time.Monday: {"8am"},
		})
		assert.ErrorIs(t, err, ErrInvalidSchedule)
	})

	t.Run("rejects non-positive duration", func(t *testing.T) {
		_, err := NewWeeklySchedule(0, nil)
		assert.ErrorIs(t, err, ErrInvalidSchedule)
	})
}
