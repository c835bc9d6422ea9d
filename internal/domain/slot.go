package domain

import (
	"time"

	"github.com/m04kA/stancastle-booking/pkg/types"
)

// DayAvailability открытые слоты на одну дату, по возрастанию
type DayAvailability struct {
	Date  time.Time
	Slots []types.TimeString
}

// BusyInterval занятый интервал во внешнем календаре
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps строгие неравенства: касание границ не считается пересечением
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return start.Before(b.End) && b.Start.Before(end)
}

// SlotKey дата+время, по которым проверяется уникальность бронирования
type SlotKey struct {
	Date string // YYYY-MM-DD
	Time types.TimeString
}

func NewSlotKey(date time.Time, t types.TimeString) SlotKey {
	return SlotKey{Date: date.Format(DateFormat), Time: t}
}

// DateOnly обрезает время, оставляя полночь в loc
func DateOnly(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDate парсит YYYY-MM-DD как полночь в loc
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateFormat, s, loc)
}
