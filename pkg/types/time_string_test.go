package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"08:00", false},
		{"23:59", false},
		{"00:00", false},
		{"8:00", true},
		{"24:00", true},
		{"12:60", true},
		{"", true},
		{"noon!", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ts, err := NewTimeStringFromString(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTimeString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.in, ts.String())
		})
	}
}

func TestTimeString_AddMinutes(t *testing.T) {
	ts := MustTimeString("15:30")

	next, err := ts.AddMinutes(90)
	require.NoError(t, err)
	assert.Equal(t, TimeString("17:00"), next)

	_, err = MustTimeString("23:00").AddMinutes(90)
	assert.ErrorIs(t, err, ErrTimeOverflow)
}

func TestTimeString_Compare(t *testing.T) {
	assert.True(t, MustTimeString("08:00").IsBefore("09:30"))
	assert.True(t, MustTimeString("17:00").IsAfter("09:30"))
	assert.False(t, MustTimeString("09:30").IsBefore("09:30"))
}

func TestTimeString_On(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	date := time.Date(2026, time.March, 2, 0, 0, 0, 0, loc)
	at, err := MustTimeString("09:30").On(date, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 2, 9, 30, 0, 0, loc), at)
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString

	require.NoError(t, ts.Scan("09:30:00"))
	assert.Equal(t, TimeString("09:30"), ts)

	require.NoError(t, ts.Scan([]byte("14:00:00")))
	assert.Equal(t, TimeString("14:00"), ts)

	require.NoError(t, ts.Scan(time.Date(0, 1, 1, 11, 0, 0, 0, time.UTC)))
	assert.Equal(t, TimeString("11:00"), ts)

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())

	assert.Error(t, ts.Scan(42))
}
