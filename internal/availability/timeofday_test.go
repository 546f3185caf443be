package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		in   string
		want TimeOfDay
	}{
		{"00:00", 0},
		{"9:05", 9*60 + 5},
		{"09:30", 9*60 + 30},
		{" 23:59 ", 23*60 + 59},
		{"24:00", EndOfDay},
	} {
		got, err := ParseTimeOfDay(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "9", "9:5", "24:30", "12:60", "ab:cd", "123:00", "-1:00"} {
		_, err := ParseTimeOfDay(bad)
		assert.True(t, errors.Is(err, ErrInvalidTimeOfDay), "expected error for %q", bad)
	}
}

func TestTimeOfDay_Formatting(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "09:30", MustParseTimeOfDay("09:30").String())
	assert.Equal(t, "24:00", EndOfDay.String())
	assert.Equal(t, "12:00 AM", Midnight.Label())
	assert.Equal(t, "9:30 AM", MustParseTimeOfDay("09:30").Label())
	assert.Equal(t, "12:15 PM", MustParseTimeOfDay("12:15").Label())
	assert.Equal(t, "11:30 PM", MustParseTimeOfDay("23:30").Label())
}

func TestTimeOfDay_On(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, time.March, 13, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.March, 13, 9, 30, 0, 0, time.UTC), MustParseTimeOfDay("09:30").On(date, time.UTC))
	assert.Equal(t, time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC), EndOfDay.On(date, time.UTC))
	assert.Equal(t, MustParseTimeOfDay("15:04"), TimeOfDayFrom(date, time.UTC))
}

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	schedule, err := ParseSchedule([]string{"Monday", "wed", "FRIDAY", "monday"}, "09:00", "00:00")
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, schedule.Days)
	assert.True(t, schedule.Hours.ClosesAtMidnight())
	assert.False(t, schedule.Hours.Overnight())
	assert.Equal(t, EndOfDay, schedule.Hours.End())

	_, err = ParseSchedule([]string{"Funday"}, "09:00", "17:00")
	assert.Error(t, err)

	_, err = ParseSchedule(nil, "9am", "17:00")
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
}
