package ledger

import (
	"testing"
	"time"

	"github.com/chrisdamba/bentoledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, key string) time.Time {
	t.Helper()
	d, err := ParseDateKey(key, time.UTC)
	require.NoError(t, err)
	return d
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"monday", time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC), "2024-01-01"},
		{"wednesday", time.Date(2024, 1, 3, 23, 59, 0, 0, time.UTC), "2024-01-01"},
		{"friday", time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC), "2024-01-01"},
		{"saturday", time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC), "2024-01-01"},
		{"sunday goes back", time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC), "2024-01-01"},
		{"across month", time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), "2024-02-26"},
		{"across year", time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), "2024-12-30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StartOfWeek(tt.in)
			assert.Equal(t, models.DateKey(tt.want), FormatDateKey(got))
			assert.Equal(t, time.Monday, got.Weekday())
			assert.Equal(t, 0, got.Hour())
			assert.Equal(t, tt.in.Location(), got.Location())
		})
	}
}

func TestStartOfWeekIdempotent(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)

	start := time.Date(2023, 12, 20, 0, 0, 0, 0, loc)
	for i := 0; i < 400; i++ {
		d := start.AddDate(0, 0, i).Add(time.Duration(i%24) * time.Hour)
		once := StartOfWeek(d)
		assert.True(t, once.Equal(StartOfWeek(once)), "day %s", d)
	}
}

func TestWeekDates(t *testing.T) {
	week := WeekDates(date(t, "2024-01-03"))

	assert.Equal(t, Week{
		{Label: "Monday", Date: "2024-01-01"},
		{Label: "Tuesday", Date: "2024-01-02"},
		{Label: "Wednesday", Date: "2024-01-03"},
		{Label: "Thursday", Date: "2024-01-04"},
		{Label: "Friday", Date: "2024-01-05"},
	}, week)
	assert.Equal(t, "2024-01-01 ~ 2024-01-05", week.String())
	assert.True(t, week.Contains("2024-01-05"))
	assert.False(t, week.Contains("2024-01-06"))
}

func TestWeekDatesAlwaysFiveIncreasingDays(t *testing.T) {
	start := date(t, "2024-02-20")
	for i := 0; i < 60; i++ {
		week := WeekDates(StartOfWeek(start.AddDate(0, 0, i)))
		require.Len(t, week.Keys(), 5)
		for j, day := range week {
			assert.Equal(t, WeekdayLabels[j], day.Label)
			if j > 0 {
				assert.Less(t, string(week[j-1].Date), string(day.Date))
			}
		}
	}
}

func TestShiftWeek(t *testing.T) {
	start := date(t, "2024-01-03")
	assert.Equal(t, models.DateKey("2024-01-08"), FormatDateKey(ShiftWeek(start, 1)))
	assert.Equal(t, models.DateKey("2023-12-25"), FormatDateKey(ShiftWeek(start, -1)))
}

func TestParseDateKeyRejectsGarbage(t *testing.T) {
	_, err := ParseDateKey("2024/01/01", time.UTC)
	assert.Error(t, err)
}
