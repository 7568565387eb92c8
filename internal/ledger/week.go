package ledger

import (
	"fmt"
	"time"

	"github.com/chrisdamba/bentoledger/internal/models"
)

// WeekdayLabels are the fixed labels of a work week, Monday first.
var WeekdayLabels = [5]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// WeekDay is one labelled day of a work week.
type WeekDay struct {
	Label string
	Date  models.DateKey
}

// Week is the Monday..Friday window of a week.
type Week [5]WeekDay

// StartOfWeek returns Monday 00:00 of the week containing t, in t's location.
// Sunday belongs to the week that started the previous Monday.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// ShiftWeek moves a week start by n weeks.
func ShiftWeek(weekStart time.Time, n int) time.Time {
	start := StartOfWeek(weekStart)
	y, m, d := start.Date()
	return time.Date(y, m, d+7*n, 0, 0, 0, 0, start.Location())
}

// WeekDates lists the five weekdays of the week containing weekStart.
func WeekDates(weekStart time.Time) Week {
	start := StartOfWeek(weekStart)
	y, m, d := start.Date()

	var week Week
	for i := range week {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, start.Location())
		week[i] = WeekDay{Label: WeekdayLabels[i], Date: FormatDateKey(day)}
	}
	return week
}

// FormatDateKey renders t as YYYY-MM-DD.
func FormatDateKey(t time.Time) models.DateKey {
	return models.DateKey(t.Format(models.DateKeyLayout))
}

// ParseDateKey parses a YYYY-MM-DD key at midnight in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(models.DateKeyLayout, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", key, err)
	}
	return t, nil
}

// Keys returns the five date keys in order.
func (w Week) Keys() []models.DateKey {
	keys := make([]models.DateKey, len(w))
	for i, day := range w {
		keys[i] = day.Date
	}
	return keys
}

// Start is the Monday key of the week.
func (w Week) Start() models.DateKey {
	return w[0].Date
}

// Contains reports whether key is one of the week's days.
func (w Week) Contains(key models.DateKey) bool {
	for _, day := range w {
		if day.Date == key {
			return true
		}
	}
	return false
}

func (w Week) String() string {
	return fmt.Sprintf("%s ~ %s", w[0].Date, w[4].Date)
}
