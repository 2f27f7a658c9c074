// Package calendar buckets tasks into the days of a displayed month.
package calendar

import (
	"fmt"
	"time"

	"campina-tasks/internal/deadline"
	"campina-tasks/internal/model"
)

// InvalidMonthError indicates a 0-based month index outside 0..11.
type InvalidMonthError struct {
	Month int
}

func (e InvalidMonthError) Error() string {
	return fmt.Sprintf("invalid month %d (valid: 0-11)", e.Month)
}

// Day is the bucket for a single calendar day.
type Day struct {
	Date       string       `json:"date"`
	Number     int          `json:"day"`
	Tasks      []model.Task `json:"tasks"`
	HasTask    bool         `json:"has_task"`
	HasOverdue bool         `json:"has_overdue"`
}

// Month is the bucketed view of one month. Month is 0-based.
type Month struct {
	Year         int   `json:"year"`
	Month        int   `json:"month"`
	FirstWeekday int   `json:"first_weekday"`
	DaysInMonth  int   `json:"days_in_month"`
	Days         []Day `json:"days"`
}

// IsLeapYear applies the Gregorian rules.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in the 0-based month of year.
func DaysInMonth(year, month int) (int, error) {
	if month < 0 || month > 11 {
		return 0, InvalidMonthError{Month: month}
	}
	switch month {
	case 1:
		if IsLeapYear(year) {
			return 29, nil
		}
		return 28, nil
	case 3, 5, 8, 10:
		return 30, nil
	default:
		return 31, nil
	}
}

// DateKey formats the zero-padded date of day d in the 0-based month.
func DateKey(year, month, d int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month+1, d)
}

// BuildMonth buckets tasks by deadline day for the 0-based month of year. A task lands in
// the day whose date equals the date-only prefix of its deadline; tasks due in other months,
// or with deadlines that are not dates, land nowhere. Overdue flags are computed against
// now's calendar day.
func BuildMonth(tasks []model.Task, year, month int, now time.Time) (Month, error) {
	days, err := DaysInMonth(year, month)
	if err != nil {
		return Month{}, err
	}

	out := Month{
		Year:         year,
		Month:        month,
		FirstWeekday: int(time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC).Weekday()),
		DaysInMonth:  days,
		Days:         make([]Day, days),
	}
	index := make(map[string]int, days)
	for i := range out.Days {
		key := DateKey(year, month, i+1)
		out.Days[i] = Day{Date: key, Number: i + 1}
		index[key] = i
	}

	today := deadline.Day(now).Format(model.DateLayout)
	for _, task := range tasks {
		key := deadline.DatePrefix(task.Deadline)
		i, ok := index[key]
		if !ok {
			continue
		}
		day := &out.Days[i]
		day.Tasks = append(day.Tasks, task)
		if task.Status == model.StatusDone {
			continue
		}
		day.HasTask = true
		// Same-length zero-padded ISO dates order lexically.
		if key < today {
			day.HasOverdue = true
		}
	}
	return out, nil
}

// Day returns the bucket for day number n, or false when n is outside the month.
func (m Month) Day(n int) (Day, bool) {
	if n < 1 || n > len(m.Days) {
		return Day{}, false
	}
	return m.Days[n-1], true
}

// Weeks lays the month out in rows of seven starting on Sunday. Blank cells are zero.
func (m Month) Weeks() [][7]int {
	var (
		weeks [][7]int
		row   [7]int
	)
	col := m.FirstWeekday
	for d := 1; d <= m.DaysInMonth; d++ {
		row[col] = d
		col++
		if col == 7 {
			weeks = append(weeks, row)
			row = [7]int{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, row)
	}
	return weeks
}
