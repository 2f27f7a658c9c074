package calendar

import (
	"fmt"
	"time"

	"campina-tasks/internal/deadline"
	"campina-tasks/internal/model"
)

const monthKeyLayout = "2006-01"

// View is the navigation state of a calendar: the displayed month and the selected day.
// Transitions return a new View and leave the receiver unchanged.
type View struct {
	Year     int
	Month    int    // 0-based
	Selected string // YYYY-MM-DD, empty when nothing is selected
}

// NewView shows the month containing now with nothing selected.
func NewView(now time.Time) View {
	return View{Year: now.Year(), Month: int(now.Month()) - 1}
}

// ParseMonth parses a "YYYY-MM" key into a View with nothing selected.
func ParseMonth(key string) (View, error) {
	t, err := time.Parse(monthKeyLayout, key)
	if err != nil {
		return View{}, fmt.Errorf("parse month %q: %w", key, err)
	}
	return View{Year: t.Year(), Month: int(t.Month()) - 1}, nil
}

// Key formats the displayed month as "YYYY-MM".
func (v View) Key() string {
	return fmt.Sprintf("%04d-%02d", v.Year, v.Month+1)
}

// Prev moves to the previous month, rolling into December of the previous year.
func (v View) Prev() View {
	if v.Month == 0 {
		v.Month = 11
		v.Year--
		return v
	}
	v.Month--
	return v
}

// Next moves to the following month, rolling into January of the next year.
func (v View) Next() View {
	if v.Month == 11 {
		v.Month = 0
		v.Year++
		return v
	}
	v.Month++
	return v
}

// Select toggles the selection of date: selecting the selected day clears it.
// The selection is an absolute date and survives navigation.
func (v View) Select(date string) View {
	date = deadline.DatePrefix(date)
	if v.Selected == date {
		v.Selected = ""
		return v
	}
	v.Selected = date
	return v
}

// SelectDay toggles day d of the displayed month.
func (v View) SelectDay(d int) View {
	return v.Select(DateKey(v.Year, v.Month, d))
}

// HasSelection reports whether a day is selected.
func (v View) HasSelection() bool {
	return v.Selected != ""
}

// SelectedTasks returns the tasks, of any status, due on the selected day.
func (v View) SelectedTasks(tasks []model.Task) []model.Task {
	if !v.HasSelection() {
		return nil
	}
	var out []model.Task
	for _, task := range tasks {
		if deadline.DatePrefix(task.Deadline) == v.Selected {
			out = append(out, task)
		}
	}
	return out
}

// Build buckets tasks for the displayed month.
func (v View) Build(tasks []model.Task, now time.Time) (Month, error) {
	return BuildMonth(tasks, v.Year, v.Month, now)
}
