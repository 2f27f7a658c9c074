// Package deadline classifies task deadlines into urgency buckets.
//
// All comparisons are made between calendar days: the deadline carries no time of day, and
// "now" is reduced to its date in its own location before anything is compared.
package deadline

import (
	"errors"
	"fmt"
	"time"

	"campina-tasks/internal/model"
)

// Urgency is the bucket a deadline falls into relative to a reference day.
type Urgency int

const (
	NotUrgent Urgency = iota
	Overdue
	DueToday
	DueTomorrow
	DueSoon
)

func (u Urgency) String() string {
	switch u {
	case Overdue:
		return "overdue"
	case DueToday:
		return "due_today"
	case DueTomorrow:
		return "due_tomorrow"
	case DueSoon:
		return "due_soon"
	default:
		return "not_urgent"
	}
}

// Urgent reports whether u is any bucket other than NotUrgent.
func (u Urgency) Urgent() bool {
	return u != NotUrgent
}

// InvalidDateError indicates a deadline that does not parse as a calendar date.
type InvalidDateError struct {
	TaskID uint
	Value  string
}

func (e InvalidDateError) Error() string {
	if e.TaskID != 0 {
		return fmt.Sprintf("task %d: invalid date %q", e.TaskID, e.Value)
	}
	return fmt.Sprintf("invalid date %q", e.Value)
}

// ParseDate parses a calendar date. Timestamps are accepted and reduced to their
// date-only prefix, so "2025-06-15T23:00:00Z" is the 15th.
func ParseDate(value string) (time.Time, error) {
	day, err := time.Parse(model.DateLayout, DatePrefix(value))
	if err != nil {
		return time.Time{}, InvalidDateError{Value: value}
	}
	return day, nil
}

// DatePrefix returns the date-only part of an ISO date or timestamp.
func DatePrefix(value string) string {
	if len(value) > len(model.DateLayout) {
		switch value[len(model.DateLayout)] {
		case 'T', 't', ' ':
			return value[:len(model.DateLayout)]
		}
	}
	return value
}

// Day returns t's calendar date in t's location as a UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysUntil returns the number of whole days from now's date to the deadline date.
func DaysUntil(deadline string, now time.Time) (int, error) {
	day, err := ParseDate(deadline)
	if err != nil {
		return 0, err
	}
	// Both sides are UTC midnights so every day is exactly 24h.
	return int(day.Sub(Day(now)).Hours() / 24), nil
}

// Classify decides the urgency of task relative to now with a lookahead window of
// lookaheadDays, inclusive. Done tasks are never urgent, whatever their deadline.
func Classify(task model.Task, now time.Time, lookaheadDays int) (Urgency, error) {
	if task.Status == model.StatusDone {
		return NotUrgent, nil
	}
	if lookaheadDays < 0 {
		lookaheadDays = 0
	}

	diff, err := DaysUntil(task.Deadline, now)
	if err != nil {
		return NotUrgent, InvalidDateError{TaskID: task.ID, Value: task.Deadline}
	}

	switch {
	case diff < 0:
		return Overdue, nil
	case diff == 0:
		return DueToday, nil
	case diff > lookaheadDays:
		return NotUrgent, nil
	case diff == 1:
		return DueTomorrow, nil
	default:
		return DueSoon, nil
	}
}

// Labeled pairs a task with its urgency.
type Labeled struct {
	Task    model.Task
	Urgency Urgency
}

// Urgent returns the urgent subset of tasks in input order. Tasks whose deadline does not
// parse are left out and reported in the returned error; the subset is returned either way.
func Urgent(tasks []model.Task, now time.Time, lookaheadDays int) ([]Labeled, error) {
	var (
		out  []Labeled
		errs []error
	)
	for _, task := range tasks {
		urgency, err := Classify(task, now, lookaheadDays)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if urgency.Urgent() {
			out = append(out, Labeled{Task: task, Urgency: urgency})
		}
	}
	return out, errors.Join(errs...)
}

// CountUrgent counts urgent tasks, ignoring tasks with invalid deadlines.
func CountUrgent(tasks []model.Task, now time.Time, lookaheadDays int) int {
	urgent, _ := Urgent(tasks, now, lookaheadDays)
	return len(urgent)
}
