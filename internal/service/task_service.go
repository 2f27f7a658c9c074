package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jnow "github.com/jinzhu/now"

	"campina-tasks/internal/calendar"
	"campina-tasks/internal/deadline"
	"campina-tasks/internal/model"
	"campina-tasks/internal/repository"
)

// TaskInput represents data required to create a task in one or more areas.
type TaskInput struct {
	AreaIDs     []uint         `json:"area_ids"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority"`
	Deadline    string         `json:"deadline"`
}

// PriorityGroup holds the tasks of one priority.
type PriorityGroup struct {
	Priority model.Priority `json:"priority"`
	Label    string         `json:"label"`
	Tasks    []model.Task   `json:"tasks"`
}

// CalendarPage is a bucketed month plus the tasks of the selected day.
type CalendarPage struct {
	View     calendar.View  `json:"-"`
	Month    calendar.Month `json:"month"`
	Selected []model.Task   `json:"selected"`
}

// TaskService wraps task-related business logic.
type TaskService struct {
	tasks TaskStore
	areas AreaStore
}

func NewTaskService(tasks TaskStore, areas AreaStore) *TaskService {
	return &TaskService{tasks: tasks, areas: areas}
}

// Create files one task per selected area.
func (s *TaskService) Create(ctx context.Context, input TaskInput) ([]model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ValidationError{Field: "title", Reason: "is required"}
	}
	if !input.Priority.Valid() {
		return nil, ValidationError{Field: "priority", Reason: fmt.Sprintf("%q is not one of PU, PTU, UTP, TUTP", input.Priority)}
	}
	day, err := deadline.ParseDate(strings.TrimSpace(input.Deadline))
	if err != nil {
		return nil, ValidationError{Field: "deadline", Reason: err.Error()}
	}
	if len(input.AreaIDs) == 0 {
		return nil, ValidationError{Field: "area_ids", Reason: "at least one area is required"}
	}

	seen := make(map[uint]bool, len(input.AreaIDs))
	tasks := make([]model.Task, 0, len(input.AreaIDs))
	for _, areaID := range input.AreaIDs {
		if seen[areaID] {
			continue
		}
		seen[areaID] = true
		if _, err := s.areas.FindByID(ctx, areaID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ValidationError{Field: "area_ids", Reason: fmt.Sprintf("area %d does not exist", areaID)}
			}
			return nil, err
		}
		tasks = append(tasks, model.Task{
			AreaID:      areaID,
			Title:       title,
			Description: strings.TrimSpace(input.Description),
			Priority:    input.Priority,
			Deadline:    day.Format(model.DateLayout),
			Status:      model.StatusTodo,
		})
	}

	return s.tasks.Insert(ctx, tasks)
}

func (s *TaskService) Get(ctx context.Context, id uint) (*model.Task, error) {
	return s.tasks.FindByID(ctx, id)
}

func (s *TaskService) List(ctx context.Context) ([]model.Task, error) {
	return s.tasks.List(ctx)
}

func (s *TaskService) ListByArea(ctx context.Context, areaID uint) ([]model.Task, error) {
	return s.tasks.ListByArea(ctx, areaID)
}

// TaskUpdate holds the fields of a task to change. Nil fields are left as they are.
type TaskUpdate struct {
	Status   *model.Status
	Deadline *string
}

// Update validates every field of u before writing, so a rejected update leaves the
// task untouched.
func (s *TaskService) Update(ctx context.Context, id uint, u TaskUpdate) (*model.Task, error) {
	fields := make(map[string]any, 2)
	if u.Status != nil {
		if !u.Status.Valid() {
			return nil, ValidationError{Field: "status", Reason: fmt.Sprintf("%q is not one of todo, in_progress, done", *u.Status)}
		}
		fields["status"] = *u.Status
	}
	if u.Deadline != nil {
		day, err := deadline.ParseDate(strings.TrimSpace(*u.Deadline))
		if err != nil {
			return nil, ValidationError{Field: "deadline", Reason: err.Error()}
		}
		fields["deadline"] = day.Format(model.DateLayout)
	}
	if len(fields) == 0 {
		return nil, ValidationError{Field: "task", Reason: "nothing to update"}
	}
	if err := s.tasks.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.tasks.FindByID(ctx, id)
}

// UpdateStatus moves a task to any status.
func (s *TaskService) UpdateStatus(ctx context.Context, id uint, status model.Status) (*model.Task, error) {
	return s.Update(ctx, id, TaskUpdate{Status: &status})
}

// UpdateDeadline moves a task to another calendar date.
func (s *TaskService) UpdateDeadline(ctx context.Context, id uint, value string) (*model.Task, error) {
	return s.Update(ctx, id, TaskUpdate{Deadline: &value})
}

func (s *TaskService) Delete(ctx context.Context, id uint) error {
	return s.tasks.Delete(ctx, id)
}

// GroupByPriority splits tasks by priority in PU, PTU, UTP, TUTP order, leaving out
// priorities without tasks.
func GroupByPriority(tasks []model.Task) []PriorityGroup {
	var groups []PriorityGroup
	for _, priority := range model.Priorities {
		var matched []model.Task
		for _, task := range tasks {
			if task.Priority == priority {
				matched = append(matched, task)
			}
		}
		if len(matched) == 0 {
			continue
		}
		groups = append(groups, PriorityGroup{Priority: priority, Label: priority.Label(), Tasks: matched})
	}
	return groups
}

// Calendar loads the displayed month of view and buckets its tasks.
func (s *TaskService) Calendar(ctx context.Context, view calendar.View, now time.Time) (CalendarPage, error) {
	if _, err := calendar.DaysInMonth(view.Year, view.Month); err != nil {
		return CalendarPage{}, err
	}

	mid := time.Date(view.Year, time.Month(view.Month+1), 15, 0, 0, 0, 0, time.UTC)
	from := jnow.With(mid).BeginningOfMonth().Format(model.DateLayout)
	to := jnow.With(mid).EndOfMonth().Format(model.DateLayout)

	tasks, err := s.tasks.ListDueBetween(ctx, from, to)
	if err != nil {
		return CalendarPage{}, err
	}
	month, err := view.Build(tasks, now)
	if err != nil {
		return CalendarPage{}, err
	}

	page := CalendarPage{View: view, Month: month}
	if !view.HasSelection() {
		return page, nil
	}
	// The selection may lie outside the displayed month.
	selectedPool := tasks
	if view.Selected < from || view.Selected > to {
		selectedPool, err = s.tasks.ListDueBetween(ctx, view.Selected, view.Selected)
		if err != nil {
			return CalendarPage{}, err
		}
	}
	page.Selected = view.SelectedTasks(selectedPool)
	return page, nil
}
