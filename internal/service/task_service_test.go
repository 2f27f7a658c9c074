package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"campina-tasks/internal/calendar"
	"campina-tasks/internal/model"
	"campina-tasks/internal/repository"
)

func TestCreateOnePerArea(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "Malang", "Batu", "Kediri")
	svc := NewTaskService(f.tasks, f.areas)

	created, err := svc.Create(ctx, TaskInput{
		AreaIDs:     []uint{1, 2, 3, 2},
		Title:       "  Stock opname  ",
		Description: "gudang utama",
		Priority:    model.PriorityPTU,
		Deadline:    "2025-06-20T00:00:00+07:00",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("created %d tasks, want 3", len(created))
	}
	for i, task := range created {
		if task.AreaID != uint(i+1) {
			t.Errorf("task %d area = %d", i, task.AreaID)
		}
		if task.Title != "Stock opname" || task.Deadline != "2025-06-20" || task.Status != model.StatusTodo {
			t.Errorf("task %d = %+v", i, task)
		}
	}

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("stored %d tasks", len(all))
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, "Malang")
	svc := NewTaskService(f.tasks, f.areas)

	valid := TaskInput{AreaIDs: []uint{1}, Title: "x", Priority: model.PriorityPU, Deadline: "2025-06-20"}
	tests := []struct {
		name  string
		edit  func(*TaskInput)
		field string
	}{
		{"blank title", func(in *TaskInput) { in.Title = " " }, "title"},
		{"bad priority", func(in *TaskInput) { in.Priority = "HIGH" }, "priority"},
		{"bad deadline", func(in *TaskInput) { in.Deadline = "20/06/2025" }, "deadline"},
		{"no areas", func(in *TaskInput) { in.AreaIDs = nil }, "area_ids"},
		{"unknown area", func(in *TaskInput) { in.AreaIDs = []uint{1, 9} }, "area_ids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.edit(&in)
			_, err := svc.Create(context.Background(), in)
			var verr ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("expected ValidationError on %s, got %v", tt.field, err)
			}
		})
	}

	all, _ := svc.List(context.Background())
	if len(all) != 0 {
		t.Errorf("rejected input stored %d tasks", len(all))
	}
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "Malang")
	svc := NewTaskService(f.tasks, f.areas)
	task := f.insert(t, model.Task{AreaID: 1, Title: "x", Priority: model.PriorityPU, Deadline: "2025-06-20", Status: model.StatusTodo})[0]

	// Any status may follow any other.
	for _, status := range []model.Status{model.StatusDone, model.StatusTodo, model.StatusInProgress} {
		got, err := svc.UpdateStatus(ctx, task.ID, status)
		if err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
		if got.Status != status {
			t.Errorf("status = %s, want %s", got.Status, status)
		}
	}
	if _, err := svc.UpdateStatus(ctx, task.ID, "archived"); err == nil {
		t.Error("expected error for unknown status")
	}

	got, err := svc.UpdateDeadline(ctx, task.ID, "2025-07-01")
	if err != nil {
		t.Fatalf("UpdateDeadline: %v", err)
	}
	if got.Deadline != "2025-07-01" {
		t.Errorf("deadline = %s", got.Deadline)
	}
	if _, err := svc.UpdateDeadline(ctx, task.ID, "nope"); err == nil {
		t.Error("expected error for bad deadline")
	}

	done, bogus := model.StatusDone, "bogus"
	if _, err := svc.Update(ctx, task.ID, TaskUpdate{Status: &done, Deadline: &bogus}); err == nil {
		t.Error("expected error for bad deadline in combined update")
	}
	got, err = svc.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.StatusInProgress || got.Deadline != "2025-07-01" {
		t.Errorf("rejected update changed task: status=%s deadline=%s", got.Status, got.Deadline)
	}
	if _, err := svc.Update(ctx, task.ID, TaskUpdate{}); err == nil {
		t.Error("expected error for empty update")
	}

	if err := svc.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, task.ID, model.StatusDone); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("update after delete = %v, want ErrNotFound", err)
	}
}

func TestGroupByPriority(t *testing.T) {
	tasks := []model.Task{
		{ID: 1, Priority: model.PriorityTUTP},
		{ID: 2, Priority: model.PriorityPU},
		{ID: 3, Priority: model.PriorityTUTP},
		{ID: 4, Priority: model.PriorityUTP},
	}
	groups := GroupByPriority(tasks)
	if len(groups) != 3 {
		t.Fatalf("got %d groups", len(groups))
	}
	order := []model.Priority{model.PriorityPU, model.PriorityUTP, model.PriorityTUTP}
	for i, p := range order {
		if groups[i].Priority != p {
			t.Errorf("group %d = %s, want %s", i, groups[i].Priority, p)
		}
	}
	if len(groups[2].Tasks) != 2 || groups[2].Tasks[0].ID != 1 || groups[2].Tasks[1].ID != 3 {
		t.Errorf("TUTP group = %+v", groups[2].Tasks)
	}
	if groups[0].Label != "Penting & Urgent" {
		t.Errorf("label = %q", groups[0].Label)
	}
}

func TestCalendarPage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "Malang")
	svc := NewTaskService(f.tasks, f.areas)
	f.insert(t,
		model.Task{AreaID: 1, Title: "a", Priority: model.PriorityPU, Deadline: "2025-06-15", Status: model.StatusTodo},
		model.Task{AreaID: 1, Title: "b", Priority: model.PriorityPU, Deadline: "2025-06-30", Status: model.StatusDone},
		model.Task{AreaID: 1, Title: "c", Priority: model.PriorityPU, Deadline: "2025-07-01", Status: model.StatusTodo},
	)
	now := time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)

	view := calendar.View{Year: 2025, Month: 5}.Select("2025-06-15")
	page, err := svc.Calendar(ctx, view, now)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if page.Month.DaysInMonth != 30 {
		t.Errorf("days = %d", page.Month.DaysInMonth)
	}
	d15, _ := page.Month.Day(15)
	if len(d15.Tasks) != 1 || !d15.HasOverdue {
		t.Errorf("day 15 = %+v", d15)
	}
	d30, _ := page.Month.Day(30)
	if len(d30.Tasks) != 1 || d30.HasTask {
		t.Errorf("day 30 = %+v", d30)
	}
	if len(page.Selected) != 1 || page.Selected[0].Title != "a" {
		t.Errorf("selected = %+v", page.Selected)
	}

	// Selection outside the displayed month still resolves.
	page, err = svc.Calendar(ctx, view.Select("2025-07-01").Prev(), now)
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if page.Month.Month != 4 || len(page.Selected) != 1 || page.Selected[0].Title != "c" {
		t.Errorf("page = month %d selected %+v", page.Month.Month, page.Selected)
	}

	if _, err := svc.Calendar(ctx, calendar.View{Year: 2025, Month: 12}, now); err == nil {
		t.Error("expected InvalidMonthError")
	}
}
