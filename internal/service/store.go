package service

import (
	"context"
	"fmt"

	"campina-tasks/internal/model"
)

// AreaStore is the read side of the areas collection.
type AreaStore interface {
	List(ctx context.Context) ([]model.Area, error)
	FindByID(ctx context.Context, id uint) (*model.Area, error)
	GetOrCreate(ctx context.Context, name string) (*model.Area, error)
}

// TaskStore is the list/insert/update/delete surface of the tasks collection.
type TaskStore interface {
	List(ctx context.Context) ([]model.Task, error)
	ListByArea(ctx context.Context, areaID uint) ([]model.Task, error)
	ListDueBetween(ctx context.Context, from, to string) ([]model.Task, error)
	FindByID(ctx context.Context, id uint) (*model.Task, error)
	Insert(ctx context.Context, tasks []model.Task) ([]model.Task, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
}

// ValidationError indicates rejected caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
