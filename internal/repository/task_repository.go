package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"campina-tasks/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns every task, newest first.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) ListByArea(ctx context.Context, areaID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("area_id = ?", areaID).
		Order("created_at DESC, id DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks for area %d: %w", areaID, err)
	}
	return tasks, nil
}

// ListDueBetween returns tasks whose deadline lies in [from, to], both YYYY-MM-DD.
// ISO dates compare correctly as text.
func (r *TaskRepository) ListDueBetween(ctx context.Context, from, to string) ([]model.Task, error) {
	var tasks []model.Task
	// "~" sorts after any time suffix, so timestamps on the last day are kept.
	if err := r.db.WithContext(ctx).Where("deadline >= ? AND deadline < ?", from, to+"~").
		Order("deadline ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks due %s..%s: %w", from, to, err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// Insert creates all tasks in one transaction and fills in their ids.
func (r *TaskRepository) Insert(ctx context.Context, tasks []model.Task) ([]model.Task, error) {
	if len(tasks) == 0 {
		return tasks, nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&tasks).Error
	})
	if err != nil {
		return nil, fmt.Errorf("insert tasks: %w", err)
	}
	return tasks, nil
}

// Update applies fields to the task with the given id and touches updated_at.
func (r *TaskRepository) Update(ctx context.Context, id uint, fields map[string]any) error {
	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update task %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Task{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete task %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
