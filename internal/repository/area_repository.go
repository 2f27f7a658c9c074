package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"campina-tasks/internal/model"
)

// AreaRepository reads and seeds areas.
type AreaRepository struct {
	db *gorm.DB
}

func NewAreaRepository(db *gorm.DB) *AreaRepository {
	return &AreaRepository{db: db}
}

// List returns every area ordered by id.
func (r *AreaRepository) List(ctx context.Context) ([]model.Area, error) {
	var areas []model.Area
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	return areas, nil
}

func (r *AreaRepository) FindByID(ctx context.Context, id uint) (*model.Area, error) {
	var area model.Area
	if err := r.db.WithContext(ctx).First(&area, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &area, nil
}

// GetOrCreate returns the area with the given name, creating it when missing.
func (r *AreaRepository) GetOrCreate(ctx context.Context, name string) (*model.Area, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("area name is required")
	}

	var area model.Area
	db := r.db.WithContext(ctx)
	err := db.Where("name = ?", name).First(&area).Error
	switch {
	case err == nil:
		return &area, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		area = model.Area{Name: name}
		if err := db.Create(&area).Error; err != nil {
			return nil, fmt.Errorf("create area: %w", err)
		}
		return &area, nil
	default:
		return nil, fmt.Errorf("find area: %w", err)
	}
}
