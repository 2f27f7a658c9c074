package service

import (
	"context"
	"log"
	"time"

	"campina-tasks/internal/deadline"
	"campina-tasks/internal/model"
)

// AreaSummary is an area with its task count and urgent badge count.
type AreaSummary struct {
	Area        model.Area `json:"area"`
	TaskCount   int        `json:"task_count"`
	UrgentCount int        `json:"urgent_count"`
}

// AreaService provides helpers around areas.
type AreaService struct {
	areas          AreaStore
	tasks          TaskStore
	badgeLookahead int
}

func NewAreaService(areas AreaStore, tasks TaskStore, badgeLookahead int) *AreaService {
	return &AreaService{areas: areas, tasks: tasks, badgeLookahead: badgeLookahead}
}

func (s *AreaService) List(ctx context.Context) ([]model.Area, error) {
	return s.areas.List(ctx)
}

// Seed creates the named areas that do not exist yet.
func (s *AreaService) Seed(ctx context.Context, names []string) error {
	for _, name := range names {
		area, err := s.areas.GetOrCreate(ctx, name)
		if err != nil {
			return err
		}
		log.Printf("[info] area ready id=%d name=%q", area.ID, area.Name)
	}
	return nil
}

// Summaries returns every area with the number of its tasks and of its urgent tasks.
func (s *AreaService) Summaries(ctx context.Context, now time.Time) ([]AreaSummary, error) {
	areas, err := s.areas.List(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, err
	}

	byArea := make(map[uint][]model.Task, len(areas))
	for _, task := range tasks {
		byArea[task.AreaID] = append(byArea[task.AreaID], task)
	}

	summaries := make([]AreaSummary, 0, len(areas))
	for _, area := range areas {
		areaTasks := byArea[area.ID]
		summaries = append(summaries, AreaSummary{
			Area:        area,
			TaskCount:   len(areaTasks),
			UrgentCount: deadline.CountUrgent(areaTasks, now, s.badgeLookahead),
		})
	}
	return summaries, nil
}

// AreaName looks up the name of area id, or "-" when it is unknown.
func AreaName(areas []model.Area, id uint) string {
	for _, area := range areas {
		if area.ID == id {
			return area.Name
		}
	}
	return "-"
}
