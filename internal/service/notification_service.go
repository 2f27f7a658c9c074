package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"sort"
	"strings"
	"time"

	"campina-tasks/internal/deadline"
	"campina-tasks/internal/model"
)

// Notice is a single notification about an urgent task.
type Notice struct {
	Title     string
	Body      string
	DedupeKey string
	TaskID    uint
	Urgency   deadline.Urgency
}

// Notifier is the host capability that can display notifications.
type Notifier interface {
	Permission(ctx context.Context) (model.Permission, error)
	RequestPermission(ctx context.Context) (model.Permission, error)
	Show(ctx context.Context, notice Notice) error
}

// DedupeKey identifies the notification of a task so repeated passes replace rather
// than duplicate it.
func DedupeKey(task model.Task) string {
	return fmt.Sprintf("task-%d", task.ID)
}

// Headline is the notification title for an urgency bucket. daysLeft is the number of
// days until the deadline and only shows in the DueSoon title.
func Headline(u deadline.Urgency, daysLeft int) string {
	switch u {
	case deadline.Overdue:
		return "⚠️ Sudah melewati deadline!"
	case deadline.DueToday:
		return "⏰ Deadline hari ini!"
	case deadline.DueTomorrow:
		return "📅 Deadline besok!"
	default:
		return fmt.Sprintf("📅 Deadline dalam %d hari", daysLeft)
	}
}

// NotificationService feeds urgent tasks to a Notifier and builds deadline digests.
type NotificationService struct {
	tasks     TaskStore
	areas     AreaStore
	lookahead int
}

func NewNotificationService(tasks TaskStore, areas AreaStore, lookaheadDays int) *NotificationService {
	return &NotificationService{tasks: tasks, areas: areas, lookahead: lookaheadDays}
}

// Lookahead returns the notification window in days.
func (s *NotificationService) Lookahead() int {
	return s.lookahead
}

// Notices labels the urgent subset of tasks. Tasks with unparseable deadlines are logged
// and skipped.
func (s *NotificationService) Notices(tasks []model.Task, now time.Time) []Notice {
	urgent, err := deadline.Urgent(tasks, now, s.lookahead)
	if err != nil {
		log.Printf("[warn] skipped tasks: %v", err)
	}
	notices := make([]Notice, 0, len(urgent))
	for _, item := range urgent {
		// Urgent already parsed every deadline it returns.
		daysLeft, _ := deadline.DaysUntil(item.Task.Deadline, now)
		notices = append(notices, Notice{
			Title:     Headline(item.Urgency, daysLeft),
			Body:      item.Task.Title,
			DedupeKey: DedupeKey(item.Task),
			TaskID:    item.Task.ID,
			Urgency:   item.Urgency,
		})
	}
	return notices
}

// Run shows a notification for every urgent task, asking for permission first when
// none was given or refused yet. It returns how many notices were shown.
func (s *NotificationService) Run(ctx context.Context, notifier Notifier, now time.Time) (int, error) {
	permission, err := notifier.Permission(ctx)
	if err != nil {
		return 0, fmt.Errorf("check permission: %w", err)
	}
	if permission == model.PermissionDefault {
		if permission, err = notifier.RequestPermission(ctx); err != nil {
			return 0, fmt.Errorf("request permission: %w", err)
		}
	}
	if permission != model.PermissionGranted {
		log.Printf("[info] notifications skipped: permission %s", permission)
		return 0, nil
	}

	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return 0, err
	}

	var (
		shown int
		errs  []error
	)
	for _, notice := range s.Notices(tasks, now) {
		if err := ctx.Err(); err != nil {
			return shown, err
		}
		if err := notifier.Show(ctx, notice); err != nil {
			errs = append(errs, fmt.Errorf("show %s: %w", notice.DedupeKey, err))
			continue
		}
		shown++
	}
	return shown, errors.Join(errs...)
}

// Digest builds a human-readable summary of urgent tasks grouped by area.
func (s *NotificationService) Digest(ctx context.Context, now time.Time) (string, error) {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return "", err
	}
	areas, err := s.areas.List(ctx)
	if err != nil {
		return "", err
	}

	urgent, err := deadline.Urgent(tasks, now, s.lookahead)
	if err != nil {
		log.Printf("[warn] digest skipped tasks: %v", err)
	}
	sort.SliceStable(urgent, func(i, j int) bool {
		return urgent[i].Task.Deadline < urgent[j].Task.Deadline
	})

	byArea := make(map[uint][]deadline.Labeled)
	for _, item := range urgent {
		byArea[item.Task.AreaID] = append(byArea[item.Task.AreaID], item)
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Ringkasan Deadline</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n", now.Format("02.01.2006")))

	if len(urgent) == 0 {
		builder.WriteString("\n— tidak ada task mendesak\n")
		return strings.TrimSpace(builder.String()), nil
	}

	for _, area := range areas {
		items := byArea[area.ID]
		if len(items) == 0 {
			continue
		}
		builder.WriteString(fmt.Sprintf("\n<b>%s</b>\n", html.EscapeString(area.Name)))
		for _, item := range items {
			builder.WriteString(formatUrgent(item))
		}
		delete(byArea, area.ID)
	}
	// Whatever is left belongs to areas that no longer exist.
	if len(byArea) > 0 {
		builder.WriteString("\n<b>-</b>\n")
	}
	for _, item := range urgent {
		if _, ok := byArea[item.Task.AreaID]; !ok {
			continue
		}
		builder.WriteString(formatUrgent(item))
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatUrgent(item deadline.Labeled) string {
	icon := "⏳"
	switch item.Urgency {
	case deadline.Overdue:
		icon = "⚠️"
	case deadline.DueToday:
		icon = "⏰"
	}
	return fmt.Sprintf("%s %s <i>(%s)</i> · %s\n",
		icon,
		html.EscapeString(strings.TrimSpace(item.Task.Title)),
		item.Task.Priority,
		deadline.DatePrefix(item.Task.Deadline),
	)
}
