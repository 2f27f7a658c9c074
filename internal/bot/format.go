package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"campina-tasks/internal/deadline"
	"campina-tasks/internal/model"
	"campina-tasks/internal/service"
)

var monthNames = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

func monthTitle(year, month int) string {
	if month < 0 || month > 11 {
		return fmt.Sprintf("%d-%02d", year, month+1)
	}
	return fmt.Sprintf("%s %d", monthNames[month], year)
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// titleCase capitalizes every word of a name, keeping inner capitals such as "KCP".
func titleCase(value string) string {
	return cases.Title(language.Indonesian, cases.NoLower).String(strings.TrimSpace(value))
}

func formatAreaSummary(summary service.AreaSummary) string {
	line := fmt.Sprintf("• <b>%s</b> (#%d) · %d task", escape(titleCase(summary.Area.Name)), summary.Area.ID, summary.TaskCount)
	if summary.UrgentCount > 0 {
		line += fmt.Sprintf(" · ⚠️ %d mendesak", summary.UrgentCount)
	}
	return line + "\n"
}

func formatTaskGroups(areaName string, groups []service.PriorityGroup, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>%s</b>\n", escape(areaName)))
	if len(groups) == 0 {
		b.WriteString("\n— belum ada task")
		return b.String()
	}
	for _, group := range groups {
		b.WriteString(fmt.Sprintf("\n<b>%s</b> · %s\n", group.Priority, escape(group.Label)))
		for _, task := range group.Tasks {
			b.WriteString(formatTask(task, now))
		}
	}
	return strings.TrimSpace(b.String())
}

func taskIcon(task model.Task, now time.Time) string {
	if task.Status == model.StatusDone {
		return "✅"
	}
	urgency, err := deadline.Classify(task, now, 0)
	switch {
	case err != nil:
		return "❔"
	case urgency == deadline.Overdue:
		return "⚠️"
	case urgency == deadline.DueToday:
		return "⏰"
	case task.Status == model.StatusInProgress:
		return "🔄"
	default:
		return "🟢"
	}
}

func formatTask(task model.Task, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", taskIcon(task, now), task.ID, escape(normalizeTitle(task.Title))))
	b.WriteString(fmt.Sprintf("   📅 %s · %s\n", escape(deadline.DatePrefix(task.Deadline)), task.Status.Label()))
	if desc := strings.TrimSpace(task.Description); desc != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(desc)))
	}
	return b.String()
}
