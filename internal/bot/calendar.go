package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"campina-tasks/internal/calendar"
	"campina-tasks/internal/deadline"
)

var weekdayNames = [7]string{"Min", "Sen", "Sel", "Rab", "Kam", "Jum", "Sab"}

// renderCalendar draws the month of view as an inline keyboard. Day buttons toggle the
// selection; days with open tasks carry a dot, days with overdue tasks an exclamation mark.
func (b *Bot) renderCalendar(ctx context.Context, view calendar.View) (string, tgbotapi.InlineKeyboardMarkup, error) {
	page, err := b.deps.Tasks.Calendar(ctx, view, b.deps.Now())
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}
	title := monthTitle(view.Year, view.Month)

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀", calendarData(view.Prev())),
			tgbotapi.NewInlineKeyboardButtonData(title, cbNoop),
			tgbotapi.NewInlineKeyboardButtonData("▶", calendarData(view.Next())),
		),
	}
	header := make([]tgbotapi.InlineKeyboardButton, 0, len(weekdayNames))
	for _, name := range weekdayNames {
		header = append(header, tgbotapi.NewInlineKeyboardButtonData(name, cbNoop))
	}
	rows = append(rows, header)

	for _, week := range page.Month.Weeks() {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(week))
		for _, d := range week {
			if d == 0 {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(" ", cbNoop))
				continue
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(dayLabel(page.Month, view, d), calendarData(view.SelectDay(d))))
		}
		rows = append(rows, row)
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("🗓 <b>%s</b>\n", title))
	if !view.HasSelection() {
		text.WriteString("Pilih tanggal untuk melihat task.")
		return text.String(), tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
	}

	text.WriteString(fmt.Sprintf("\n<b>%s</b>\n", dateTitle(view.Selected)))
	if len(page.Selected) == 0 {
		text.WriteString("— tidak ada task")
	}
	now := b.deps.Now()
	for _, task := range page.Selected {
		text.WriteString(formatTask(task, now))
	}
	return strings.TrimSpace(text.String()), tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}, nil
}

func dayLabel(month calendar.Month, view calendar.View, d int) string {
	label := strconv.Itoa(d)
	if day, ok := month.Day(d); ok {
		switch {
		case day.HasOverdue:
			label += "!"
		case day.HasTask:
			label += "•"
		}
	}
	if calendar.DateKey(view.Year, view.Month, d) == view.Selected {
		label = "[" + label + "]"
	}
	return label
}

func dateTitle(date string) string {
	day, err := deadline.ParseDate(date)
	if err != nil {
		return escape(date)
	}
	return fmt.Sprintf("%d %s", day.Day(), monthTitle(day.Year(), int(day.Month())-1))
}
