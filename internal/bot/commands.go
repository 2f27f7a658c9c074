package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"campina-tasks/internal/calendar"
	"campina-tasks/internal/deadline"
	"campina-tasks/internal/model"
	"campina-tasks/internal/repository"
	"campina-tasks/internal/service"
)

const (
	cbDonePrefix     = "done:"
	cbCalendarPrefix = "cal:"
	cbNoop           = "noop"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	sub, err := b.deps.Subscribers.UpsertFromTelegram(ctx, msg.From.ID, msg.From.FirstName, msg.From.UserName)
	if err != nil {
		return err
	}

	name := titleCase(msg.From.FirstName)
	if name == "" {
		name = "teman"
	}
	text := fmt.Sprintf("👋 Halo, %s!\n<b>Saya membantu memantau deadline task per area.</b>\n\n%s", escape(name), helpText)
	if err := b.sendText(msg.Chat.ID, text); err != nil {
		return err
	}

	// A previous refusal is undone by subscribing again.
	if sub.Permission != model.PermissionGranted {
		if sub.Permission == model.PermissionDenied {
			if err := b.deps.Subscribers.SetPermission(ctx, sub.TelegramID, model.PermissionDefault); err != nil {
				return err
			}
		}
		return b.sendPermissionPrompt(msg.Chat.ID)
	}
	return nil
}

func (b *Bot) handleStop(ctx context.Context, msg *tgbotapi.Message) error {
	err := b.deps.Subscribers.SetPermission(ctx, msg.From.ID, model.PermissionDenied)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return b.sendText(msg.Chat.ID, "🔕 Notifikasi dimatikan. Ketik /start untuk berlangganan lagi.")
}

const helpText = "Perintah:\n" +
	"• /areas · daftar area dan jumlah task mendesak\n" +
	"• /tasks &lt;id area&gt; · task sebuah area per prioritas\n" +
	"• /urgent · ringkasan deadline\n" +
	"• /calendar [YYYY-MM] · kalender deadline\n" +
	"• /status &lt;id&gt; &lt;todo|in_progress|done&gt; · ubah status task\n" +
	"• /stop · matikan notifikasi\n" +
	"• /help · bantuan"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Bantuan</b>\n"+helpText)
}

func (b *Bot) handleAreas(ctx context.Context, msg *tgbotapi.Message) error {
	summaries, err := b.deps.Areas.Summaries(ctx, b.deps.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Gagal memuat area: %s", escape(err.Error())))
	}
	if len(summaries) == 0 {
		return b.sendText(msg.Chat.ID, "Belum ada area.")
	}

	var builder strings.Builder
	builder.WriteString("📂 <b>Area</b>\n")
	for _, summary := range summaries {
		builder.WriteString(formatAreaSummary(summary))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleTasks(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	areaID, err := strconv.ParseUint(args, 10, 64)
	if err != nil || areaID == 0 {
		return b.sendText(msg.Chat.ID, "Sebutkan id area: /tasks 1")
	}

	areas, err := b.deps.Areas.List(ctx)
	if err != nil {
		return err
	}
	name := service.AreaName(areas, uint(areaID))
	if name == "-" {
		return b.sendText(msg.Chat.ID, "Area tidak ditemukan.")
	}

	tasks, err := b.deps.Tasks.ListByArea(ctx, uint(areaID))
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Gagal memuat task: %s", escape(err.Error())))
	}
	log.Printf("[info] list tasks area=%d count=%d", areaID, len(tasks))
	return b.sendText(msg.Chat.ID, formatTaskGroups(titleCase(name), service.GroupByPriority(tasks), b.deps.Now()))
}

func (b *Bot) handleUrgent(ctx context.Context, msg *tgbotapi.Message) error {
	text, err := b.deps.Notifications.Digest(ctx, b.deps.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Gagal menyusun ringkasan: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) != 2 {
		return b.sendText(msg.Chat.ID, "Format: /status &lt;id&gt; &lt;todo|in_progress|done&gt;")
	}
	id, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return b.sendText(msg.Chat.ID, "ID task harus berupa angka.")
	}
	return b.updateStatus(ctx, msg.Chat.ID, uint(id), model.Status(strings.ToLower(fields[1])))
}

func (b *Bot) updateStatus(ctx context.Context, chatID int64, id uint, status model.Status) error {
	task, err := b.deps.Tasks.UpdateStatus(ctx, id, status)
	if err != nil {
		var verr service.ValidationError
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return b.sendText(chatID, "Task tidak ditemukan.")
		case errors.As(err, &verr):
			return b.sendText(chatID, escape(verr.Error()))
		default:
			return b.sendText(chatID, fmt.Sprintf("Gagal: %s", escape(err.Error())))
		}
	}
	log.Printf("[info] task status id=%d status=%s", task.ID, task.Status)
	return b.sendText(chatID, fmt.Sprintf("✅ Task «%s» sekarang <b>%s</b>.", escape(normalizeTitle(task.Title)), task.Status.Label()))
}

func (b *Bot) handleCalendar(ctx context.Context, msg *tgbotapi.Message) error {
	view, ok := b.getView(msg.Chat.ID)
	if !ok {
		view = calendar.NewView(b.deps.Now())
	}
	if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
		parsed, err := calendar.ParseMonth(args)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Format bulan: /calendar 2025-06")
		}
		view = parsed
	}

	text, markup, err := b.renderCalendar(ctx, view)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Gagal memuat kalender: %s", escape(err.Error())))
	}
	b.setView(msg.Chat.ID, view)
	return b.sendWithReplyMarkup(msg.Chat.ID, text, markup)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data

	switch {
	case data == cbAllow, data == cbDeny:
		permission := model.PermissionGranted
		reply := "🔔 Notifikasi diaktifkan."
		if data == cbDeny {
			permission = model.PermissionDenied
			reply = "🔕 Notifikasi ditolak. Ketik /start kalau berubah pikiran."
		}
		log.Printf("[info] callback permission user=%d permission=%s", cb.From.ID, permission)
		b.ack(cb)
		if _, err := b.deps.Subscribers.UpsertFromTelegram(ctx, cb.From.ID, cb.From.FirstName, cb.From.UserName); err != nil {
			return err
		}
		if err := b.deps.Subscribers.SetPermission(ctx, cb.From.ID, permission); err != nil {
			return err
		}
		return b.editText(chatID, cb.Message.MessageID, reply)
	case strings.HasPrefix(data, cbDonePrefix):
		b.ack(cb)
		id, err := strconv.ParseUint(strings.TrimPrefix(data, cbDonePrefix), 10, 64)
		if err != nil {
			return nil
		}
		return b.updateStatus(ctx, chatID, uint(id), model.StatusDone)
	case strings.HasPrefix(data, cbCalendarPrefix):
		b.ack(cb)
		view, err := parseCalendarData(data)
		if err != nil {
			return nil
		}
		text, markup, err := b.renderCalendar(ctx, view)
		if err != nil {
			return err
		}
		b.setView(chatID, view)
		return b.editWithMarkup(chatID, cb.Message.MessageID, text, markup)
	default:
		b.ack(cb)
		return nil
	}
}

// calendarData encodes a view as callback data: cal:<YYYY-MM>:<YYYY-MM-DD or empty>.
func calendarData(view calendar.View) string {
	return cbCalendarPrefix + view.Key() + ":" + view.Selected
}

func parseCalendarData(data string) (calendar.View, error) {
	month, selected, ok := strings.Cut(strings.TrimPrefix(data, cbCalendarPrefix), ":")
	if !ok {
		return calendar.View{}, fmt.Errorf("malformed calendar data %q", data)
	}
	view, err := calendar.ParseMonth(month)
	if err != nil {
		return calendar.View{}, err
	}
	if selected != "" {
		if _, err := deadline.ParseDate(selected); err != nil {
			return calendar.View{}, err
		}
		view.Selected = selected
	}
	return view, nil
}
