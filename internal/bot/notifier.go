package bot

import (
	"context"
	"errors"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"campina-tasks/internal/model"
	"campina-tasks/internal/service"
)

const (
	cbAllow = "perm:allow"
	cbDeny  = "perm:deny"

	promptKey = "permission-prompt"
)

var _ service.Notifier = (*Bot)(nil)

// Permission is granted while any chat accepts notifications, default while someone has
// not answered yet, and denied otherwise.
func (b *Bot) Permission(ctx context.Context) (model.Permission, error) {
	granted, err := b.deps.Subscribers.ListByPermission(ctx, model.PermissionGranted)
	if err != nil {
		return "", err
	}
	if len(granted) > 0 {
		return model.PermissionGranted, nil
	}
	pending, err := b.deps.Subscribers.ListByPermission(ctx, model.PermissionDefault)
	if err != nil {
		return "", err
	}
	if len(pending) > 0 {
		return model.PermissionDefault, nil
	}
	return model.PermissionDenied, nil
}

// RequestPermission asks every undecided chat, at most once a day, to allow
// notifications. Answers arrive later as callbacks, so the result is default while
// anyone is still undecided.
func (b *Bot) RequestPermission(ctx context.Context) (model.Permission, error) {
	permission, err := b.Permission(ctx)
	if err != nil || permission != model.PermissionDefault {
		return permission, err
	}

	pending, err := b.deps.Subscribers.ListByPermission(ctx, model.PermissionDefault)
	if err != nil {
		return "", err
	}
	day := b.today()
	for _, sub := range pending {
		claimed, err := b.deps.Deliveries.Claim(ctx, sub.ID, promptKey, day)
		if err != nil {
			return "", err
		}
		if !claimed {
			continue
		}
		if err := b.sendPermissionPrompt(sub.TelegramID); err != nil {
			log.Printf("[warn] permission prompt to %d: %v", sub.TelegramID, err)
			if err := b.deps.Deliveries.Release(ctx, sub.ID, promptKey, day); err != nil {
				log.Printf("[warn] %v", err)
			}
		}
	}
	return model.PermissionDefault, nil
}

func (b *Bot) sendPermissionPrompt(chatID int64) error {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔔 Izinkan", cbAllow),
			tgbotapi.NewInlineKeyboardButtonData("🔕 Tolak", cbDeny),
		),
	)
	return b.sendWithReplyMarkup(chatID, "Boleh saya kirim notifikasi deadline task yang mendesak?", markup)
}

// Show sends notice to every chat that allowed notifications. A chat receives the same
// dedupe key at most once a day.
func (b *Bot) Show(ctx context.Context, notice service.Notice) error {
	subs, err := b.deps.Subscribers.ListByPermission(ctx, model.PermissionGranted)
	if err != nil {
		return err
	}

	day := b.today()
	text := fmt.Sprintf("<b>%s</b>\n%s", escape(notice.Title), escape(normalizeTitle(notice.Body)))
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Selesai", fmt.Sprintf("%s%d", cbDonePrefix, notice.TaskID)),
		),
	)

	var errs []error
	for _, sub := range subs {
		claimed, err := b.deps.Deliveries.Claim(ctx, sub.ID, notice.DedupeKey, day)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !claimed {
			continue
		}
		if err := b.sendWithReplyMarkup(sub.TelegramID, text, markup); err != nil {
			errs = append(errs, fmt.Errorf("send to %d: %w", sub.TelegramID, err))
			if err := b.deps.Deliveries.Release(ctx, sub.ID, notice.DedupeKey, day); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// SendDigest sends the deadline digest to every chat that allowed notifications.
func (b *Bot) SendDigest(ctx context.Context) error {
	subs, err := b.deps.Subscribers.ListByPermission(ctx, model.PermissionGranted)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}
	text, err := b.deps.Notifications.Digest(ctx, b.deps.Now())
	if err != nil {
		return err
	}
	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendText(sub.TelegramID, text); err != nil {
			log.Printf("[warn] send digest to %d: %v", sub.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) today() string {
	return b.deps.Now().Format(model.DateLayout)
}
