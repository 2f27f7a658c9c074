// Package bot is the Telegram front end: it answers commands and delivers deadline
// notifications to subscribed chats.
package bot

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"campina-tasks/internal/calendar"
	"campina-tasks/internal/repository"
	"campina-tasks/internal/service"
)

// sender is the part of the Telegram API the bot writes through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deps bundles the stores and services the bot works with.
type Deps struct {
	Subscribers   *repository.SubscriberRepository
	Deliveries    *repository.DeliveryRepository
	Areas         *service.AreaService
	Tasks         *service.TaskService
	Notifications *service.NotificationService
	Now           func() time.Time
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api   *tgbotapi.BotAPI
	out   sender
	deps  Deps
	views map[int64]calendar.View
	mu    sync.Mutex
}

// New authorizes against the Telegram API with token.
func New(token string, deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	b := newBot(api, deps)
	b.api = api
	return b, nil
}

func newBot(out sender, deps Deps) *Bot {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Bot{
		out:   out,
		deps:  deps,
		views: make(map[int64]calendar.View),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return fmt.Errorf("bot has no telegram connection")
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("[error] handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("[error] handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !msg.IsCommand() {
		return b.sendText(msg.Chat.ID, "Perintah tidak dikenal. Ketik /help untuk daftar perintah.")
	}

	log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "stop":
		return b.handleStop(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "areas":
		return b.handleAreas(ctx, msg)
	case "tasks":
		return b.handleTasks(ctx, msg)
	case "urgent":
		return b.handleUrgent(ctx, msg)
	case "calendar":
		return b.handleCalendar(ctx, msg)
	case "status":
		return b.handleStatus(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Perintah tidak didukung. Lihat /help.")
	}
}

func (b *Bot) getView(chatID int64) (calendar.View, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	view, ok := b.views[chatID]
	return view, ok
}

func (b *Bot) setView(chatID int64, view calendar.View) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.views[chatID] = view
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) editWithMarkup(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := b.out.Send(edit)
	return err
}

func (b *Bot) editText(chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := b.out.Send(edit)
	return err
}

func (b *Bot) ack(cb *tgbotapi.CallbackQuery) {
	if _, err := b.out.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("[warn] callback ack: %v", err)
	}
}
