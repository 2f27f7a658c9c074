package bot

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"campina-tasks/internal/calendar"
	"campina-tasks/internal/model"
	"campina-tasks/internal/repository"
	"campina-tasks/internal/service"
)

type fakeSender struct {
	sent     []tgbotapi.Chattable
	acks     int
	failChat int64
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok && f.failChat != 0 && msg.ChatID == f.failChat {
		return tgbotapi.Message{}, errors.New("bot was blocked by the user")
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.acks++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (f *fakeSender) last() tgbotapi.Chattable {
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

type harness struct {
	bot   *Bot
	out   *fakeSender
	tasks *repository.TaskRepository
	subs  *repository.SubscriberRepository
	notes *service.NotificationService
	now   time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	areaRepo := repository.NewAreaRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	areas := service.NewAreaService(areaRepo, taskRepo, 3)
	if err := areas.Seed(context.Background(), []string{"kcp malang", "Batu"}); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	h := &harness{
		out:   &fakeSender{},
		tasks: taskRepo,
		subs:  repository.NewSubscriberRepository(db),
		notes: service.NewNotificationService(taskRepo, areaRepo, 2),
		now:   time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC),
	}
	h.bot = newBot(h.out, Deps{
		Subscribers:   h.subs,
		Deliveries:    repository.NewDeliveryRepository(db),
		Areas:         areas,
		Tasks:         service.NewTaskService(taskRepo, areaRepo),
		Notifications: h.notes,
		Now:           func() time.Time { return h.now },
	})
	return h
}

func (h *harness) insert(t *testing.T, tasks ...model.Task) []model.Task {
	t.Helper()
	out, err := h.tasks.Insert(context.Background(), tasks)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return out
}

func (h *harness) subscribe(t *testing.T, telegramID int64, permission model.Permission) {
	t.Helper()
	ctx := context.Background()
	if _, err := h.subs.UpsertFromTelegram(ctx, telegramID, "budi", "budi"); err != nil {
		t.Fatalf("UpsertFromTelegram: %v", err)
	}
	if err := h.subs.SetPermission(ctx, telegramID, permission); err != nil {
		t.Fatalf("SetPermission: %v", err)
	}
}

func command(chatID int64, text string) *tgbotapi.Message {
	name, _, _ := strings.Cut(text, " ")
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: chatID, FirstName: "budi"},
		Chat:     &tgbotapi.Chat{ID: chatID, Type: "private"},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func callback(chatID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: chatID, FirstName: "budi"},
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: chatID, Type: "private"}},
		Data:    data,
	}
}

func buttons(markup tgbotapi.InlineKeyboardMarkup) map[string]string {
	out := make(map[string]string)
	for _, row := range markup.InlineKeyboard {
		for _, button := range row {
			if button.CallbackData != nil {
				out[button.Text] = *button.CallbackData
			}
		}
	}
	return out
}

func TestStartAndPermissionCallbacks(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if got, _ := h.bot.Permission(ctx); got != model.PermissionDenied {
		t.Errorf("permission without subscribers = %s", got)
	}

	if err := h.bot.handleMessage(ctx, command(100, "/start")); err != nil {
		t.Fatalf("/start: %v", err)
	}
	msgs := h.out.messages()
	if len(msgs) != 2 {
		t.Fatalf("sent %d messages, want welcome and prompt", len(msgs))
	}
	if !strings.Contains(msgs[0].Text, "Halo, Budi!") {
		t.Errorf("welcome = %q", msgs[0].Text)
	}
	prompt, ok := msgs[1].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || buttons(prompt)["🔔 Izinkan"] != cbAllow {
		t.Fatalf("prompt markup = %#v", msgs[1].ReplyMarkup)
	}
	if got, _ := h.bot.Permission(ctx); got != model.PermissionDefault {
		t.Errorf("permission after /start = %s", got)
	}

	if err := h.bot.handleCallback(ctx, callback(100, cbAllow)); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if got, _ := h.bot.Permission(ctx); got != model.PermissionGranted {
		t.Errorf("permission after allow = %s", got)
	}
	if _, ok := h.out.last().(tgbotapi.EditMessageTextConfig); !ok {
		t.Errorf("expected prompt to be edited, got %T", h.out.last())
	}

	if err := h.bot.handleMessage(ctx, command(100, "/stop")); err != nil {
		t.Fatalf("/stop: %v", err)
	}
	if got, _ := h.bot.Permission(ctx); got != model.PermissionDenied {
		t.Errorf("permission after /stop = %s", got)
	}

	// Subscribing again asks again.
	before := len(h.out.messages())
	if err := h.bot.handleMessage(ctx, command(100, "/start")); err != nil {
		t.Fatalf("/start: %v", err)
	}
	if len(h.out.messages()) != before+2 {
		t.Errorf("re-subscribe sent %d messages", len(h.out.messages())-before)
	}
	if got, _ := h.bot.Permission(ctx); got != model.PermissionDefault {
		t.Errorf("permission after second /start = %s", got)
	}
}

func TestRequestPermissionOncePerDay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.subscribe(t, 100, model.PermissionDefault)
	h.subscribe(t, 200, model.PermissionDenied)

	for i := 0; i < 2; i++ {
		got, err := h.bot.RequestPermission(ctx)
		if err != nil {
			t.Fatalf("RequestPermission: %v", err)
		}
		if got != model.PermissionDefault {
			t.Errorf("RequestPermission = %s", got)
		}
	}
	if msgs := h.out.messages(); len(msgs) != 1 || msgs[0].ChatID != 100 {
		t.Fatalf("prompts = %+v", msgs)
	}

	h.now = h.now.AddDate(0, 0, 1)
	if _, err := h.bot.RequestPermission(ctx); err != nil {
		t.Fatalf("RequestPermission: %v", err)
	}
	if len(h.out.messages()) != 2 {
		t.Errorf("expected a new prompt on the next day")
	}
}

func TestShowDeliversOncePerDay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.subscribe(t, 100, model.PermissionGranted)
	h.subscribe(t, 200, model.PermissionGranted)
	h.subscribe(t, 300, model.PermissionDenied)

	notice := service.Notice{Title: "⏰ Deadline hari ini!", Body: "stock opname", DedupeKey: "task-1", TaskID: 1}
	for i := 0; i < 3; i++ {
		if err := h.bot.Show(ctx, notice); err != nil {
			t.Fatalf("Show: %v", err)
		}
	}
	msgs := h.out.messages()
	if len(msgs) != 2 {
		t.Fatalf("sent %d messages, want one per granted chat", len(msgs))
	}
	if !strings.Contains(msgs[0].Text, "Stock opname") {
		t.Errorf("text = %q", msgs[0].Text)
	}
	if markup, ok := msgs[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); !ok || buttons(markup)["✅ Selesai"] != "done:1" {
		t.Errorf("markup = %#v", msgs[0].ReplyMarkup)
	}

	h.now = h.now.AddDate(0, 0, 1)
	if err := h.bot.Show(ctx, notice); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if len(h.out.messages()) != 4 {
		t.Errorf("expected redelivery on the next day, got %d messages", len(h.out.messages()))
	}
}

func TestShowRetriesFailedSends(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.subscribe(t, 100, model.PermissionGranted)
	h.out.failChat = 100

	notice := service.Notice{Title: "t", Body: "b", DedupeKey: "task-9", TaskID: 9}
	if err := h.bot.Show(ctx, notice); err == nil {
		t.Fatal("expected send error")
	}

	h.out.failChat = 0
	if err := h.bot.Show(ctx, notice); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if len(h.out.messages()) != 1 {
		t.Errorf("failed delivery should be retried, sent %d", len(h.out.messages()))
	}
}

func TestNotificationRunThroughBot(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.subscribe(t, 100, model.PermissionGranted)
	h.insert(t,
		model.Task{AreaID: 1, Title: "a", Priority: model.PriorityPU, Deadline: "2025-06-14", Status: model.StatusTodo},
		model.Task{AreaID: 1, Title: "b", Priority: model.PriorityPU, Deadline: "2025-06-16", Status: model.StatusTodo},
		model.Task{AreaID: 2, Title: "c", Priority: model.PriorityPU, Deadline: "2025-06-30", Status: model.StatusTodo},
	)

	shown, err := h.notes.Run(ctx, h.bot, h.now)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if shown != 2 || len(h.out.messages()) != 2 {
		t.Errorf("shown %d, sent %d", shown, len(h.out.messages()))
	}

	// The next hourly pass on the same day sends nothing new.
	if _, err := h.notes.Run(ctx, h.bot, h.now.Add(time.Hour)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(h.out.messages()) != 2 {
		t.Errorf("repeat pass sent %d messages", len(h.out.messages())-2)
	}

	if err := h.bot.SendDigest(ctx); err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
	if digest := h.out.messages()[2].Text; !strings.Contains(digest, "Ringkasan Deadline") {
		t.Errorf("digest = %q", digest)
	}
}

func TestStatusCommandAndDoneCallback(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	task := h.insert(t, model.Task{AreaID: 1, Title: "audit", Priority: model.PriorityPU, Deadline: "2025-06-20", Status: model.StatusTodo})[0]

	tests := []struct {
		text string
		want string
	}{
		{"/status 1 in_progress", "In Progress"},
		{"/status 1 ARCHIVED", "invalid status"},
		{"/status 99 done", "tidak ditemukan"},
		{"/status x done", "angka"},
		{"/status 1", "Format"},
	}
	for _, tt := range tests {
		if err := h.bot.handleMessage(ctx, command(100, tt.text)); err != nil {
			t.Fatalf("%s: %v", tt.text, err)
		}
		msgs := h.out.messages()
		if got := msgs[len(msgs)-1].Text; !strings.Contains(got, tt.want) {
			t.Errorf("%s: reply %q, want %q", tt.text, got, tt.want)
		}
	}

	if err := h.bot.handleCallback(ctx, callback(100, "done:1")); err != nil {
		t.Fatalf("done callback: %v", err)
	}
	stored, err := h.tasks.FindByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.Status != model.StatusDone {
		t.Errorf("status = %s", stored.Status)
	}
	if h.out.acks != 1 {
		t.Errorf("callback acknowledged %d times", h.out.acks)
	}
}

func TestAreasAndTasksCommands(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.insert(t,
		model.Task{AreaID: 1, Title: "b", Priority: model.PriorityTUTP, Deadline: "2025-06-16", Status: model.StatusTodo},
		model.Task{AreaID: 1, Title: "a", Priority: model.PriorityPU, Deadline: "2025-06-10", Status: model.StatusTodo},
	)

	if err := h.bot.handleMessage(ctx, command(100, "/areas")); err != nil {
		t.Fatalf("/areas: %v", err)
	}
	text := h.out.messages()[0].Text
	if !strings.Contains(text, "<b>Kcp Malang</b> (#1) · 2 task · ⚠️ 2 mendesak") {
		t.Errorf("areas = %q", text)
	}

	if err := h.bot.handleMessage(ctx, command(100, "/tasks 1")); err != nil {
		t.Fatalf("/tasks: %v", err)
	}
	text = h.out.messages()[1].Text
	if strings.Index(text, "<b>PU</b>") > strings.Index(text, "<b>TUTP</b>") {
		t.Errorf("groups out of order:\n%s", text)
	}
	if !strings.Contains(text, "⚠️ <b>#2</b> A") {
		t.Errorf("overdue task not marked:\n%s", text)
	}

	for _, bad := range []string{"/tasks", "/tasks 9"} {
		if err := h.bot.handleMessage(ctx, command(100, bad)); err != nil {
			t.Fatalf("%s: %v", bad, err)
		}
	}
	if got := h.out.messages()[3].Text; !strings.Contains(got, "tidak ditemukan") {
		t.Errorf("unknown area reply = %q", got)
	}
}

func TestCalendarNavigation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.insert(t,
		model.Task{AreaID: 1, Title: "audit", Priority: model.PriorityPU, Deadline: "2025-06-10", Status: model.StatusTodo},
		model.Task{AreaID: 2, Title: "rapat", Priority: model.PriorityPU, Deadline: "2025-06-20", Status: model.StatusTodo},
	)

	if err := h.bot.handleMessage(ctx, command(100, "/calendar 2025-06")); err != nil {
		t.Fatalf("/calendar: %v", err)
	}
	msg := h.out.messages()[0]
	markup := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	got := buttons(markup)
	if got["◀"] != "cal:2025-05:" || got["▶"] != "cal:2025-07:" {
		t.Errorf("navigation = %q %q", got["◀"], got["▶"])
	}
	if got["10!"] != "cal:2025-06:2025-06-10" || got["20•"] != "cal:2025-06:2025-06-20" || got["11"] != "cal:2025-06:2025-06-11" {
		t.Errorf("day buttons = %v", got)
	}
	if len(markup.InlineKeyboard) != 2+5 {
		t.Errorf("rows = %d", len(markup.InlineKeyboard))
	}

	if err := h.bot.handleCallback(ctx, callback(100, got["10!"])); err != nil {
		t.Fatalf("select: %v", err)
	}
	edit, ok := h.out.last().(tgbotapi.EditMessageTextConfig)
	if !ok {
		t.Fatalf("expected edit, got %T", h.out.last())
	}
	if !strings.Contains(edit.Text, "10 Juni 2025") || !strings.Contains(edit.Text, "Audit") {
		t.Errorf("selected text = %q", edit.Text)
	}
	selected := buttons(*edit.ReplyMarkup)
	if selected["[10!]"] != "cal:2025-06:" {
		t.Errorf("selected day should toggle off, got %v", selected)
	}
	// The selection travels with navigation.
	if selected["▶"] != "cal:2025-07:2025-06-10" {
		t.Errorf("next = %q", selected["▶"])
	}

	view, _ := h.bot.getView(100)
	if view != (calendar.View{Year: 2025, Month: 5, Selected: "2025-06-10"}) {
		t.Errorf("stored view = %+v", view)
	}

	// Reopening without a month shows the last view.
	if err := h.bot.handleMessage(ctx, command(100, "/calendar")); err != nil {
		t.Fatalf("/calendar: %v", err)
	}
	msgs := h.out.messages()
	if !strings.Contains(msgs[len(msgs)-1].Text, "Audit") {
		t.Errorf("reopened calendar = %q", msgs[len(msgs)-1].Text)
	}

	if err := h.bot.handleMessage(ctx, command(100, "/calendar juni")); err != nil {
		t.Fatalf("/calendar juni: %v", err)
	}
	msgs = h.out.messages()
	if !strings.Contains(msgs[len(msgs)-1].Text, "Format bulan") {
		t.Errorf("bad month reply = %q", msgs[len(msgs)-1].Text)
	}
}

func TestParseCalendarData(t *testing.T) {
	tests := []struct {
		data    string
		want    calendar.View
		wantErr bool
	}{
		{"cal:2025-06:", calendar.View{Year: 2025, Month: 5}, false},
		{"cal:2024-12:2025-01-03", calendar.View{Year: 2024, Month: 11, Selected: "2025-01-03"}, false},
		{"cal:2025-06", calendar.View{}, true},
		{"cal:2025-13:", calendar.View{}, true},
		{"cal:2025-06:tomorrow", calendar.View{}, true},
	}
	for _, tt := range tests {
		got, err := parseCalendarData(tt.data)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCalendarData(%q) error = %v", tt.data, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseCalendarData(%q) = %+v, want %+v", tt.data, got, tt.want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	for in, want := range map[string]string{
		"kcp malang": "Kcp Malang",
		"KCP batu":   "KCP Batu",
		"  kediri  ": "Kediri",
		"":           "",
	} {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
