package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"habit-planner/internal/model"
	"habit-planner/internal/notify"
	"habit-planner/internal/repository"
	"habit-planner/internal/service"
)

const cbCompletePrefix = "complete:"

const (
	menuLabelToday = "📋 Today"
	menuLabelStats = "📈 Stats"
	menuLabelHelp  = "ℹ️ Help"
)

// Bot is the Telegram companion: it answers chat commands for linked users
// and delivers reminders as a notify.Channel.
type Bot struct {
	api         *tgbotapi.BotAPI
	userRepo    *repository.UserRepository
	taskSvc     *service.TaskService
	reminderSvc *service.ReminderService
	now         func() time.Time
	log         zerolog.Logger
}

var _ notify.Channel = (*Bot)(nil)

// Connect authorizes against the Telegram Bot API.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return api, nil
}

func New(api *tgbotapi.BotAPI, userRepo *repository.UserRepository, taskSvc *service.TaskService, reminderSvc *service.ReminderService, log zerolog.Logger) *Bot {
	b := &Bot{
		api:         api,
		userRepo:    userRepo,
		taskSvc:     taskSvc,
		reminderSvc: reminderSvc,
		now:         time.Now,
		log:         log.With().Str("component", "bot").Logger(),
	}
	b.log.Info().Str("account", api.Self.UserName).Msg("bot authorized")
	return b
}

func (b *Bot) Name() string { return "telegram" }

func (b *Bot) CanReach(user model.User) bool {
	return user.TelegramChatID != nil
}

// Send delivers msg as plain text to the user's linked chat.
func (b *Bot) Send(_ context.Context, user model.User, msg notify.Message) error {
	if user.TelegramChatID == nil {
		return notify.ErrNoChannel
	}
	out := tgbotapi.NewMessage(*user.TelegramChatID, msg.Text)
	if _, err := b.api.Send(out); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if err := b.handleUpdate(ctx, update); err != nil {
			b.log.Error().Err(err).Int("update_id", update.UpdateID).Msg("handle update")
		}
	}
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			return nil
		}
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.IsCommand() {
		b.log.Debug().Int64("chat_id", msg.Chat.ID).Str("command", msg.Command()).Msg("command received")
		return b.handleCommand(ctx, msg.Chat.ID, msg.Command(), msg.From)
	}

	switch strings.TrimSpace(msg.Text) {
	case menuLabelToday:
		return b.handleCommand(ctx, msg.Chat.ID, "today", msg.From)
	case menuLabelStats:
		return b.handleCommand(ctx, msg.Chat.ID, "stats", msg.From)
	case menuLabelHelp:
		return b.handleCommand(ctx, msg.Chat.ID, "help", msg.From)
	}
	return b.sendText(msg.Chat.ID, "I did not get that. Try /today, /stats or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, command string, from *tgbotapi.User) error {
	switch command {
	case "start":
		return b.handleStart(ctx, chatID, from)
	case "help":
		return b.sendText(chatID, helpText)
	case "today":
		return b.handleToday(ctx, chatID)
	case "stats":
		return b.handleStats(ctx, chatID)
	case "plan":
		return b.handlePlan(ctx, chatID)
	default:
		return b.sendText(chatID, "Unknown command. Send /help for the list.")
	}
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /start — show this chat's id for linking\n" +
	"• /today — today's plan, tap a task to complete it\n" +
	"• /plan — unfinished tasks, as in the morning summary\n" +
	"• /stats — streak and completion rate\n" +
	"• /help — this message"

func (b *Bot) handleStart(ctx context.Context, chatID int64, from *tgbotapi.User) error {
	name := "there"
	if from != nil && strings.TrimSpace(from.FirstName) != "" {
		name = strings.TrimSpace(from.FirstName)
	}

	user, err := b.linkedUser(ctx, chatID)
	switch {
	case err == nil:
		return b.sendText(chatID, fmt.Sprintf("👋 Welcome back, %s!\nThis chat is linked to <b>%s</b>.\n\n%s",
			escape(name), escape(user.Email), helpText))
	case errors.Is(err, service.ErrNotFound):
		return b.sendText(chatID, fmt.Sprintf("👋 Hi, %s!\nYour chat id is <code>%d</code>.\n"+
			"Add it to your account to get your daily plan and reminders here.", escape(name), chatID))
	default:
		return err
	}
}

func (b *Bot) handleToday(ctx context.Context, chatID int64) error {
	user, ok, err := b.requireLinked(ctx, chatID)
	if !ok {
		return err
	}
	return b.sendTodayList(ctx, chatID, user)
}

func (b *Bot) sendTodayList(ctx context.Context, chatID int64, user *model.User) error {
	now := b.now()
	tasks, err := b.taskSvc.ListTasks(ctx, user.ID, &now)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "Nothing planned for today. Apply a template or add a task to get going.")
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Today</b>\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	done := 0
	for _, task := range tasks {
		builder.WriteString(formatTask(task))
		if task.IsCompleted {
			done++
			continue
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ "+shortTitle(task.Title, 28), cbCompletePrefix+task.ID),
		))
	}
	builder.WriteString(fmt.Sprintf("\n%d of %d done · 🔥 %d-day streak", done, len(tasks), user.DailyStreak))

	msg := tgbotapi.NewMessage(chatID, builder.String())
	msg.ParseMode = tgbotapi.ModeHTML
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handlePlan(ctx context.Context, chatID int64) error {
	user, ok, err := b.requireLinked(ctx, chatID)
	if !ok {
		return err
	}
	text, _, err := b.reminderSvc.DailySummary(ctx, *user, b.now())
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not build the summary: %s", escape(err.Error())))
	}
	return b.sendText(chatID, escape(text))
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) error {
	user, ok, err := b.requireLinked(ctx, chatID)
	if !ok {
		return err
	}
	stats, err := b.taskSvc.UserStats(ctx, user.ID)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not load stats: %s", escape(err.Error())))
	}
	text := fmt.Sprintf("📈 <b>Your progress</b>\n"+
		"🔥 Streak: %d days\n"+
		"✅ Completed: %d of %d (%d%%)\n"+
		"🏆 Best day: %s",
		stats.DailyStreak, stats.CompletedTasks, stats.TotalTasks, stats.CompletionRate, stats.BestDay)
	return b.sendText(chatID, text)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn().Err(err).Msg("callback ack")
	}
	if !strings.HasPrefix(cb.Data, cbCompletePrefix) {
		return nil
	}
	taskID := strings.TrimPrefix(cb.Data, cbCompletePrefix)
	chatID := cb.Message.Chat.ID

	user, ok, err := b.requireLinked(ctx, chatID)
	if !ok {
		return err
	}

	now := b.now()
	tasks, err := b.taskSvc.ListTasks(ctx, user.ID, &now)
	if err != nil {
		return err
	}
	var target *model.Task
	for i := range tasks {
		if tasks[i].ID == taskID {
			target = &tasks[i]
			break
		}
	}
	switch {
	case target == nil:
		return b.sendText(chatID, "That task is no longer on today's plan.")
	case target.IsCompleted:
		return b.sendText(chatID, "Already done. ✅")
	}

	if _, err := b.taskSvc.ToggleCompletion(ctx, target.ID); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not complete the task: %s", escape(err.Error())))
	}
	b.log.Info().Str("task_id", target.ID).Str("user_id", user.ID).Msg("task completed from chat")

	refreshed, err := b.userRepo.FindByID(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := b.sendText(chatID, fmt.Sprintf("✅ «%s» done. Streak: %d 🔥", escape(target.Title), refreshed.DailyStreak)); err != nil {
		return err
	}
	return b.sendTodayList(ctx, chatID, refreshed)
}

// requireLinked loads the user linked to chatID. When there is none it tells
// the chat how to link and reports ok=false.
func (b *Bot) requireLinked(ctx context.Context, chatID int64) (*model.User, bool, error) {
	user, err := b.linkedUser(ctx, chatID)
	if err == nil {
		return user, true, nil
	}
	if errors.Is(err, service.ErrNotFound) {
		return nil, false, b.sendText(chatID, fmt.Sprintf("This chat is not linked yet. Your chat id is <code>%d</code>.", chatID))
	}
	return nil, false, err
}

func (b *Bot) linkedUser(ctx context.Context, chatID int64) (*model.User, error) {
	return b.userRepo.FindByTelegramChatID(ctx, chatID)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelStats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func formatTask(task model.Task) string {
	icon := "⬜"
	if task.IsCompleted {
		icon = "✅"
	}
	line := fmt.Sprintf("%s %s", icon, escape(task.Title))
	if task.ScheduledTime != nil {
		line = fmt.Sprintf("%s <b>%s</b> %s", icon, *task.ScheduledTime, escape(task.Title))
	}
	if task.IsAutoRolled {
		line += fmt.Sprintf(" <i>(rolled %dx)</i>", task.RolledCount)
	}
	return line + "\n"
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
