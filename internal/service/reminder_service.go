package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"habit-planner/internal/metrics"
	"habit-planner/internal/model"
	"habit-planner/internal/notify"
	"habit-planner/internal/repository"
)

// ReminderService builds and sends daily plan summaries and per-task reminders.
type ReminderService struct {
	taskRepo *repository.TaskRepository
	userRepo *repository.UserRepository
	notifier notify.Notifier
	clock    clock
	log      zerolog.Logger
}

func NewReminderService(taskRepo *repository.TaskRepository, userRepo *repository.UserRepository, notifier notify.Notifier, loc *time.Location, log zerolog.Logger, opts ...Option) *ReminderService {
	return &ReminderService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		notifier: notifier,
		clock:    newClock(loc, opts),
		log:      log.With().Str("component", "reminders").Logger(),
	}
}

// DailySummary lists the user's unfinished tasks for the day of now. The
// returned count is the number of tasks listed.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, int, error) {
	from := startOfDay(now, s.clock.loc)
	to := endOfDay(now, s.clock.loc)
	tasks, err := s.taskRepo.ListPendingBetween(ctx, user.ID, from, to)
	if err != nil {
		return "", 0, err
	}

	var builder strings.Builder
	if len(tasks) == 0 {
		builder.WriteString(fmt.Sprintf("🗓 %s\nNothing planned for today. Add a task to keep your %d-day streak going!", from.Format("02.01.2006"), user.DailyStreak))
		return builder.String(), 0, nil
	}

	builder.WriteString(fmt.Sprintf("☀️ Good morning! You have %d tasks for today:\n\n", len(tasks)))
	for _, task := range tasks {
		builder.WriteString(formatTask(task))
	}
	builder.WriteString("\nComplete 1 task to save your streak! 🚀")
	return builder.String(), len(tasks), nil
}

func formatTask(task model.Task) string {
	title := strings.TrimSpace(task.Title)
	line := "- " + title
	if task.ScheduledTime != nil {
		line = fmt.Sprintf("- %s %s", *task.ScheduledTime, title)
	}
	if task.IsAutoRolled {
		line += fmt.Sprintf(" (rolled %dx)", task.RolledCount)
	}
	return line + "\n"
}

// SendMorningReminders sends each reachable user their plan for today when
// they have at least one unfinished task. It returns the number of messages sent.
func (s *ReminderService) SendMorningReminders(ctx context.Context) (int, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	now := s.clock.now()
	sent := 0
	for _, user := range users {
		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		default:
		}

		text, count, err := s.DailySummary(ctx, user, now)
		if err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID).Msg("build summary")
			continue
		}
		if count == 0 {
			continue
		}
		if s.deliver(ctx, user, notify.Message{Subject: "Today's Plan 🔥", Text: text}, "morning") {
			sent++
		}
	}
	return sent, nil
}

// SendDueTaskReminders notifies owners of tasks scheduled for the current
// minute today that are unfinished and have notifications enabled.
func (s *ReminderService) SendDueTaskReminders(ctx context.Context) (int, error) {
	now := s.clock.now()
	tasks, err := s.taskRepo.ListDueAt(ctx, startOfDay(now, s.clock.loc), endOfDay(now, s.clock.loc), clockString(now, s.clock.loc))
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, task := range tasks {
		if task.User == nil {
			continue
		}
		msg := notify.Message{
			Subject: "Task Reminder",
			Text:    fmt.Sprintf("🎯 Task Reminder: %q is scheduled for now!\n\nKeep going! 💪", task.Title),
		}
		if s.deliver(ctx, *task.User, msg, "task") {
			sent++
		}
	}
	return sent, nil
}

func (s *ReminderService) deliver(ctx context.Context, user model.User, msg notify.Message, kind string) bool {
	err := s.notifier.Notify(ctx, user, msg)
	switch {
	case err == nil:
		metrics.RemindersSent.WithLabelValues(kind, "sent").Inc()
		return true
	case errors.Is(err, notify.ErrNoChannel):
		metrics.RemindersSent.WithLabelValues(kind, "unreachable").Inc()
		return false
	default:
		metrics.RemindersSent.WithLabelValues(kind, "failed").Inc()
		s.log.Warn().Err(err).Str("user_id", user.ID).Str("kind", kind).Msg("send reminder")
		return false
	}
}
