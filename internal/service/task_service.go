package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"habit-planner/internal/metrics"
	"habit-planner/internal/model"
	"habit-planner/internal/repository"
)

// TaskInput represents the user-editable fields of a task.
type TaskInput struct {
	Title                string
	ScheduledDate        time.Time
	ScheduledTime        *string
	NotificationsEnabled *bool
}

func (in TaskInput) normalize() (TaskInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.ScheduledDate.IsZero() {
		return in, fmt.Errorf("%w: scheduledDate is required", ErrValidation)
	}
	clock, err := normalizeClock(in.ScheduledTime)
	if err != nil {
		return in, err
	}
	in.ScheduledTime = clock
	return in, nil
}

func (in TaskInput) notifications() bool {
	if in.NotificationsEnabled == nil {
		return true
	}
	return *in.NotificationsEnabled
}

// Stats summarizes a user's progress.
type Stats struct {
	DailyStreak    int    `json:"dailyStreak"`
	WeeklyStreak   int    `json:"weeklyStreak"`
	CompletionRate int    `json:"completionRate"`
	BestDay        string `json:"bestDay"`
	TotalTasks     int64  `json:"totalTasks"`
	CompletedTasks int64  `json:"completedTasks"`
}

// Option tweaks a service at construction.
type Option func(*clock)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *clock) { c.now = now }
}

type clock struct {
	now func() time.Time
	loc *time.Location
}

func newClock(loc *time.Location, opts []Option) clock {
	if loc == nil {
		loc = time.Local
	}
	c := clock{now: time.Now, loc: loc}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// TaskService owns the task lifecycle and the streak rule.
type TaskService struct {
	taskRepo *repository.TaskRepository
	userRepo *repository.UserRepository
	clock    clock
	log      zerolog.Logger
}

// NewTaskService builds the service. loc decides calendar-day boundaries.
func NewTaskService(taskRepo *repository.TaskRepository, userRepo *repository.UserRepository, loc *time.Location, log zerolog.Logger, opts ...Option) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		clock:    newClock(loc, opts),
		log:      log.With().Str("component", "tasks").Logger(),
	}
}

func (s *TaskService) CreateTask(ctx context.Context, userID string, input TaskInput) (*model.Task, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	task := model.Task{
		UserID:                userID,
		Title:                 input.Title,
		ScheduledDate:         input.ScheduledDate,
		ScheduledTime:         input.ScheduledTime,
		IsNotificationEnabled: input.notifications(),
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	metrics.TasksCreated.WithLabelValues("manual").Inc()
	s.log.Debug().Str("task_id", task.ID).Str("user_id", userID).Msg("task created")
	return &task, nil
}

// ListTasks returns the user's tasks; with a date, only those scheduled on
// that calendar day (00:00:00.000 through 23:59:59.999 inclusive).
func (s *TaskService) ListTasks(ctx context.Context, userID string, date *time.Time) ([]model.Task, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if date == nil {
		return s.taskRepo.ListByUser(ctx, userID, nil, nil)
	}
	from := startOfDay(*date, s.clock.loc)
	to := endOfDay(*date, s.clock.loc)
	return s.taskRepo.ListByUser(ctx, userID, &from, &to)
}

func (s *TaskService) UpdateTask(ctx context.Context, taskID string, input TaskInput) (*model.Task, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	task.Title = input.Title
	task.ScheduledDate = input.ScheduledDate
	task.ScheduledTime = input.ScheduledTime
	task.IsNotificationEnabled = input.notifications()
	if err := s.taskRepo.UpdateFields(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleCompletion flips a task's completion flag. Turning a task complete
// credits the owner's daily streak at most once per calendar day; turning it
// back to incomplete leaves the streak alone.
func (s *TaskService) ToggleCompletion(ctx context.Context, taskID string) (*model.Task, error) {
	var result *model.Task
	err := s.taskRepo.InTx(ctx, func(tx repository.Tx) error {
		task, err := tx.Tasks.FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		changed, err := tx.Tasks.SetCompleted(ctx, task.ID, task.IsCompleted)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: task %s changed concurrently", ErrConflict, task.ID)
		}

		if !task.IsCompleted {
			if err := s.creditStreak(ctx, tx.Users, task.UserID); err != nil {
				return err
			}
		}

		result, err = tx.Tasks.FindByID(ctx, task.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	state := "incomplete"
	if result.IsCompleted {
		state = "completed"
	}
	metrics.TasksToggled.WithLabelValues(state).Inc()
	return result, nil
}

// creditStreak applies the streak rule for a completion happening now.
func (s *TaskService) creditStreak(ctx context.Context, users *repository.UserRepository, userID string) error {
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	now := s.clock.now()
	today := startOfDay(now, s.clock.loc)
	diff := calendarDaysBetween(user.LastActiveAt, now, s.clock.loc)

	var (
		streak       int
		activeBefore *time.Time
		outcome      string
	)
	switch {
	case diff == 1:
		streak, activeBefore, outcome = user.DailyStreak+1, &today, "increment"
	case diff > 1:
		streak, activeBefore, outcome = 1, &today, "reset"
	case user.DailyStreak == 0:
		streak, outcome = 1, "start"
	default:
		metrics.StreakCredits.WithLabelValues("unchanged").Inc()
		return nil
	}

	ok, err := users.SetStreakIf(ctx, user.ID, user.DailyStreak, activeBefore, streak, now)
	if err != nil {
		return err
	}
	if !ok {
		// Another completion already credited today.
		outcome = "unchanged"
	}
	metrics.StreakCredits.WithLabelValues(outcome).Inc()
	s.log.Debug().Str("user_id", user.ID).Str("outcome", outcome).Int("streak", streak).Msg("streak evaluated")
	return nil
}

var weekdays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// UserStats reports streaks, completion rate and the weekday with the most
// completed tasks (ties go to the earliest weekday, Sunday first).
func (s *TaskService) UserStats(ctx context.Context, userID string) (*Stats, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, completed, err := s.taskRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	dates, err := s.taskRepo.CompletedDates(ctx, userID)
	if err != nil {
		return nil, err
	}

	var perDay [7]int
	for _, d := range dates {
		perDay[d.In(s.clock.loc).Weekday()]++
	}
	best := 0
	for i := 1; i < len(perDay); i++ {
		if perDay[i] > perDay[best] {
			best = i
		}
	}

	return &Stats{
		DailyStreak:    user.DailyStreak,
		WeeklyStreak:   user.WeeklyStreak,
		CompletionRate: completionRate(completed, total),
		BestDay:        weekdays[best],
		TotalTasks:     total,
		CompletedTasks: completed,
	}, nil
}

func completionRate(completed, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// DeleteTasks removes the given tasks; unknown ids are ignored.
func (s *TaskService) DeleteTasks(ctx context.Context, taskIDs []string) (int64, error) {
	if taskIDs == nil {
		return 0, fmt.Errorf("%w: taskIds array is required", ErrValidation)
	}
	return s.taskRepo.DeleteByIDs(ctx, taskIDs)
}

// Rollover moves every incomplete task scheduled before today onto today.
// Running it again the same day changes nothing.
func (s *TaskService) Rollover(ctx context.Context) (int64, error) {
	today := startOfDay(s.clock.now(), s.clock.loc)
	rolled, err := s.taskRepo.RollForward(ctx, today, today)
	if err != nil {
		return 0, err
	}
	metrics.RolledTasks.Add(float64(rolled))
	s.log.Info().Int64("rolled", rolled).Time("day", today).Msg("rollover finished")
	return rolled, nil
}
