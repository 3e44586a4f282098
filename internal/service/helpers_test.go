package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"habit-planner/internal/logging"
	"habit-planner/internal/model"
	"habit-planner/internal/repository"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	db        *gorm.DB
	clock     *fakeClock
	tasks     *repository.TaskRepository
	users     *repository.UserRepository
	templates *repository.TemplateRepository
	taskSvc   *TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB("file:"+name+"?mode=memory&cache=shared", logging.Nop())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	clock := &fakeClock{t: time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)}
	f := &fixture{
		db:        db,
		clock:     clock,
		tasks:     repository.NewTaskRepository(db),
		users:     repository.NewUserRepository(db),
		templates: repository.NewTemplateRepository(db),
	}
	f.taskSvc = NewTaskService(f.tasks, f.users, time.UTC, logging.Nop(), WithClock(clock.Now))
	return f
}

func (f *fixture) createUser(t *testing.T, email string, lastActive time.Time, streak int) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "x", LastActiveAt: lastActive, DailyStreak: streak}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (f *fixture) createTask(t *testing.T, userID, title string, date time.Time) *model.Task {
	t.Helper()
	task, err := f.taskSvc.CreateTask(context.Background(), userID, TaskInput{Title: title, ScheduledDate: date})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func (f *fixture) reloadUser(t *testing.T, id string) *model.User {
	t.Helper()
	user, err := f.users.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return user
}

func (f *fixture) reloadTask(t *testing.T, id string) *model.Task {
	t.Helper()
	task, err := f.tasks.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload task: %v", err)
	}
	return task
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
