package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"habit-planner/internal/api"
	"habit-planner/internal/logging"
	"habit-planner/internal/model"
	"habit-planner/internal/repository"
	"habit-planner/internal/service"
)

var testNow = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store *Store
	api   *APIClient
	user  *model.User
	down  *atomic.Bool
	url   string
}

// newFixture runs the real planner API behind httptest. Setting down makes
// every request fail with 503.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.NewDB("file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared", logging.Nop())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	clock := service.WithClock(func() time.Time { return testNow })
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)
	svc := api.Services{
		Tasks:     service.NewTaskService(taskRepo, userRepo, time.UTC, logging.Nop(), clock),
		Templates: service.NewTemplateService(repository.NewTemplateRepository(db), taskRepo, userRepo, time.UTC, logging.Nop(), clock),
		Auth:      service.NewAuthService(userRepo, "test-secret", time.Hour),
		Nutrition: service.NewNutritionService(repository.NewNutritionRepository(db), userRepo, 2000, time.UTC, clock),
	}
	ctx := context.Background()
	if _, err := svc.Templates.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	user, err := svc.Auth.Register(ctx, "ann@example.com", "hunter2", nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := db.Model(&model.User{}).Where("id = ?", user.ID).Update("last_active_at", testNow).Error; err != nil {
		t.Fatalf("pin last active: %v", err)
	}

	down := &atomic.Bool{}
	handler := api.NewServer(svc, time.UTC, logging.Nop()).Handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if down.Load() {
			http.Error(w, `{"error":"maintenance"}`, http.StatusServiceUnavailable)
			return
		}
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewAPIClient(srv.URL, "", srv.Client())
	store := NewStore(client, openTestCache(t), user.ID, time.UTC, logging.Nop())
	return &fixture{store: store, api: client, user: user, down: down, url: srv.URL}
}

func draft(title string, day time.Time) TaskDraft {
	return TaskDraft{Title: title, ScheduledDate: day, NotificationsEnabled: true}
}

func TestFetchFallsBackToCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.store.AddTask(ctx, draft("Run", testNow)); err != nil {
		t.Fatalf("add: %v", err)
	}
	tasks, err := f.store.FetchTasks(ctx)
	if err != nil || len(tasks) != 1 || f.store.Offline() {
		t.Fatalf("online fetch: %v %+v offline=%v", err, tasks, f.store.Offline())
	}

	f.down.Store(true)
	tasks, err = f.store.FetchTasks(ctx)
	if err != nil {
		t.Fatalf("offline fetch: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Run" || !f.store.Offline() {
		t.Fatalf("expected cached task while offline, got %+v", tasks)
	}
}

func TestFetchDayFiltersCacheWhenOffline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, d := range []time.Time{testNow, testNow.AddDate(0, 0, 1)} {
		if _, err := f.store.AddTask(ctx, draft("Task "+d.Format("02"), d)); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	online, err := f.store.FetchTasksOn(ctx, testNow)
	if err != nil || len(online) != 1 {
		t.Fatalf("online day: %v %+v", err, online)
	}
	f.down.Store(true)
	offline, err := f.store.FetchTasksOn(ctx, testNow.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("offline day: %v", err)
	}
	if len(offline) != 1 || offline[0].Title != "Task 15" {
		t.Fatalf("unexpected offline day %+v", offline)
	}
}

func TestWritesPatchCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.store.AddTask(ctx, draft("Read", testNow))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	b, err := f.store.AddTask(ctx, draft("Write", testNow))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	at := "21:00"
	d := draft("Read 20 pages", testNow)
	d.ScheduledTime = &at
	if _, err := f.store.UpdateTask(ctx, a.ID, d); err != nil {
		t.Fatalf("update: %v", err)
	}
	if n, err := f.store.DeleteTasks(ctx, []string{b.ID}); err != nil || n != 1 {
		t.Fatalf("delete: %d %v", n, err)
	}

	local, err := f.store.LocalTasks(ctx)
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	if len(local) != 1 || local[0].Title != "Read 20 pages" || local[0].ScheduledTime == nil || *local[0].ScheduledTime != "21:00" {
		t.Fatalf("unexpected cache %+v", local)
	}
}

func TestToggleConfirmedByServer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.store.AddTask(ctx, draft("Run", testNow))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := f.store.ToggleTask(ctx, task.ID)
	if err != nil || !got.IsCompleted {
		t.Fatalf("toggle: %v %+v", err, got)
	}
	local, _ := f.store.LocalTasks(ctx)
	if len(local) != 1 || !local[0].IsCompleted {
		t.Fatalf("cache not updated: %+v", local)
	}
	stats, err := f.store.Stats(ctx)
	if err != nil || stats.DailyStreak != 1 || stats.CompletionRate != 100 {
		t.Fatalf("stats: %v %+v", err, stats)
	}
}

func TestToggleRevertsOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.store.AddTask(ctx, draft("Run", testNow))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	f.down.Store(true)
	_, err = f.store.ToggleTask(ctx, task.ID)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusServiceUnavailable || apiErr.Message != "maintenance" {
		t.Fatalf("expected 503 api error, got %v", err)
	}
	local, _ := f.store.LocalTasks(ctx)
	if len(local) != 1 || local[0].IsCompleted {
		t.Fatalf("optimistic toggle not reverted: %+v", local)
	}
}

func TestStatsAndTemplatesDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.down.Store(true)

	stats, err := f.store.Stats(ctx)
	if err != nil || stats.BestDay != "N/A" || stats.DailyStreak != 0 {
		t.Fatalf("default stats: %v %+v", err, stats)
	}
	templates, err := f.store.Templates(ctx)
	if err != nil || templates == nil || len(templates) != 0 {
		t.Fatalf("default templates: %v %+v", err, templates)
	}

	f.down.Store(false)
	if templates, err = f.store.Templates(ctx); err != nil || len(templates) != 4 {
		t.Fatalf("online templates: %v %d", err, len(templates))
	}
	f.down.Store(true)
	if templates, err = f.store.Templates(ctx); err != nil || len(templates) != 4 {
		t.Fatalf("cached templates: %v %d", err, len(templates))
	}
}

func TestApplyTemplateRefreshesTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	templates, err := f.store.Templates(ctx)
	if err != nil || len(templates) == 0 {
		t.Fatalf("templates: %v", err)
	}

	res, err := f.store.ApplyTemplate(ctx, templates[0].ID)
	if err != nil || res.Count != 5 {
		t.Fatalf("apply: %v %+v", err, res)
	}
	local, _ := f.store.LocalTasks(ctx)
	if len(local) != 5 {
		t.Fatalf("expected 5 cached tasks, got %d", len(local))
	}
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewAPIClient(srv.URL, "", nil)
	_, err := client.Templates(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestBearerTokenStandsInForUserID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.api.Login(ctx, "ann@example.com", "hunter2")
	if err != nil || sess.Token == "" || sess.User.ID != f.user.ID {
		t.Fatalf("login: %v %+v", err, sess)
	}

	authed := NewAPIClient(f.url, sess.Token, nil)
	task, err := authed.AddTask(ctx, "", draft("Stretch", testNow))
	if err != nil || task.UserID != f.user.ID {
		t.Fatalf("add with token: %v %+v", err, task)
	}

	_, err = f.api.Login(ctx, "ann@example.com", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestFetchDayRefreshesCachedDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kept, err := f.store.AddTask(ctx, draft("Tomorrow", testNow.AddDate(0, 0, 1)))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	// Created behind the store's back, as another device would.
	other, err := f.api.AddTask(ctx, f.user.ID, draft("From phone", testNow))
	if err != nil {
		t.Fatalf("add via api: %v", err)
	}

	if day, err := f.store.FetchTasksOn(ctx, testNow); err != nil || len(day) != 1 {
		t.Fatalf("online day: %v %+v", err, day)
	}
	local, err := f.store.LocalTasks(ctx)
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	ids := map[string]bool{}
	for _, task := range local {
		ids[task.ID] = true
	}
	if len(local) != 2 || !ids[kept.ID] || !ids[other.ID] {
		t.Fatalf("expected cache to hold both days, got %+v", local)
	}

	f.down.Store(true)
	offline, err := f.store.FetchTasksOn(ctx, testNow)
	if err != nil || len(offline) != 1 || offline[0].ID != other.ID {
		t.Fatalf("offline day should serve the fetched task: %v %+v", err, offline)
	}
}
