package client

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"habit-planner/internal/model"
	"habit-planner/internal/service"
)

const (
	keyTasks     = "tasks"
	keyStats     = "stats"
	keyTemplates = "templates"
)

// Store keeps a local copy of the user's planner data in step with the server.
// Reads fall back to the cache when the server can't answer; writes go to the
// server first and patch the cache with what it returns.
type Store struct {
	api    *APIClient
	cache  *Cache
	userID string
	loc    *time.Location
	log    zerolog.Logger

	mu      sync.Mutex
	offline bool
}

func NewStore(api *APIClient, cache *Cache, userID string, loc *time.Location, log zerolog.Logger) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{api: api, cache: cache, userID: userID, loc: loc, log: log}
}

// Offline reports whether the last read was served from the cache.
func (s *Store) Offline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

func (s *Store) setOffline(v bool) {
	s.mu.Lock()
	s.offline = v
	s.mu.Unlock()
}

// FetchTasks loads all of the user's tasks and replaces the cached list.
func (s *Store) FetchTasks(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.api.Tasks(ctx, s.userID, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("fetch tasks failed, using cache")
		s.setOffline(true)
		return s.LocalTasks(ctx)
	}
	s.setOffline(false)
	if err := s.cache.Put(ctx, keyTasks, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// FetchTasksOn loads one calendar day and replaces that day's entries in the
// cached list. On failure the cached list is filtered to that day instead.
func (s *Store) FetchTasksOn(ctx context.Context, day time.Time) ([]model.Task, error) {
	start, end := service.DayBounds(day, s.loc)
	onDay := func(t model.Task) bool {
		return !t.ScheduledDate.Before(start) && t.ScheduledDate.Before(end)
	}

	tasks, err := s.api.Tasks(ctx, s.userID, &day)
	if err == nil {
		s.setOffline(false)
		perr := s.patchTasks(ctx, func(cached []model.Task) []model.Task {
			return append(slices.DeleteFunc(cached, onDay), tasks...)
		})
		return tasks, perr
	}
	s.log.Warn().Err(err).Str("day", day.Format("2006-01-02")).Msg("fetch day failed, using cache")
	s.setOffline(true)
	cached, cerr := s.LocalTasks(ctx)
	if cerr != nil {
		return nil, cerr
	}
	out := make([]model.Task, 0, len(cached))
	for _, t := range cached {
		if onDay(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// LocalTasks returns the cached task list without contacting the server.
func (s *Store) LocalTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if _, err := s.cache.Get(ctx, keyTasks, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (s *Store) AddTask(ctx context.Context, draft TaskDraft) (*model.Task, error) {
	task, err := s.api.AddTask(ctx, s.userID, draft)
	if err != nil {
		return nil, err
	}
	err = s.patchTasks(ctx, func(tasks []model.Task) []model.Task {
		return append(tasks, *task)
	})
	return task, err
}

func (s *Store) UpdateTask(ctx context.Context, taskID string, draft TaskDraft) (*model.Task, error) {
	task, err := s.api.UpdateTask(ctx, taskID, draft)
	if err != nil {
		return nil, err
	}
	err = s.patchTasks(ctx, replaceTask(*task))
	return task, err
}

func (s *Store) DeleteTasks(ctx context.Context, taskIDs []string) (int64, error) {
	n, err := s.api.DeleteTasks(ctx, taskIDs)
	if err != nil {
		return 0, err
	}
	err = s.patchTasks(ctx, func(tasks []model.Task) []model.Task {
		return slices.DeleteFunc(tasks, func(t model.Task) bool {
			return slices.Contains(taskIDs, t.ID)
		})
	})
	return n, err
}

// ToggleTask flips the cached task before the server confirms it. A failed
// request restores the previous cached state and returns the error.
func (s *Store) ToggleTask(ctx context.Context, taskID string) (*model.Task, error) {
	before, err := s.LocalTasks(ctx)
	if err != nil {
		return nil, err
	}
	optimistic := slices.Clone(before)
	for i := range optimistic {
		if optimistic[i].ID == taskID {
			optimistic[i].IsCompleted = !optimistic[i].IsCompleted
		}
	}
	if err := s.cache.Put(ctx, keyTasks, optimistic); err != nil {
		return nil, err
	}

	task, err := s.api.ToggleTask(ctx, taskID)
	if err != nil {
		if rerr := s.cache.Put(ctx, keyTasks, before); rerr != nil {
			return nil, errors.Join(err, fmt.Errorf("revert toggle: %w", rerr))
		}
		return nil, err
	}
	return task, s.patchTasks(ctx, replaceTask(*task))
}

// Stats returns the server's stats, else the last cached copy, else zeros.
func (s *Store) Stats(ctx context.Context) (*service.Stats, error) {
	stats, err := s.api.Stats(ctx, s.userID)
	if err == nil {
		s.setOffline(false)
		return stats, s.cache.Put(ctx, keyStats, stats)
	}
	s.log.Warn().Err(err).Msg("fetch stats failed, using cache")
	s.setOffline(true)
	cached := &service.Stats{BestDay: "N/A"}
	if _, cerr := s.cache.Get(ctx, keyStats, cached); cerr != nil {
		return nil, cerr
	}
	return cached, nil
}

func (s *Store) Templates(ctx context.Context) ([]model.Template, error) {
	templates, err := s.api.Templates(ctx)
	if err == nil {
		s.setOffline(false)
		return templates, s.cache.Put(ctx, keyTemplates, templates)
	}
	s.log.Warn().Err(err).Msg("fetch templates failed, using cache")
	s.setOffline(true)
	var cached []model.Template
	if _, cerr := s.cache.Get(ctx, keyTemplates, &cached); cerr != nil {
		return nil, cerr
	}
	if cached == nil {
		cached = []model.Template{}
	}
	return cached, nil
}

// ApplyTemplate creates the template's tasks and refreshes the cached list.
func (s *Store) ApplyTemplate(ctx context.Context, templateID string) (*service.ApplyResult, error) {
	res, err := s.api.ApplyTemplate(ctx, s.userID, templateID)
	if err != nil {
		return nil, err
	}
	if _, err := s.FetchTasks(ctx); err != nil {
		return res, err
	}
	return res, nil
}

func (s *Store) patchTasks(ctx context.Context, fn func([]model.Task) []model.Task) error {
	tasks, err := s.LocalTasks(ctx)
	if err != nil {
		return err
	}
	return s.cache.Put(ctx, keyTasks, fn(tasks))
}

func replaceTask(task model.Task) func([]model.Task) []model.Task {
	return func(tasks []model.Task) []model.Task {
		for i := range tasks {
			if tasks[i].ID == task.ID {
				tasks[i] = task
				return tasks
			}
		}
		return append(tasks, task)
	}
}
