// Package runguard decides whether a periodic job may run now, so that
// several triggers for the same job collapse into one run per window.
package runguard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"habit-planner/internal/repository"
)

const keyPrefix = "habitplanner:job:"

// Guard grants at most one run of a named job per window. A window never
// spans midnight in the guard's location: the first trigger of a new
// calendar day is always granted.
type Guard interface {
	Acquire(ctx context.Context, job string, now time.Time) (bool, error)
	// Release gives back a claim taken at now, so a failed run does not
	// block the next trigger.
	Release(ctx context.Context, job string, now time.Time) error
}

func dayStart(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// Redis claims a run with SETNX on a per-day key that expires after minGap.
type Redis struct {
	rdb    *redis.Client
	minGap time.Duration
	loc    *time.Location
}

func NewRedis(rdb *redis.Client, minGap time.Duration, loc *time.Location) *Redis {
	if loc == nil {
		loc = time.Local
	}
	return &Redis{rdb: rdb, minGap: minGap, loc: loc}
}

func (g *Redis) key(job string, now time.Time) string {
	return keyPrefix + job + ":" + now.In(g.loc).Format("2006-01-02")
}

func (g *Redis) Acquire(ctx context.Context, job string, now time.Time) (bool, error) {
	if g.minGap <= 0 {
		return true, nil
	}
	ok, err := g.rdb.SetNX(ctx, g.key(job, now), now.UTC().Format(time.RFC3339Nano), g.minGap).Result()
	if err != nil {
		return false, fmt.Errorf("runguard setnx: %w", err)
	}
	return ok, nil
}

func (g *Redis) Release(ctx context.Context, job string, now time.Time) error {
	if g.minGap <= 0 {
		return nil
	}
	if err := g.rdb.Del(ctx, g.key(job, now)).Err(); err != nil {
		return fmt.Errorf("runguard del: %w", err)
	}
	return nil
}

// Database claims a run through the job_runs table.
type Database struct {
	repo   *repository.JobRepository
	minGap time.Duration
	loc    *time.Location
}

func NewDatabase(repo *repository.JobRepository, minGap time.Duration, loc *time.Location) *Database {
	if loc == nil {
		loc = time.Local
	}
	return &Database{repo: repo, minGap: minGap, loc: loc}
}

func (g *Database) Acquire(ctx context.Context, job string, now time.Time) (bool, error) {
	if g.minGap <= 0 {
		return true, nil
	}
	return g.repo.Claim(ctx, job, now, g.minGap, dayStart(now, g.loc))
}

func (g *Database) Release(ctx context.Context, job string, now time.Time) error {
	if g.minGap <= 0 {
		return nil
	}
	return g.repo.Unclaim(ctx, job, now)
}

// Local serializes triggers inside one process: a run that is still in
// progress causes overlapping triggers to be skipped.
type Local struct {
	next    Guard
	mu      sync.Mutex
	running map[string]bool
}

func NewLocal(next Guard) *Local {
	return &Local{next: next, running: make(map[string]bool)}
}

// Begin marks job as running and reports whether the caller owns the run.
// The returned finish must be called when the run ends; an unsuccessful run
// also releases the claim taken from the next guard.
func (g *Local) Begin(ctx context.Context, job string, now time.Time) (finish func(succeeded bool) error, ok bool, err error) {
	noop := func(bool) error { return nil }

	g.mu.Lock()
	if g.running[job] {
		g.mu.Unlock()
		return noop, false, nil
	}
	g.running[job] = true
	g.mu.Unlock()

	done := func() {
		g.mu.Lock()
		delete(g.running, job)
		g.mu.Unlock()
	}

	if g.next != nil {
		ok, err = g.next.Acquire(ctx, job, now)
		if err != nil || !ok {
			done()
			return noop, false, err
		}
	}

	finish = func(succeeded bool) error {
		defer done()
		if succeeded || g.next == nil {
			return nil
		}
		return g.next.Release(context.WithoutCancel(ctx), job, now)
	}
	return finish, true, nil
}
