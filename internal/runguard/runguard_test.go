package runguard

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"habit-planner/internal/logging"
	"habit-planner/internal/repository"
)

func TestRedisGuard(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer s.Close()

	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() {
		if err := rdb.Close(); err != nil {
			t.Fatalf("close redis: %v", err)
		}
	})

	g := NewRedis(rdb, time.Hour, time.UTC)
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	ok, err := g.Acquire(ctx, "rollover", now)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = g.Acquire(ctx, "rollover", now.Add(time.Minute))
	if err != nil || ok {
		t.Fatalf("second acquire inside window: ok=%v err=%v", ok, err)
	}

	s.FastForward(time.Hour + time.Second)
	ok, err = g.Acquire(ctx, "rollover", now.Add(2*time.Hour))
	if err != nil || !ok {
		t.Fatalf("acquire after window: ok=%v err=%v", ok, err)
	}
}

func TestDatabaseGuard(t *testing.T) {
	db, err := repository.NewDB("file:runguard_test?mode=memory&cache=shared", logging.Nop())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })

	g := NewDatabase(repository.NewJobRepository(db), time.Hour, time.UTC)
	ctx := context.Background()
	now := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	ok, err := g.Acquire(ctx, "rollover", now)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = g.Acquire(ctx, "rollover", now.Add(30*time.Minute))
	if err != nil || ok {
		t.Fatalf("acquire inside window: ok=%v err=%v", ok, err)
	}
	ok, err = g.Acquire(ctx, "reminders", now.Add(30*time.Minute))
	if err != nil || !ok {
		t.Fatalf("other job should not be blocked: ok=%v err=%v", ok, err)
	}
	ok, err = g.Acquire(ctx, "rollover", now.Add(time.Hour))
	if err != nil || !ok {
		t.Fatalf("acquire after window: ok=%v err=%v", ok, err)
	}
}

func TestZeroGapAlwaysRuns(t *testing.T) {
	g := NewDatabase(nil, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ok, err := g.Acquire(context.Background(), "rollover", time.Now())
		if err != nil || !ok {
			t.Fatalf("acquire %d: ok=%v err=%v", i, ok, err)
		}
	}
}

func TestLocalSkipsOverlappingRun(t *testing.T) {
	g := NewLocal(nil)
	ctx := context.Background()

	finish, ok, err := g.Begin(ctx, "rollover", time.Now())
	if err != nil || !ok {
		t.Fatalf("begin: ok=%v err=%v", ok, err)
	}
	if _, ok, _ := g.Begin(ctx, "rollover", time.Now()); ok {
		t.Fatalf("overlapping run should be skipped")
	}
	if err := finish(true); err != nil {
		t.Fatalf("finish: %v", err)
	}
	finish2, ok, err := g.Begin(ctx, "rollover", time.Now())
	if err != nil || !ok {
		t.Fatalf("begin after finish: ok=%v err=%v", ok, err)
	}
	if err := finish2(true); err != nil {
		t.Fatalf("finish: %v", err)
	}
}

func openJobDB(t *testing.T) *repository.JobRepository {
	t.Helper()
	db, err := repository.NewDB("file:"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared", logging.Nop())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return repository.NewJobRepository(db)
}

func TestGuardsGrantFirstRunOfNewDay(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer s.Close()
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rdb.Close() })

	loc := time.FixedZone("UTC+3", 3*60*60)
	guards := map[string]Guard{
		"redis":    NewRedis(rdb, time.Hour, loc),
		"database": NewDatabase(openJobDB(t), time.Hour, loc),
	}
	lateEvening := time.Date(2026, 10, 14, 23, 30, 0, 0, loc)
	ctx := context.Background()

	for name, g := range guards {
		t.Run(name, func(t *testing.T) {
			if ok, err := g.Acquire(ctx, "rollover", lateEvening); err != nil || !ok {
				t.Fatalf("evening acquire: ok=%v err=%v", ok, err)
			}
			if ok, err := g.Acquire(ctx, "rollover", lateEvening.Add(20*time.Minute)); err != nil || ok {
				t.Fatalf("same-day acquire inside window: ok=%v err=%v", ok, err)
			}
			if ok, err := g.Acquire(ctx, "rollover", lateEvening.Add(30*time.Minute)); err != nil || !ok {
				t.Fatalf("midnight acquire should be granted: ok=%v err=%v", ok, err)
			}
			if ok, err := g.Acquire(ctx, "rollover", lateEvening.Add(40*time.Minute)); err != nil || ok {
				t.Fatalf("acquire after midnight run: ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestReleaseReopensWindow(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer s.Close()
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rdb.Close() })

	guards := map[string]Guard{
		"redis":    NewRedis(rdb, time.Hour, time.UTC),
		"database": NewDatabase(openJobDB(t), time.Hour, time.UTC),
	}
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for name, g := range guards {
		t.Run(name, func(t *testing.T) {
			if ok, err := g.Acquire(ctx, "rollover", now); err != nil || !ok {
				t.Fatalf("acquire: ok=%v err=%v", ok, err)
			}
			if err := g.Release(ctx, "rollover", now); err != nil {
				t.Fatalf("release: %v", err)
			}
			if ok, err := g.Acquire(ctx, "rollover", now.Add(time.Minute)); err != nil || !ok {
				t.Fatalf("acquire after release: ok=%v err=%v", ok, err)
			}
		})
	}
}

type countingGuard struct {
	acquired, released int
}

func (g *countingGuard) Acquire(context.Context, string, time.Time) (bool, error) {
	g.acquired++
	return true, nil
}

func (g *countingGuard) Release(context.Context, string, time.Time) error {
	g.released++
	return nil
}

func TestLocalReleasesClaimOnFailure(t *testing.T) {
	next := &countingGuard{}
	g := NewLocal(next)
	ctx := context.Background()

	finish, ok, err := g.Begin(ctx, "rollover", time.Now())
	if err != nil || !ok {
		t.Fatalf("begin: ok=%v err=%v", ok, err)
	}
	if err := finish(false); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if next.released != 1 {
		t.Fatalf("expected failed run to release its claim, released=%d", next.released)
	}

	finish, _, _ = g.Begin(ctx, "rollover", time.Now())
	if err := finish(true); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if next.acquired != 2 || next.released != 1 {
		t.Fatalf("successful run must keep its claim: %+v", next)
	}
}
