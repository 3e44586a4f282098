package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"habit-planner/internal/metrics"
	"habit-planner/internal/runguard"
)

const rolloverJobName = "rollover"

// RolloverJob is the single entry point every rollover trigger goes through.
// Triggers that fire while a run is in progress, or within the guard's
// window after the last run on the same calendar day, are skipped. A failed
// run hands its window back.
type RolloverJob struct {
	tasks *TaskService
	guard *runguard.Local
	now   func() time.Time
	log   zerolog.Logger
}

func NewRolloverJob(tasks *TaskService, guard runguard.Guard, log zerolog.Logger) *RolloverJob {
	return &RolloverJob{
		tasks: tasks,
		guard: runguard.NewLocal(guard),
		now:   tasks.clock.now,
		log:   log.With().Str("job", rolloverJobName).Logger(),
	}
}

// Run performs one rollover unless the guard refuses. It reports whether the
// rollover ran and how many tasks were moved.
func (j *RolloverJob) Run(ctx context.Context, trigger string) (bool, int64, error) {
	finish, ok, err := j.guard.Begin(ctx, rolloverJobName, j.now())
	if err != nil {
		metrics.RolloverRuns.WithLabelValues("failed").Inc()
		j.log.Error().Err(err).Str("trigger", trigger).Msg("rollover guard failed")
		return false, 0, err
	}
	if !ok {
		metrics.RolloverRuns.WithLabelValues("skipped").Inc()
		j.log.Debug().Str("trigger", trigger).Msg("rollover skipped, ran recently")
		return false, 0, nil
	}

	rolled, err := j.tasks.Rollover(ctx)
	if ferr := finish(err == nil); ferr != nil {
		j.log.Error().Err(ferr).Str("trigger", trigger).Msg("rollover guard release failed")
	}
	if err != nil {
		metrics.RolloverRuns.WithLabelValues("failed").Inc()
		j.log.Error().Err(err).Str("trigger", trigger).Msg("rollover failed")
		return true, 0, err
	}
	metrics.RolloverRuns.WithLabelValues("ran").Inc()
	j.log.Info().Str("trigger", trigger).Int64("rolled", rolled).Msg("rollover run")
	return true, rolled, nil
}
