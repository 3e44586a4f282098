package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "habitplanner_tasks_created_total",
		Help: "Tasks created, by source (manual, template).",
	}, []string{"source"})

	TasksToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "habitplanner_tasks_toggled_total",
		Help: "Completion toggles, by resulting state.",
	}, []string{"state"})

	StreakCredits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "habitplanner_streak_updates_total",
		Help: "Streak updates on completion, by outcome (increment, reset, start, unchanged).",
	}, []string{"outcome"})

	RolloverRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "habitplanner_rollover_runs_total",
		Help: "Rollover attempts, by result (ran, skipped, failed).",
	}, []string{"result"})

	RolledTasks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "habitplanner_rolled_tasks_total",
		Help: "Tasks moved forward by rollover.",
	})

	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "habitplanner_reminders_sent_total",
		Help: "Reminder messages, by kind and result.",
	}, []string{"kind", "result"})
)
