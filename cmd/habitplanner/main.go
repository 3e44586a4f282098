package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"habit-planner/internal/api"
	"habit-planner/internal/bot"
	"habit-planner/internal/config"
	"habit-planner/internal/logging"
	"habit-planner/internal/notify"
	"habit-planner/internal/repository"
	"habit-planner/internal/runguard"
	"habit-planner/internal/service"
)

const jobTimeout = 2 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		boot := logging.New(config.EnvLocal, "info")
		boot.Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.Env, cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("timezone")
	}

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	nutritionRepo := repository.NewNutritionRepository(db)

	taskSvc := service.NewTaskService(taskRepo, userRepo, loc, log)
	templateSvc := service.NewTemplateService(templateRepo, taskRepo, userRepo, loc, log)
	authSvc := service.NewAuthService(userRepo, cfg.Security.JWTSecret, cfg.Security.JWTTTL)
	nutritionSvc := service.NewNutritionService(nutritionRepo, userRepo, cfg.DailyCalorieTarget, loc)

	if _, err := templateSvc.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("seed templates")
	}

	router := notify.NewRouter()
	reminderSvc := service.NewReminderService(taskRepo, userRepo, router, loc, log)

	var telegramBot *bot.Bot
	if cfg.Telegram.Token != "" {
		botAPI, err := bot.Connect(cfg.Telegram.Token)
		if err != nil {
			log.Fatal().Err(err).Msg("telegram")
		}
		telegramBot = bot.New(botAPI, userRepo, taskSvc, reminderSvc, log)
		router.Add(telegramBot)
		log.Info().Str("username", botAPI.Self.UserName).Msg("telegram bot authorized")
	}
	if email := notify.NewEmailChannel(cfg.Email, log); email != nil {
		router.Add(email)
	}

	guard, closeGuard, err := newGuard(ctx, cfg, loc, repository.NewJobRepository(db), log)
	if err != nil {
		log.Fatal().Err(err).Msg("rollover guard")
	}
	defer closeGuard()
	rollover := service.NewRolloverJob(taskSvc, guard, log)

	scheduler := service.NewSchedulerService(loc, log)
	runRollover := func(trigger string) func() {
		return func() {
			jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()
			_, _, _ = rollover.Run(jobCtx, trigger)
		}
	}
	if _, err := scheduler.ScheduleDaily(cfg.Rollover.DailyAt, runRollover("daily")); err != nil {
		log.Fatal().Err(err).Msg("schedule daily rollover")
	}
	if _, err := scheduler.ScheduleInterval(cfg.Rollover.Interval, runRollover("interval")); err != nil {
		log.Fatal().Err(err).Msg("schedule interval rollover")
	}
	if _, err := scheduler.ScheduleDaily(cfg.Reminder.DailyAt, func() {
		jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		if _, err := reminderSvc.SendMorningReminders(jobCtx); err != nil {
			log.Error().Err(err).Msg("morning reminders")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("schedule morning reminders")
	}
	if cfg.Reminder.TaskReminder {
		if _, err := scheduler.ScheduleEveryMinute(func() {
			jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			if _, err := reminderSvc.SendDueTaskReminders(jobCtx); err != nil {
				log.Error().Err(err).Msg("task reminders")
			}
		}); err != nil {
			log.Fatal().Err(err).Msg("schedule task reminders")
		}
	}

	// Catch up if the process was down over midnight.
	runRollover("startup")()

	scheduler.Start()
	defer scheduler.Stop()

	server := api.NewServer(api.Services{
		Tasks:     taskSvc,
		Templates: templateSvc,
		Auth:      authSvc,
		Nutrition: nutritionSvc,
	}, loc, log)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if telegramBot != nil {
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error().Err(err).Msg("component stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("shutdown complete")
}

// newGuard prefers Redis when configured so several instances share one
// rollover window; otherwise the job_runs table is used.
func newGuard(ctx context.Context, cfg config.Config, loc *time.Location, jobs *repository.JobRepository, log zerolog.Logger) (runguard.Guard, func(), error) {
	if cfg.Redis.Addr == "" {
		return runguard.NewDatabase(jobs, cfg.Rollover.MinGap, loc), func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, nil, err
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("rollover guard uses redis")
	return runguard.NewRedis(rdb, cfg.Rollover.MinGap, loc), func() { rdb.Close() }, nil
}
