package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/joho/godotenv/autoload"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config keeps runtime settings for the API server.
type Config struct {
	Env         string `env:"ENV" env-default:"local"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`
	HTTPAddr    string `env:"HTTP_ADDR" env-default:":3000"`
	DatabaseURL string `env:"DATABASE_URL" env-default:"habit_planner.db"`
	Timezone    string `env:"TIMEZONE" env-default:"Local"`

	Redis    RedisConfig
	Security SecurityConfig
	Rollover RolloverConfig
	Reminder ReminderConfig
	Telegram TelegramConfig
	Email    EmailConfig

	DailyCalorieTarget int `env:"DAILY_CALORIE_TARGET" env-default:"2000"`
}

// RedisConfig is optional; an empty address disables Redis.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
}

type SecurityConfig struct {
	JWTSecret string        `env:"JWT_SECRET" env-default:"dev_secret_change_me"`
	JWTTTL    time.Duration `env:"JWT_TTL" env-default:"720h"`
}

// RolloverConfig controls when unfinished tasks are moved to today.
type RolloverConfig struct {
	DailyAt  string        `env:"ROLLOVER_DAILY_AT" env-default:"00:00"`
	Interval time.Duration `env:"ROLLOVER_INTERVAL" env-default:"6h"`
	MinGap   time.Duration `env:"ROLLOVER_MIN_GAP" env-default:"1h"`
}

type ReminderConfig struct {
	DailyAt      string `env:"REMINDER_DAILY_AT" env-default:"07:00"`
	TaskReminder bool   `env:"TASK_REMINDERS" env-default:"false"`
}

// TelegramConfig is optional; an empty token disables the bot.
type TelegramConfig struct {
	Token string `env:"TELEGRAM_TOKEN"`
}

// EmailConfig is optional; an empty host disables email reminders.
type EmailConfig struct {
	SMTPHost  string `env:"SMTP_HOST"`
	SMTPPort  int    `env:"SMTP_PORT" env-default:"587"`
	SMTPUser  string `env:"SMTP_USER"`
	SMTPPass  string `env:"SMTP_PASS"`
	FromEmail string `env:"SMTP_FROM"`
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (c EmailConfig) Enabled() bool {
	return c.SMTPHost != "" && c.FromEmail != ""
}

// Load reads configuration from environment variables (and a .env file when
// present) and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values cleanenv cannot.
func (c Config) Validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown ENV %q", c.Env)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, _, err := ParseClock(c.Rollover.DailyAt); err != nil {
		return fmt.Errorf("ROLLOVER_DAILY_AT: %w", err)
	}
	if _, _, err := ParseClock(c.Reminder.DailyAt); err != nil {
		return fmt.Errorf("REMINDER_DAILY_AT: %w", err)
	}
	if c.Rollover.Interval <= 0 {
		return fmt.Errorf("ROLLOVER_INTERVAL must be positive")
	}
	if c.Rollover.MinGap < 0 {
		return fmt.Errorf("ROLLOVER_MIN_GAP must not be negative")
	}
	if c.Security.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.DailyCalorieTarget <= 0 {
		return fmt.Errorf("DAILY_CALORIE_TARGET must be positive")
	}
	return nil
}

// Location resolves the timezone used for calendar-day boundaries.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}

// ParseClock parses an "HH:MM" wall-clock time.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
