package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"habit-planner/internal/client"
)

var errNoUser = errors.New("no user configured: run `planner login` or pass --user")

// Settings holds CLI configuration. Flags override PLANNER_* environment
// variables, which override the config file.
type Settings struct {
	Server   string `mapstructure:"server"`
	User     string `mapstructure:"user"`
	Token    string `mapstructure:"token"`
	Cache    string `mapstructure:"cache"`
	Timezone string `mapstructure:"timezone"`

	path string
}

func plannerDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".habitplanner")
}

func defaultConfigPath() string {
	return filepath.Join(plannerDir(), "planner.yaml")
}

func newViper(cmd *cobra.Command) (*viper.Viper, string, error) {
	path, _ := cmd.Flags().GetString("config")

	v := viper.New()
	v.SetDefault("server", "http://localhost:3000")
	v.SetDefault("cache", filepath.Join(plannerDir(), "cache.db"))
	v.SetEnvPrefix("planner")
	v.AutomaticEnv()

	for _, key := range []string{"server", "user", "token", "cache", "timezone"} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
			return nil, "", err
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	return v, path, nil
}

func loadSettings(cmd *cobra.Command) (*Settings, error) {
	v, path, err := newViper(cmd)
	if err != nil {
		return nil, err
	}
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	s.path = path
	return &s, nil
}

// saveLogin writes the session into the config file, keeping other keys.
func saveLogin(cmd *cobra.Command, userID, token string) (string, error) {
	v, path, err := newViper(cmd)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", err
	}
	stored := viper.New()
	stored.SetConfigFile(path)
	stored.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		if err := stored.ReadInConfig(); err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
	}
	stored.Set("server", v.GetString("server"))
	stored.Set("user", userID)
	stored.Set("token", token)
	if err := stored.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func (s *Settings) location() (*time.Location, error) {
	if s.Timezone == "" || strings.EqualFold(s.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(s.Timezone)
}

type app struct {
	cfg   *Settings
	loc   *time.Location
	api   *client.APIClient
	store *client.Store
	cache *client.Cache
}

// openApp wires the API client and the local cache. requireUser rejects
// commands that act on a user's data when none is configured.
func openApp(cmd *cobra.Command, requireUser bool) (*app, error) {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	if requireUser && cfg.User == "" {
		return nil, errNoUser
	}
	loc, err := cfg.location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	cache, err := client.OpenCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	api := client.NewAPIClient(cfg.Server, cfg.Token, nil)
	level := zerolog.ErrorLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.DateTime}).
		Level(level).With().Timestamp().Logger()
	return &app{
		cfg:   cfg,
		loc:   loc,
		api:   api,
		store: client.NewStore(api, cache, cfg.User, loc, log),
		cache: cache,
	}, nil
}

func (a *app) Close() error {
	return a.cache.Close()
}

func (a *app) parseDay(raw string) (time.Time, error) {
	if raw == "" || raw == "today" {
		y, m, d := time.Now().In(a.loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, a.loc), nil
	}
	if raw == "tomorrow" {
		y, m, d := time.Now().In(a.loc).Date()
		return time.Date(y, m, d+1, 0, 0, 0, 0, a.loc), nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return day, nil
}
