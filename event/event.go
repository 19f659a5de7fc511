// Package event holds the settings of one hunt: the round deadline, the scoring
// service endpoints and the optional IRC bot.
package event

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/oddlid/qrhunt/countdown"
	"github.com/oddlid/qrhunt/scoreapi"
)

const (
	DefaultDeadline  = "02/18/2026 21:30:00"
	DefaultNTPServer = "pool.ntp.org"
	DefaultIRCServer = "irc.oftc.net:6697"
	DefaultIRCNick   = "qrhunt"
	DefaultIRCUser   = "qrhunt"
)

// logger derives from the global logger on every call, picking up output set after init
func logger() zerolog.Logger {
	return log.With().Str("package", "event").Logger()
}

type API struct {
	Root           string        `yaml:"root"`
	LeaderboardURL string        `yaml:"leaderboard_url"`
	SubmitURL      string        `yaml:"submit_url"`
	Timeout        time.Duration `yaml:"timeout"`
}

type IRC struct {
	Server            string   `yaml:"server"`
	User              string   `yaml:"user"`
	Nick              string   `yaml:"nick"`
	Password          string   `yaml:"password"`
	Channels          []string `yaml:"channels"`
	TLS               bool     `yaml:"tls"`
	CountdownSchedule string   `yaml:"countdown_schedule"` // empty disables periodic countdown posts
}

type Config struct {
	Deadline        string        `yaml:"deadline"` // event wall time, see countdown.ParseDeadline
	Offset          time.Duration `yaml:"offset"`
	NTPServer       string        `yaml:"ntp_server"`
	RefreshSchedule string        `yaml:"refresh_schedule"` // empty means fetch once
	API             API           `yaml:"api"`
	IRC             IRC           `yaml:"irc"`
}

func Default() Config {
	return Config{
		Deadline:  DefaultDeadline,
		Offset:    countdown.EventOffset,
		NTPServer: DefaultNTPServer,
		API: API{
			Root:    scoreapi.DefaultRoot,
			Timeout: scoreapi.DefaultTimeout,
		},
		IRC: IRC{
			Server: DefaultIRCServer,
			User:   DefaultIRCUser,
			Nick:   DefaultIRCNick,
			TLS:    true,
		},
	}
}

// Load reads a YAML event file on top of the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	l := logger()
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read event file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse event file: %w", err)
	}
	l.Debug().
		Str("path", path).
		Str("deadline", cfg.Deadline).
		Msg("Loaded event file")
	return cfg, nil
}

// LoadEnv loads environment files, ".env" when none are given. Missing files are
// skipped, and variables already set are left alone.
func LoadEnv(files ...string) error {
	l := logger()
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		err := godotenv.Load(file)
		if errors.Is(err, fs.ErrNotExist) {
			l.Debug().Str("file", file).Msg("No env file")
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// DeadlineTime parses the configured deadline
func (c Config) DeadlineTime() (time.Time, error) {
	return countdown.ParseDeadline(c.Deadline, c.Offset)
}

func (c Config) ScoreAPI() scoreapi.Config {
	return scoreapi.Config{
		Root:           c.API.Root,
		LeaderboardURL: c.API.LeaderboardURL,
		SubmitURL:      c.API.SubmitURL,
		Timeout:        c.API.Timeout,
	}
}

// Validate checks the deadline and the cron schedules
func (c Config) Validate() error {
	if _, err := c.DeadlineTime(); err != nil {
		return err
	}
	if c.Offset <= -24*time.Hour || c.Offset >= 24*time.Hour {
		return fmt.Errorf("offset %s out of range", c.Offset)
	}
	for name, spec := range map[string]string{
		"refresh_schedule":       c.RefreshSchedule,
		"irc.countdown_schedule": c.IRC.CountdownSchedule,
	} {
		if strings.TrimSpace(spec) == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, spec, err)
		}
	}
	return nil
}
