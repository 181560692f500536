// Package config loads the application configuration from an optional
// YAML file overlaid with QUIZSTREAK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/quizstreak/internal/catalog"
	"github.com/abhisek/quizstreak/internal/llm"
	"github.com/abhisek/quizstreak/internal/schedule"
)

// Telegram modes.
const (
	ModePoll    = "poll"
	ModeWebhook = "webhook"
)

// Source kinds.
const (
	SourceNotion = "notion"
	SourceFile   = "file"
)

// Config is the full application configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Server   ServerConfig   `yaml:"server"`
	Source   SourceConfig   `yaml:"source"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Archive  ArchiveConfig  `yaml:"archive"`
	DB       DBConfig       `yaml:"db"`
	LLM      llm.Config     `yaml:"llm"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`

	// Mode is "poll" (long polling) or "webhook".
	Mode string `yaml:"mode"`

	WebhookSecret string `yaml:"webhook_secret"`

	// PublicURL is the externally reachable base URL. When set in webhook
	// mode the webhook is registered on startup.
	PublicURL string `yaml:"public_url"`

	APIURL      string        `yaml:"api_url"`
	Timeout     time.Duration `yaml:"timeout"`
	PollTimeout time.Duration `yaml:"poll_timeout"`
}

type ServerConfig struct {
	Addr       string `yaml:"addr"`
	CronSecret string `yaml:"cron_secret"`
}

type SourceConfig struct {
	// Kind is "notion" or "file".
	Kind string `yaml:"kind"`

	NotionToken      string `yaml:"notion_token"`
	NotionDatabaseID string `yaml:"notion_database_id"`
	NotionBaseURL    string `yaml:"notion_base_url"`

	Path string `yaml:"path"`

	Difficulty    string        `yaml:"difficulty"`
	RequireRecent bool          `yaml:"require_recent"`
	Count         int           `yaml:"count"`
	Timeout       time.Duration `yaml:"timeout"`
}

type ScheduleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Time     string `yaml:"time"`
	Timezone string `yaml:"timezone"`
}

type DeliveryConfig struct {
	MessageDelay time.Duration `yaml:"message_delay"`
	SendTimeout  time.Duration `yaml:"send_timeout"`
}

type ArchiveConfig struct {
	Path string `yaml:"path"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Telegram: TelegramConfig{
			Mode:        ModePoll,
			Timeout:     30 * time.Second,
			PollTimeout: 10 * time.Second,
		},
		Server: ServerConfig{Addr: ":8080"},
		Source: SourceConfig{
			Kind:          SourceNotion,
			Difficulty:    catalog.DefaultDifficulty,
			RequireRecent: true,
			Count:         1,
			Timeout:       30 * time.Second,
		},
		Schedule: ScheduleConfig{
			Enabled:  true,
			Time:     "09:00",
			Timezone: "Local",
		},
		Delivery: DeliveryConfig{
			MessageDelay: 500 * time.Millisecond,
			SendTimeout:  15 * time.Second,
		},
		LLM: llm.DefaultConfig(),
	}
}

// Load reads path (if non-empty), applies the environment and normalizes
// the result. It does not validate; callers validate the sections they
// use.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.Telegram.Mode = strings.ToLower(strings.TrimSpace(c.Telegram.Mode))
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	c.Telegram.PublicURL = strings.TrimRight(c.Telegram.PublicURL, "/")
	if c.Source.Count < 1 {
		c.Source.Count = 1
	}
	if c.Source.Difficulty == "" {
		c.Source.Difficulty = catalog.DefaultDifficulty
	}
}

// Filter returns the candidate filter.
func (c Config) Filter() catalog.Filter {
	return catalog.Filter{Difficulty: c.Source.Difficulty, RequireRecent: c.Source.RequireRecent}
}

// Location resolves the schedule timezone.
func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Schedule.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule timezone %q: %w", tz, err)
	}
	return loc, nil
}

// ValidateBatch checks what a batch run needs: a source, the LLM and the
// chat to deliver to.
func (c Config) ValidateBatch() error {
	var errs []error
	switch c.Source.Kind {
	case SourceNotion:
		if c.Source.NotionToken == "" {
			errs = append(errs, errors.New("source.notion_token (QUIZSTREAK_NOTION_TOKEN) is required"))
		}
		if c.Source.NotionDatabaseID == "" {
			errs = append(errs, errors.New("source.notion_database_id (QUIZSTREAK_NOTION_DATABASE_ID) is required"))
		}
	case SourceFile:
		if c.Source.Path == "" {
			errs = append(errs, errors.New("source.path (QUIZSTREAK_SOURCE_PATH) is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source kind %q", c.Source.Kind))
	}
	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, c.validateTelegram()...)
	return errors.Join(errs...)
}

// ValidateServe checks what the long-running service needs.
func (c Config) ValidateServe() error {
	errs := c.validateTelegram()
	switch c.Telegram.Mode {
	case ModePoll:
	case ModeWebhook:
		if c.Telegram.WebhookSecret == "" {
			errs = append(errs, errors.New("telegram.webhook_secret (QUIZSTREAK_WEBHOOK_SECRET) is required in webhook mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown telegram mode %q", c.Telegram.Mode))
	}
	if c.Schedule.Enabled {
		if _, _, err := schedule.ParseClock(c.Schedule.Time); err != nil {
			errs = append(errs, err)
		}
		if _, err := c.Location(); err != nil {
			errs = append(errs, err)
		}
		if err := c.ValidateBatch(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(dedupe(errs)...)
}

func (c Config) validateTelegram() []error {
	var errs []error
	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token (QUIZSTREAK_TELEGRAM_TOKEN) is required"))
	}
	if c.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("telegram.chat_id (QUIZSTREAK_TELEGRAM_CHAT_ID) is required"))
	}
	return errs
}

// dedupe drops repeated messages, which happen when ValidateServe folds in
// ValidateBatch.
func dedupe(errs []error) []error {
	seen := make(map[string]bool)
	var out []error
	for _, err := range errs {
		for _, e := range flatten(err) {
			if !seen[e.Error()] {
				seen[e.Error()] = true
				out = append(out, e)
			}
		}
	}
	return out
}

func flatten(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
