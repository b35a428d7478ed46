// Package config loads exporter configuration from compiled defaults, an
// optional config.yml and environment variables, in that order of
// precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/lathrop-navisite/slack-exporter/internal/domain"
)

// Duration wraps time.Duration so YAML values like "30s" parse directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Slack holds upstream API settings. Token is read once at load time and
// passed around as a value; nothing else touches the environment.
type Slack struct {
	Token             string   `yaml:"token"`
	APIURL            string   `yaml:"api_url"`
	ConversationTypes []string `yaml:"conversation_types"`
	PageSize          int      `yaml:"page_size"`
	RequestTimeout    Duration `yaml:"request_timeout"`
	// RequestDelay is a fixed pause between API calls. Pacing only; a
	// throttled response still aborts the run.
	RequestDelay Duration `yaml:"request_delay"`
}

// Export holds archive output settings.
type Export struct {
	Directory     string `yaml:"directory"`
	PrettyJSON    bool   `yaml:"pretty_json"`
	DownloadFiles bool   `yaml:"download_files"`
	DownloadEmoji bool   `yaml:"download_emoji"`
}

// Logging holds log settings.
type Logging struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Config is the full application configuration.
type Config struct {
	Slack   Slack   `yaml:"slack"`
	Export  Export  `yaml:"export"`
	Logging Logging `yaml:"logging"`
}

func defaultConfig() *Config {
	return &Config{
		Slack: Slack{
			ConversationTypes: []string{
				string(domain.KindPublicChannel),
				string(domain.KindPrivateChannel),
				string(domain.KindMpIM),
				string(domain.KindIM),
			},
			PageSize:       DefaultPageSize,
			RequestTimeout: Duration(DefaultRequestTimeout),
			RequestDelay:   Duration(DefaultRequestDelay),
		},
		Export: Export{
			Directory:  DefaultExportDirectory,
			PrettyJSON: true,
		},
		Logging: Logging{
			Level: DefaultLogLevel,
		},
	}
}

// LoadConfig builds the configuration: defaults, then the YAML file at
// path (if it exists), then environment overrides. A .env file in the
// working directory is honored.
func LoadConfig(path string) (*Config, error) {
	// Missing .env is fine; the environment itself may carry everything.
	_ = godotenv.Load()

	cfg := defaultConfig()
	if err := loadFromYAML(path, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// loadFromYAML merges the file at path into cfg. A missing file is not an
// error, a malformed one is.
func loadFromYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides cfg with environment values where present.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SLACK_BOT_TOKEN"); v != "" {
		cfg.Slack.Token = v
	}
	if v := os.Getenv("SLACK_API_URL"); v != "" {
		cfg.Slack.APIURL = v
	}
	if v := os.Getenv("SLACK_CONVERSATION_TYPES"); v != "" {
		cfg.Slack.ConversationTypes = splitList(v)
	}
	if v := os.Getenv("SLACK_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Slack.PageSize = n
		}
	}
	if v := os.Getenv("SLACK_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Slack.RequestTimeout = Duration(d)
		}
	}
	if v := os.Getenv("SLACK_REQUEST_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Slack.RequestDelay = Duration(d)
		}
	}
	if v := os.Getenv("EXPORT_DIRECTORY"); v != "" {
		cfg.Export.Directory = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var validConversationTypes = map[string]bool{
	string(domain.KindPublicChannel):  true,
	string(domain.KindPrivateChannel): true,
	string(domain.KindMpIM):           true,
	string(domain.KindIM):             true,
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.Slack.Token == "" {
		return fmt.Errorf("slack.token must be set (SLACK_BOT_TOKEN)")
	}
	if len(c.Slack.ConversationTypes) == 0 {
		return fmt.Errorf("slack.conversation_types must not be empty")
	}
	for _, t := range c.Slack.ConversationTypes {
		if !validConversationTypes[t] {
			return fmt.Errorf("slack.conversation_types: unknown type %q", t)
		}
	}
	if c.Slack.PageSize <= 0 || c.Slack.PageSize > 1000 {
		return fmt.Errorf("slack.page_size must be in 1..1000")
	}
	if c.Slack.RequestTimeout <= 0 {
		return fmt.Errorf("slack.request_timeout must be positive")
	}
	if c.Slack.RequestDelay < 0 {
		return fmt.Errorf("slack.request_delay must not be negative")
	}
	if c.Export.Directory == "" {
		return fmt.Errorf("export.directory must not be empty")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	return nil
}
