package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv      = "TLDRIST_CONFIG"
	todoistTokenEnv    = "TODOIST_API_TOKEN"
	todoistProjectEnv  = "TODOIST_PROJECT_ID"
	geminiAPIKeyEnv    = "GEMINI_API_KEY"
	geminiModelEnv     = "GEMINI_MODEL"
	smtpPasswordEnv    = "SMTP_PASSWORD"
	databaseDSNEnv     = "DATABASE_DSN"
	recipientEmailEnv  = "DIGEST_RECIPIENT"
	serverAddrEnv      = "HTTP_ADDR"
	logLevelEnv        = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Todoist   TodoistConfig   `yaml:"todoist"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Email     EmailConfig     `yaml:"email"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Database  DatabaseConfig  `yaml:"database"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ServerConfig describes the HTTP trigger surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SchedulerConfig defines when the pipeline should run on its own.
type SchedulerConfig struct {
	Enabled        bool           `yaml:"enabled"`
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// PipelineConfig bounds a single run.
type PipelineConfig struct {
	MinRequired         int  `yaml:"minRequired"`
	MaxCount            int  `yaml:"maxCount"`
	Concurrency         int  `yaml:"concurrency"`
	StageTimeoutSeconds int  `yaml:"stageTimeoutSeconds"`
	DryRun              bool `yaml:"dryRun"`
}

// StageTimeout returns the per-stage timeout as a duration.
func (p PipelineConfig) StageTimeout() time.Duration {
	return time.Duration(p.StageTimeoutSeconds) * time.Second
}

// TodoistConfig wires the reading-list source.
type TodoistConfig struct {
	BaseURL   string `yaml:"baseUrl"`
	Token     string `yaml:"token"`
	ProjectID string `yaml:"projectId"`
}

// GeminiConfig defines how to contact the generative model API.
type GeminiConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// EmailConfig carries SMTP delivery settings for the digest.
type EmailConfig struct {
	SMTPHost string   `yaml:"smtpHost"`
	SMTPPort int      `yaml:"smtpPort"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// ExtractorConfig tunes article fetching and content extraction.
type ExtractorConfig struct {
	UserAgent      string `yaml:"userAgent"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	MinWords       int    `yaml:"minWords"`
}

// Timeout returns the HTTP fetch timeout as a duration.
func (e ExtractorConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// DatabaseConfig describes the optional run-history Postgres store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Validate reports misconfiguration that would make a run pointless.
func (c Config) Validate() error {
	if c.Todoist.Token == "" {
		return fmt.Errorf("config: todoist token is required (set %s)", todoistTokenEnv)
	}
	if c.Todoist.ProjectID == "" {
		return fmt.Errorf("config: todoist project id is required (set %s)", todoistProjectEnv)
	}
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("config: gemini api key is required (set %s)", geminiAPIKeyEnv)
	}
	if c.Pipeline.MaxCount > 0 && c.Pipeline.MinRequired > c.Pipeline.MaxCount {
		return fmt.Errorf("config: pipeline minRequired (%d) exceeds maxCount (%d)",
			c.Pipeline.MinRequired, c.Pipeline.MaxCount)
	}
	if c.Email.SMTPHost != "" {
		if c.Email.From == "" || len(c.Email.To) == 0 {
			return fmt.Errorf("config: email.from and email.to are required when smtpHost is set")
		}
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(todoistTokenEnv); v != "" {
		c.Todoist.Token = v
	}
	if v := os.Getenv(todoistProjectEnv); v != "" {
		c.Todoist.ProjectID = v
	}
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv(smtpPasswordEnv); v != "" {
		c.Email.Password = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(recipientEmailEnv); v != "" {
		c.Email.To = splitAndTrim(v)
	}
	if v := os.Getenv(serverAddrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.Server.Addr != "" {
		base.Server = override.Server
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.Enabled {
		base.Scheduler.Enabled = true
	}

	if override.Pipeline.MinRequired != 0 {
		base.Pipeline.MinRequired = override.Pipeline.MinRequired
	}
	if override.Pipeline.MaxCount != 0 {
		base.Pipeline.MaxCount = override.Pipeline.MaxCount
	}
	if override.Pipeline.Concurrency != 0 {
		base.Pipeline.Concurrency = override.Pipeline.Concurrency
	}
	if override.Pipeline.StageTimeoutSeconds != 0 {
		base.Pipeline.StageTimeoutSeconds = override.Pipeline.StageTimeoutSeconds
	}
	if override.Pipeline.DryRun {
		base.Pipeline.DryRun = true
	}

	if override.Todoist.BaseURL != "" {
		base.Todoist.BaseURL = override.Todoist.BaseURL
	}
	if override.Todoist.Token != "" {
		base.Todoist.Token = override.Todoist.Token
	}
	if override.Todoist.ProjectID != "" {
		base.Todoist.ProjectID = override.Todoist.ProjectID
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}

	if override.Email.SMTPHost != "" {
		base.Email.SMTPHost = override.Email.SMTPHost
	}
	if override.Email.SMTPPort != 0 {
		base.Email.SMTPPort = override.Email.SMTPPort
	}
	if override.Email.Username != "" {
		base.Email.Username = override.Email.Username
	}
	if override.Email.Password != "" {
		base.Email.Password = override.Email.Password
	}
	if override.Email.From != "" {
		base.Email.From = override.Email.From
	}
	if len(override.Email.To) > 0 {
		base.Email.To = override.Email.To
	}

	if override.Extractor.UserAgent != "" {
		base.Extractor.UserAgent = override.Extractor.UserAgent
	}
	if override.Extractor.TimeoutSeconds != 0 {
		base.Extractor.TimeoutSeconds = override.Extractor.TimeoutSeconds
	}
	if override.Extractor.MinWords != 0 {
		base.Extractor.MinWords = override.Extractor.MinWords
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Addr: ":8080"},
		Scheduler: SchedulerConfig{
			Enabled:        false,
			CronExpression: "0 7 * * 1",
			Timezone:       defaultTimezone,
			location:       tz,
		},
		Pipeline: PipelineConfig{
			MinRequired:         1,
			MaxCount:            20,
			Concurrency:         4,
			StageTimeoutSeconds: 60,
		},
		Todoist: TodoistConfig{
			BaseURL: "https://api.todoist.com/api/v1",
		},
		Gemini: GeminiConfig{
			Endpoint: "https://generativelanguage.googleapis.com/v1beta",
			Model:    "gemini-2.0-flash-001",
		},
		Email: EmailConfig{
			SMTPHost: "smtp.gmail.com",
			SMTPPort: 587,
		},
		Extractor: ExtractorConfig{
			UserAgent:      "Mozilla/5.0 (compatible; tldrist/1.0; +https://github.com/philmod/tldrist)",
			TimeoutSeconds: 30,
			MinWords:       50,
		},
	}
}
