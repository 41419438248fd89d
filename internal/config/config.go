package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "RIGOR_CONFIG"
	logLevelEnv       = "RIGOR_LOG_LEVEL"
	logFormatEnv      = "RIGOR_LOG_FORMAT"
	httpAddrEnv       = "RIGOR_HTTP_ADDR"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	oracleProviderEnv = "RIGOR_ORACLE"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	openAIModelEnv    = "OPENAI_MODEL"
	openAIBaseURLEnv  = "OPENAI_BASE_URL"
	verdictURLEnv     = "VERDICT_SERVICE_URL"
	verdictAPIKeyEnv  = "VERDICT_SERVICE_API_KEY"
	influxTokenEnv    = "INFLUX_TOKEN"
	minioAccessEnv    = "MINIO_ACCESS_KEY"
	minioSecretEnv    = "MINIO_SECRET_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Oracle providers.
const (
	OracleOpenAI    = "openai"
	OracleHTTP      = "http"
	OracleHeuristic = "heuristic"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Oracle        OracleConfig       `yaml:"oracle"`
	Conflict      ConflictConfig     `yaml:"conflict"`
	Logic         LogicConfig        `yaml:"logic"`
	Readiness     ReadinessConfig    `yaml:"readiness"`
	Cache         CacheConfig        `yaml:"cache"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	HTTP          HTTPConfig         `yaml:"http"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	History       HistoryConfig      `yaml:"history"`
	Reports       ReportsConfig      `yaml:"reports"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig describes the relational store. Driver is "sqlite", "postgres" or "memory".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// OracleConfig picks and tunes the reasoning backend.
type OracleConfig struct {
	Provider         string           `yaml:"provider"`
	Timeout          time.Duration    `yaml:"timeout"`
	MaxDocumentChars int              `yaml:"maxDocumentChars"`
	OpenAI           OpenAIConfig     `yaml:"openai"`
	HTTP             VerdictSvcConfig `yaml:"http"`
}

// OpenAIConfig defines how to contact an OpenAI-compatible chat API.
type OpenAIConfig struct {
	BaseURL           string  `yaml:"baseUrl"`
	Model             string  `yaml:"model"`
	APIKey            string  `yaml:"apiKey"`
	SystemPrompt      string  `yaml:"systemPrompt"`
	Temperature       float32 `yaml:"temperature"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// VerdictSvcConfig describes an external HTTP verdict service.
type VerdictSvcConfig struct {
	Endpoint          string  `yaml:"endpoint"`
	APIKey            string  `yaml:"apiKey"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// ConflictConfig bounds pairwise conflict detection.
type ConflictConfig struct {
	MaxPairs            int     `yaml:"maxPairs"`
	MaxDimensionPenalty float64 `yaml:"maxDimensionPenalty"`
	Concurrency         int     `yaml:"concurrency"`
}

// LogicConfig tunes the decision-proximity multiplier.
type LogicConfig struct {
	DecisionBonus  float64 `yaml:"decisionBonus"`
	DecisionWindow int     `yaml:"decisionWindow"`
}

// ReadinessConfig tunes criterion evaluation.
type ReadinessConfig struct {
	Concurrency   int     `yaml:"concurrency"`
	LowConfidence float64 `yaml:"lowConfidence"`
	FewSources    int     `yaml:"fewSources"`
}

// CacheConfig selects the verdict cache. Driver is "badger", "memory" or "none".
type CacheConfig struct {
	Driver string        `yaml:"driver"`
	Path   string        `yaml:"path"`
	TTL    time.Duration `yaml:"ttl"`
}

// SchedulerConfig defines when maintenance sweeps run.
type SchedulerConfig struct {
	Enabled            bool           `yaml:"enabled"`
	Interval           time.Duration  `yaml:"interval"`
	Timezone           string         `yaml:"timezone"`
	ReanalyzeCompleted bool           `yaml:"reanalyzeCompleted"`
	PurgeExpiredText   bool           `yaml:"purgeExpiredText"`
	location           *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// HTTPConfig configures the REST API.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// RequestsPerSecond limits each client IP; zero disables limiting.
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// HistoryConfig mirrors score snapshots into InfluxDB when URL is set.
type HistoryConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// ReportsConfig publishes JSON reports to an S3-compatible bucket when Endpoint is set.
type ReportsConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSSL"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		fileCfg, err := LoadFile(path, cfg)
		if err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = fileCfg
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	return cfg
}

// LoadFrom is Load with an explicit file path; an empty path falls back to RIGOR_CONFIG.
// Unlike Load, a missing or malformed file is an error.
func LoadFrom(path string) (Config, error) {
	if path == "" {
		return Load(), nil
	}
	cfg, err := LoadFile(path, Default())
	if err != nil {
		return Config{}, err
	}
	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	return cfg, nil
}

// LoadFile decodes the YAML file at path over base; keys absent from the file keep base values.
func LoadFile(path string, base Config) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("cannot read %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return base, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	setString := func(env string, dst *string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}

	setString(logLevelEnv, &c.Logging.Level)
	setString(logFormatEnv, &c.Logging.Format)
	setString(httpAddrEnv, &c.HTTP.Addr)
	setString(databaseDriverEnv, &c.Database.Driver)
	setString(databaseDSNEnv, &c.Database.DSN)
	setString(oracleProviderEnv, &c.Oracle.Provider)
	setString(openAIAPIKeyEnv, &c.Oracle.OpenAI.APIKey)
	setString(openAIModelEnv, &c.Oracle.OpenAI.Model)
	setString(openAIBaseURLEnv, &c.Oracle.OpenAI.BaseURL)
	setString(verdictURLEnv, &c.Oracle.HTTP.Endpoint)
	setString(verdictAPIKeyEnv, &c.Oracle.HTTP.APIKey)
	setString(influxTokenEnv, &c.History.Token)
	setString(minioAccessEnv, &c.Reports.AccessKey)
	setString(minioSecretEnv, &c.Reports.SecretKey)
	setString(telegramTokenEnv, &c.Notifications.Telegram.BotToken)
	setString(telegramChatIDEnv, &c.Notifications.Telegram.ChatID)

	if v := os.Getenv("RIGOR_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Metrics.Enabled = b
		} else {
			log.Printf("config: ignoring RIGOR_METRICS_ENABLED=%q: %v", v, err)
		}
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

// Default returns the documented defaults.
func Default() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "rigorscore.db"},
		Oracle: OracleConfig{
			Provider:         OracleHeuristic,
			Timeout:          30 * time.Second,
			MaxDocumentChars: 6000,
			OpenAI: OpenAIConfig{
				BaseURL:           "https://api.openai.com/v1",
				Model:             "gpt-4o-mini",
				SystemPrompt:      "You are a careful analyst who checks business documents and answers strictly in JSON.",
				RequestsPerSecond: 2,
				Burst:             4,
			},
			HTTP: VerdictSvcConfig{RequestsPerSecond: 5, Burst: 5},
		},
		Conflict:  ConflictConfig{MaxPairs: 45, MaxDimensionPenalty: 60, Concurrency: 4},
		Logic:     LogicConfig{DecisionBonus: 0, DecisionWindow: 8},
		Readiness: ReadinessConfig{Concurrency: 4, LowConfidence: 0.6, FewSources: 3},
		Cache:     CacheConfig{Driver: "memory", Path: "data/verdicts"},
		Scheduler: SchedulerConfig{
			Enabled:            false,
			Interval:           6 * time.Hour,
			Timezone:           defaultTimezone,
			ReanalyzeCompleted: true,
			PurgeExpiredText:   true,
			location:           tz,
		},
		HTTP:    HTTPConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second, RequestsPerSecond: 20, Burst: 40},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		History: HistoryConfig{Org: "rigorscore", Bucket: "scores"},
		Reports: ReportsConfig{Bucket: "rigorscore-reports"},
	}
}
