// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// Consumers receive value copies, so configuration is effectively read-only
// once the process has started.
type Interface interface {
	Logger() LoggerConfig
	Desktop() DesktopConfig
	Server() ServerConfig
	Journal() JournalConfig
	Agent() AgentConfig
}

// Config holds the entire application configuration.
// It uses private fields to enforce access through the Interface's getter methods.
type Config struct {
	logger  LoggerConfig
	desktop DesktopConfig
	server  ServerConfig
	journal JournalConfig
	agent   AgentConfig
}

// fileConfig is the exported mirror viper decodes into.
type fileConfig struct {
	Logger  LoggerConfig  `mapstructure:"logger"`
	Desktop DesktopConfig `mapstructure:"desktop"`
	Server  ServerConfig  `mapstructure:"server"`
	Journal JournalConfig `mapstructure:"journal"`
	Agent   AgentConfig   `mapstructure:"agent"`
}

func (c *Config) Logger() LoggerConfig   { return c.logger }
func (c *Config) Desktop() DesktopConfig { return c.desktop }
func (c *Config) Server() ServerConfig   { return c.server }
func (c *Config) Journal() JournalConfig { return c.journal }
func (c *Config) Agent() AgentConfig     { return c.agent }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DesktopConfig configures everything that touches the live desktop: the
// settle-delay table, the platform key bindings and the fail-safe interlock.
type DesktopConfig struct {
	Timing              TimingConfig   `mapstructure:"timing" yaml:"timing"`
	LauncherKey         string         `mapstructure:"launcher_key" yaml:"launcher_key"`
	UndoCombo           string         `mapstructure:"undo_combo" yaml:"undo_combo"`
	SimilarityThreshold float64        `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	FailSafe            FailSafeConfig `mapstructure:"failsafe" yaml:"failsafe"`
}

// TimingConfig is the delay table. Every wait the desktop layer performs is
// read from here.
type TimingConfig struct {
	// LauncherWait is the pause after opening the launcher and after typing the app name.
	LauncherWait time.Duration `mapstructure:"launcher_wait" yaml:"launcher_wait"`
	// AppSettle is the wait after confirming a launch.
	AppSettle time.Duration `mapstructure:"app_settle" yaml:"app_settle"`
	// ActionSettle is the universal post-action wait.
	ActionSettle time.Duration `mapstructure:"action_settle" yaml:"action_settle"`
	// TypeSettle replaces ActionSettle for plain typing.
	TypeSettle        time.Duration `mapstructure:"type_settle" yaml:"type_settle"`
	WindowSettle      time.Duration `mapstructure:"window_settle" yaml:"window_settle"`
	RestoreWait       time.Duration `mapstructure:"restore_wait" yaml:"restore_wait"`
	RecoverySettle    time.Duration `mapstructure:"recovery_settle" yaml:"recovery_settle"`
	DefaultRetryDelay time.Duration `mapstructure:"default_retry_delay" yaml:"default_retry_delay"`
}

// FailSafeConfig controls the corner-abort interlock.
type FailSafeConfig struct {
	Enabled      bool `mapstructure:"enabled" yaml:"enabled"`
	CornerMargin int  `mapstructure:"corner_margin" yaml:"corner_margin"`
	// Watch starts a global pointer hook so the interlock trips even
	// between tool calls.
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// ServerConfig configures the tool server.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace" yaml:"shutdown_grace"`
}

// JournalConfig configures the SQLite invocation journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// AgentConfig holds settings for the optional model-driven dialogue loop.
type AgentConfig struct {
	Model             string        `mapstructure:"model" yaml:"model"`
	APIKey            string        `mapstructure:"api_key" yaml:"-"`
	Instructions      string        `mapstructure:"instructions" yaml:"instructions"`
	Temperature       float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxToolRounds     int           `mapstructure:"max_tool_rounds" yaml:"max_tool_rounds"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	APITimeout        time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	cfg, err := decode(v)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "otto")
	v.SetDefault("logger.log_file", "otto.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Desktop timing --
	v.SetDefault("desktop.timing.launcher_wait", "1s")
	v.SetDefault("desktop.timing.app_settle", "2s")
	v.SetDefault("desktop.timing.action_settle", "1500ms")
	v.SetDefault("desktop.timing.type_settle", "1s")
	v.SetDefault("desktop.timing.window_settle", "1500ms")
	v.SetDefault("desktop.timing.restore_wait", "500ms")
	v.SetDefault("desktop.timing.recovery_settle", "1500ms")
	v.SetDefault("desktop.timing.default_retry_delay", "2s")

	// -- Desktop bindings --
	v.SetDefault("desktop.launcher_key", defaultLauncherKey())
	v.SetDefault("desktop.undo_combo", defaultUndoCombo())
	v.SetDefault("desktop.similarity_threshold", 0.95)
	v.SetDefault("desktop.failsafe.enabled", true)
	v.SetDefault("desktop.failsafe.corner_margin", 0)
	v.SetDefault("desktop.failsafe.watch", false)

	// -- Server --
	v.SetDefault("server.addr", "127.0.0.1:8765")
	v.SetDefault("server.request_timeout", "2m")
	v.SetDefault("server.shutdown_grace", "5s")

	// -- Journal --
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", "otto_journal.db")

	// -- Agent --
	v.SetDefault("agent.model", "gemini-2.5-flash")
	v.SetDefault("agent.temperature", 0.2)
	v.SetDefault("agent.max_tool_rounds", 12)
	v.SetDefault("agent.requests_per_minute", 30)
	v.SetDefault("agent.api_timeout", "60s")
	v.SetDefault("agent.max_retries", 3)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// The model key is a secret and is only ever expected from the environment.
	_ = v.BindEnv("agent.api_key", "OTTO_AGENT_API_KEY", "GOOGLE_API_KEY")

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if cfg.agent.APIKey == "" {
		cfg.agent.APIKey = os.Getenv("OTTO_AGENT_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &Config{
		logger:  fc.Logger,
		desktop: fc.Desktop,
		server:  fc.Server,
		journal: fc.Journal,
		agent:   fc.Agent,
	}, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.desktop.Validate(); err != nil {
		return fmt.Errorf("desktop configuration invalid: %w", err)
	}
	if c.server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.journal.Enabled && c.journal.Path == "" {
		return fmt.Errorf("journal.path is required when the journal is enabled")
	}
	if err := c.agent.Validate(); err != nil {
		return fmt.Errorf("agent configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the desktop section.
func (d *DesktopConfig) Validate() error {
	if err := d.Timing.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.LauncherKey) == "" {
		return fmt.Errorf("launcher_key must not be empty")
	}
	if strings.TrimSpace(d.UndoCombo) == "" {
		return fmt.Errorf("undo_combo must not be empty")
	}
	if d.SimilarityThreshold < 0.0 || d.SimilarityThreshold > 1.0 {
		return fmt.Errorf("similarity_threshold must be between 0.0 and 1.0")
	}
	if d.FailSafe.CornerMargin < 0 {
		return fmt.Errorf("failsafe.corner_margin must not be negative")
	}
	return nil
}

// Validate rejects negative delays. Zero is allowed, tests rely on it.
func (t *TimingConfig) Validate() error {
	delays := map[string]time.Duration{
		"launcher_wait":       t.LauncherWait,
		"app_settle":          t.AppSettle,
		"action_settle":       t.ActionSettle,
		"type_settle":         t.TypeSettle,
		"window_settle":       t.WindowSettle,
		"restore_wait":        t.RestoreWait,
		"recovery_settle":     t.RecoverySettle,
		"default_retry_delay": t.DefaultRetryDelay,
	}
	for name, d := range delays {
		if d < 0 {
			return fmt.Errorf("timing.%s must not be negative", name)
		}
	}
	return nil
}

// Validate checks the agent section.
func (a *AgentConfig) Validate() error {
	if a.MaxToolRounds <= 0 {
		return fmt.Errorf("max_tool_rounds must be a positive integer")
	}
	if a.RequestsPerMinute <= 0 {
		return fmt.Errorf("requests_per_minute must be a positive integer")
	}
	if a.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	return nil
}
