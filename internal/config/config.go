// Package config loads layered configuration: defaults, then an optional
// config file, then RESUME_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RESUME_CONTROL_MAX_ITERATIONS
const EnvPrefix = "RESUME"

// Config is the full configuration tree
type Config struct {
	Estimator EstimatorConfig `mapstructure:"estimator"`
	Control   ControlConfig   `mapstructure:"control"`
	Compile   CompileConfig   `mapstructure:"compile"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

// EstimatorConfig holds the line estimation constants
type EstimatorConfig struct {
	CharsPerLine     int `mapstructure:"chars_per_line" validate:"min=20"`
	TargetTotalLines int `mapstructure:"target_total_lines" validate:"min=1"`
	HeaderLines      int `mapstructure:"header_lines" validate:"min=0"`
}

// ControlConfig holds the loop limits and pass thresholds
type ControlConfig struct {
	MaxIterations      int     `mapstructure:"max_iterations" validate:"min=1,max=50"`
	InitialPressure    float64 `mapstructure:"initial_pressure" validate:"gte=0,lte=1"`
	PassScore          int     `mapstructure:"pass_score" validate:"min=0,max=100"`
	TwoPagePassScore   int     `mapstructure:"two_page_pass_score" validate:"min=0,max=100"`
	TwoPageMinPressure float64 `mapstructure:"two_page_min_pressure" validate:"gte=0,lte=1"`
}

// CompileConfig configures pdflatex
type CompileConfig struct {
	Binary        string        `mapstructure:"binary" validate:"required"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	WorkDir       string        `mapstructure:"work_dir"`
	KeepArtifacts bool          `mapstructure:"keep_artifacts"`
}

// LLMConfig configures the model client. An empty APIKey disables the
// model-backed rewriter and reviewer.
type LLMConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	Models            ModelsConfig  `mapstructure:"models"`
	Temperature       float32       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int           `mapstructure:"burst" validate:"min=1"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Breaker           BreakerConfig `mapstructure:"breaker"`
}

// ModelsConfig names the model for each tier
type ModelsConfig struct {
	Lite     string `mapstructure:"lite" validate:"required"`
	Standard string `mapstructure:"standard" validate:"required"`
	Advanced string `mapstructure:"advanced" validate:"required"`
}

// BreakerConfig configures the circuit breaker around model calls
type BreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests" validate:"min=1"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MinRequests  uint32        `mapstructure:"min_requests" validate:"min=1"`
	FailureRatio float64       `mapstructure:"failure_ratio" validate:"gt=0,lte=1"`
}

// CacheConfig configures the rewrite cache; an empty RedisURL disables it
type CacheConfig struct {
	RedisURL string        `mapstructure:"redis_url" validate:"omitempty,url"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// DatabaseConfig configures run history; an empty URL disables it
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port               int `mapstructure:"port" validate:"min=1,max=65535"`
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" validate:"min=1"`
	RateLimitBurst     int `mapstructure:"rate_limit_burst" validate:"min=1"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// Error wraps configuration loading and validation failures
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Default returns the default configuration tree
func Default() *Config {
	return &Config{
		Estimator: EstimatorConfig{CharsPerLine: 90, TargetTotalLines: 48, HeaderLines: 4},
		Control: ControlConfig{
			MaxIterations:      5,
			InitialPressure:    0.4,
			PassScore:          90,
			TwoPagePassScore:   92,
			TwoPageMinPressure: 0.85,
		},
		Compile: CompileConfig{Binary: "pdflatex", Timeout: 60 * time.Second},
		LLM: LLMConfig{
			Models: ModelsConfig{
				Lite:     "gemini-2.5-flash-lite",
				Standard: "gemini-2.5-flash",
				Advanced: "gemini-2.5-pro",
			},
			Temperature:       0.1,
			RequestsPerSecond: 1,
			Burst:             2,
			Timeout:           90 * time.Second,
			Breaker: BreakerConfig{
				MaxRequests:  1,
				Interval:     time.Minute,
				Timeout:      30 * time.Second,
				MinRequests:  3,
				FailureRatio: 0.6,
			},
		},
		Cache:  CacheConfig{TTL: 24 * time.Hour},
		Server: ServerConfig{Port: 8080, RateLimitPerMinute: 10, RateLimitBurst: 2},
		Log:    LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads path (yaml, json or toml by extension; empty for none), applies
// environment overrides over the defaults and validates the result
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// conventional names used by other tools
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &Error{Message: fmt.Sprintf("failed to read config file %s", path), Cause: err}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Message: "failed to decode config", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and cross-field constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return &Error{Message: strings.Join(msgs, "; ")}
		}
		return &Error{Message: "invalid config", Cause: err}
	}
	if c.Control.TwoPagePassScore < c.Control.PassScore {
		return &Error{Message: "control.two_page_pass_score must not be below control.pass_score"}
	}
	return nil
}

// setDefaults registers every key so env overrides work without a file
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("estimator.chars_per_line", d.Estimator.CharsPerLine)
	v.SetDefault("estimator.target_total_lines", d.Estimator.TargetTotalLines)
	v.SetDefault("estimator.header_lines", d.Estimator.HeaderLines)

	v.SetDefault("control.max_iterations", d.Control.MaxIterations)
	v.SetDefault("control.initial_pressure", d.Control.InitialPressure)
	v.SetDefault("control.pass_score", d.Control.PassScore)
	v.SetDefault("control.two_page_pass_score", d.Control.TwoPagePassScore)
	v.SetDefault("control.two_page_min_pressure", d.Control.TwoPageMinPressure)

	v.SetDefault("compile.binary", d.Compile.Binary)
	v.SetDefault("compile.timeout", d.Compile.Timeout)
	v.SetDefault("compile.work_dir", d.Compile.WorkDir)
	v.SetDefault("compile.keep_artifacts", d.Compile.KeepArtifacts)

	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.models.lite", d.LLM.Models.Lite)
	v.SetDefault("llm.models.standard", d.LLM.Models.Standard)
	v.SetDefault("llm.models.advanced", d.LLM.Models.Advanced)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.requests_per_second", d.LLM.RequestsPerSecond)
	v.SetDefault("llm.burst", d.LLM.Burst)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.breaker.max_requests", d.LLM.Breaker.MaxRequests)
	v.SetDefault("llm.breaker.interval", d.LLM.Breaker.Interval)
	v.SetDefault("llm.breaker.timeout", d.LLM.Breaker.Timeout)
	v.SetDefault("llm.breaker.min_requests", d.LLM.Breaker.MinRequests)
	v.SetDefault("llm.breaker.failure_ratio", d.LLM.Breaker.FailureRatio)

	v.SetDefault("cache.redis_url", d.Cache.RedisURL)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("database.url", d.Database.URL)

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.rate_limit_per_minute", d.Server.RateLimitPerMinute)
	v.SetDefault("server.rate_limit_burst", d.Server.RateLimitBurst)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}
