package pipeline

import (
	"github.com/jonathan/resume-compressor/internal/config"
	"github.com/jonathan/resume-compressor/internal/control"
	"github.com/jonathan/resume-compressor/internal/estimate"
	"github.com/jonathan/resume-compressor/internal/llm"
	"github.com/jonathan/resume-compressor/internal/planning"
	"github.com/jonathan/resume-compressor/internal/validation"
)

// EstimatorConfig maps the estimator section onto the default budgets
func EstimatorConfig(c config.EstimatorConfig) estimate.Config {
	cfg := estimate.DefaultConfig()
	cfg.CharsPerLine = c.CharsPerLine
	cfg.TargetTotalLines = c.TargetTotalLines
	cfg.HeaderLines = c.HeaderLines
	return cfg
}

// Policy maps the control section onto loop limits and pass thresholds
func Policy(c config.ControlConfig) control.Policy {
	p := control.DefaultPolicy()
	p.MaxIterations = c.MaxIterations
	p.PassScore = c.PassScore
	p.TwoPagePassScore = c.TwoPagePassScore
	p.TwoPageMinPressure = c.TwoPageMinPressure
	return p
}

// PressureConfig starts pressure at the configured value. An initial value
// below the default floor lowers the floor with it.
func PressureConfig(c config.ControlConfig) planning.PressureConfig {
	p := planning.DefaultPressureConfig()
	p.Initial = c.InitialPressure
	if c.InitialPressure < p.Floor {
		p.Floor = c.InitialPressure
	}
	return p
}

// LLMConfig maps the llm section onto the client configuration
func LLMConfig(c config.LLMConfig) *llm.Config {
	return &llm.Config{
		Models: map[llm.ModelTier]string{
			llm.TierLite:     c.Models.Lite,
			llm.TierStandard: c.Models.Standard,
			llm.TierAdvanced: c.Models.Advanced,
		},
		Temperature:       c.Temperature,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		Timeout:           c.Timeout,
		Breaker: llm.BreakerConfig{
			MaxRequests:  c.Breaker.MaxRequests,
			Interval:     c.Breaker.Interval,
			Timeout:      c.Breaker.Timeout,
			MinRequests:  c.Breaker.MinRequests,
			FailureRatio: c.Breaker.FailureRatio,
		},
	}
}

// CompilerConfig maps the compile section onto the pdflatex runner
func CompilerConfig(c config.CompileConfig) validation.CompilerConfig {
	return validation.CompilerConfig{
		Binary:        c.Binary,
		Timeout:       c.Timeout,
		WorkDir:       c.WorkDir,
		KeepArtifacts: c.KeepArtifacts,
	}
}
