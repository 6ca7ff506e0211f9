// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// PerformanceConfig holds settings for outbound request handling and caching.
type PerformanceConfig struct {
	// Timeout is the per-adapter HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// OverallTimeout bounds a whole aggregation call. Adapters still
	// in flight when it elapses are abandoned and the partial result
	// set is returned.
	OverallTimeout time.Duration `json:"overall_timeout" yaml:"overall_timeout" mapstructure:"overall_timeout"`

	// MaxConcurrent limits simultaneously in-flight adapter calls.
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent" mapstructure:"max_concurrent"`

	// Cooldown is the mandatory delay each adapter observes after a call
	// completes, before its gate slot is released.
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown" mapstructure:"cooldown"`

	// CacheTTL is how long a cached response stays fresh.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`

	// Parallel selects concurrent fan-out; when false adapters are
	// queried one at a time.
	Parallel bool `json:"parallel" yaml:"parallel" mapstructure:"parallel"`

	// UserAgent is sent with outbound requests when an adapter does not
	// rotate its own.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// BusinessConfig holds result selection and scoring settings.
type BusinessConfig struct {
	// MaxResults is the maximum number of results per query (default 25).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// PrioritySources names the adapters to use, highest priority first.
	// Empty means all registered adapters.
	PrioritySources []string `json:"priority_sources" yaml:"priority_sources" mapstructure:"priority_sources"`

	// QualityThreshold discards candidates whose content quality score
	// falls below it.
	QualityThreshold float64 `json:"quality_threshold" yaml:"quality_threshold" mapstructure:"quality_threshold"`

	// ChineseThreshold is the minimum Chinese ratio to flag content as Chinese.
	ChineseThreshold float64 `json:"chinese_threshold" yaml:"chinese_threshold" mapstructure:"chinese_threshold"`

	// PremiumBoost moves premium-origin results ahead of the rest after ranking.
	PremiumBoost bool `json:"premium_boost" yaml:"premium_boost" mapstructure:"premium_boost"`
}

// MonitoringConfig holds metrics and logging settings.
type MonitoringConfig struct {
	// Retention is the metrics rolling-buffer capacity (default 100).
	Retention int `json:"retention" yaml:"retention" mapstructure:"retention"`

	// LogLevel is the zap level name (debug, info, warn, error).
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	// LogFormat is "console" or "json".
	LogFormat string `json:"log_format" yaml:"log_format" mapstructure:"log_format"`
}

// Config groups all settings for an agent.
type Config struct {
	Profile     string            `json:"profile" yaml:"profile" mapstructure:"profile"`
	Performance PerformanceConfig `json:"performance" yaml:"performance" mapstructure:"performance"`
	Business    BusinessConfig    `json:"business" yaml:"business" mapstructure:"business"`
	Monitoring  MonitoringConfig  `json:"monitoring" yaml:"monitoring" mapstructure:"monitoring"`
}

// DefaultConfig returns the named profile's defaults. Unknown profiles
// fall back to production.
func DefaultConfig(profile string) Config {
	cfg := Config{
		Profile: "production",
		Performance: PerformanceConfig{
			Timeout:        12 * time.Second,
			OverallTimeout: 45 * time.Second,
			MaxConcurrent:  6,
			Cooldown:       1 * time.Second,
			CacheTTL:       time.Hour,
			Parallel:       true,
			UserAgent:      "sinoseek/0.1",
		},
		Business: BusinessConfig{
			MaxResults:       25,
			PrioritySources:  []string{"startpage", "bing", "yandex"},
			QualityThreshold: 70,
			ChineseThreshold: 0.3,
			PremiumBoost:     true,
		},
		Monitoring: MonitoringConfig{
			Retention: 100,
			LogLevel:  "info",
			LogFormat: "console",
		},
	}

	switch profile {
	case "development":
		cfg.Profile = profile
		cfg.Performance.Timeout = 10 * time.Second
		cfg.Performance.MaxConcurrent = 2
		cfg.Performance.Cooldown = 2 * time.Second
		cfg.Performance.CacheTTL = 5 * time.Minute
		cfg.Business.MaxResults = 15
		cfg.Business.PrioritySources = []string{"bing", "yandex"}
		cfg.Business.QualityThreshold = 50
		cfg.Business.ChineseThreshold = 0.2
		cfg.Business.PremiumBoost = false
	case "high_performance":
		cfg.Profile = profile
		cfg.Performance.Timeout = 15 * time.Second
		cfg.Performance.MaxConcurrent = 10
		cfg.Performance.Cooldown = 500 * time.Millisecond
		cfg.Performance.CacheTTL = 2 * time.Hour
		cfg.Business.MaxResults = 50
		cfg.Business.QualityThreshold = 60
	}
	return cfg
}
