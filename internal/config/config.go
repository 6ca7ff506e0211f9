// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves the runtime configuration. Values layer in
// order: profile defaults, then an optional YAML config file, then
// SINOSEEK_* environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/sinoseek/pkg/types"
)

// Load resolves the configuration for a profile. cfgFile may be empty;
// the default search path is ./sinoseek.yaml. Unknown profiles resolve
// to production defaults.
func Load(cfgFile, profile string) (types.Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("sinoseek")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SINOSEEK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := types.DefaultConfig(profile)
	v.SetDefault("profile", defaults.Profile)
	v.SetDefault("performance.timeout", defaults.Performance.Timeout)
	v.SetDefault("performance.overall_timeout", defaults.Performance.OverallTimeout)
	v.SetDefault("performance.max_concurrent", defaults.Performance.MaxConcurrent)
	v.SetDefault("performance.cooldown", defaults.Performance.Cooldown)
	v.SetDefault("performance.cache_ttl", defaults.Performance.CacheTTL)
	v.SetDefault("performance.parallel", defaults.Performance.Parallel)
	v.SetDefault("performance.user_agent", defaults.Performance.UserAgent)
	v.SetDefault("business.max_results", defaults.Business.MaxResults)
	v.SetDefault("business.priority_sources", defaults.Business.PrioritySources)
	v.SetDefault("business.quality_threshold", defaults.Business.QualityThreshold)
	v.SetDefault("business.chinese_threshold", defaults.Business.ChineseThreshold)
	v.SetDefault("business.premium_boost", defaults.Business.PremiumBoost)
	v.SetDefault("monitoring.retention", defaults.Monitoring.Retention)
	v.SetDefault("monitoring.log_level", defaults.Monitoring.LogLevel)
	v.SetDefault("monitoring.log_format", defaults.Monitoring.LogFormat)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return types.Config{}, eris.Wrap(err, "config: read file")
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, eris.Wrap(err, "config: unmarshal")
	}
	return cfg, nil
}

// InitLogger builds a zap logger from the monitoring settings and
// installs it as the global logger.
func InitLogger(cfg types.MonitoringConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
