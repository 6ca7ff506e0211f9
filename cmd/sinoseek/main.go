// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the sinoseek CLI: parallel
// content aggregation from international search engines and direct
// Chinese sites, ranked for Chinese-market business research.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/sinoseek/internal/config"
	"github.com/pdiddy/sinoseek/internal/hybrid"
	"github.com/pdiddy/sinoseek/internal/secrets"
	"github.com/pdiddy/sinoseek/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds per-site credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the sinoseek CLI.
var rootCmd = &cobra.Command{
	Use:   "sinoseek",
	Short: "Chinese-market content aggregation for business research",
	Long: `sinoseek fans a query out to international search engines and direct
Chinese platforms (zhihu, douban, baidu zhidao) in parallel, scores every
record for Chinese-content density and business value, and merges the best
of both into one ranked result set.

Use search for the engine-only path, hybrid to combine engines with direct
site extraction, and metrics to benchmark a query batch.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./sinoseek.yaml)")
	rootCmd.PersistentFlags().String("profile", "production", "configuration profile (development, production, high_performance)")
}

// loadConfig resolves the configuration from the persistent flags and
// installs the global logger.
func loadConfig() (types.Config, *zap.Logger, error) {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	profile, _ := rootCmd.PersistentFlags().GetString("profile")

	cfg, err := config.Load(cfgFile, profile)
	if err != nil {
		return types.Config{}, nil, err
	}
	logger, err := config.InitLogger(cfg.Monitoring)
	if err != nil {
		return types.Config{}, nil, err
	}
	return cfg, logger, nil
}

// newAgent builds the aggregation agent for a command invocation.
// Overrides adjust the resolved configuration before the agent is
// constructed, for command flags that shadow config keys.
func newAgent(overrides ...func(*types.Config)) (*hybrid.Agent, types.Config, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, types.Config{}, err
	}
	for _, o := range overrides {
		o(&cfg)
	}
	creds := hybrid.Credentials{
		ZhihuCookie:  secrets.Get(loadedSecrets, secrets.ZhihuCookie),
		DoubanCookie: secrets.Get(loadedSecrets, secrets.DoubanCookie),
		ProxyURL:     secrets.Get(loadedSecrets, secrets.ProxyURL),
	}
	return hybrid.New(cfg, logger, creds), cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
