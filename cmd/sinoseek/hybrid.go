// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/sinoseek/pkg/types"
)

var hybridCmd = &cobra.Command{
	Use:   "hybrid <query>",
	Short: "Combine search engines with direct Chinese site extraction",
	Long: `Hybrid runs two independent aggregations, one against the configured
search engines and one against direct Chinese platforms (zhihu, douban,
baidu zhidao), then merges both sets. Direct-site records get a business
value boost, and ranking favors Chinese content, premium domains, and
high-quality records.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runHybrid,
}

func init() {
	hybridCmd.Flags().Int("limit", 0, "maximum number of results (0 = profile default)")
	hybridCmd.Flags().Bool("sequential", false, "query sources one at a time instead of in parallel")
	hybridCmd.Flags().Bool("json", false, "output results as JSON")
	hybridCmd.Flags().String("save", "", "write the run to a YAML query file")

	rootCmd.AddCommand(hybridCmd)
}

func runHybrid(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")
	sequential, _ := cmd.Flags().GetBool("sequential")

	agent, cfg, err := newAgent(func(c *types.Config) {
		if sequential {
			c.Performance.Parallel = false
		}
	})
	if err != nil {
		return err
	}
	defer agent.Close()

	// The hybrid path runs two full aggregations back to back.
	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Performance.OverallTimeout)
	defer cancel()

	resp := agent.HybridAggregate(ctx, query, limit)
	return renderResponse(cmd, cfg, resp)
}
