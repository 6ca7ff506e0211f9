// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/sinoseek/internal/metrics"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics <query>...",
	Short: "Run a query batch and report collector metrics",
	Long: `Metrics runs each query through the aggregation pipeline, then prints
the collector's health summary: success rate, response-time tiers, cache
effectiveness, per-source reliability, and any threshold alerts. Repeat a
query in the batch to exercise the cache path.

Use --format json or --format csv to export the full sample history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().String("format", "", "export format (json, csv); default is a text summary")
	metricsCmd.Flags().Bool("hybrid", false, "run the batch through the hybrid path")

	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	useHybrid, _ := cmd.Flags().GetBool("hybrid")

	agent, cfg, err := newAgent()
	if err != nil {
		return err
	}
	defer agent.Close()

	for _, query := range args {
		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Performance.OverallTimeout)
		if useHybrid {
			agent.HybridAggregate(ctx, query, 0)
		} else {
			agent.Aggregate(ctx, query, 0)
		}
		cancel()
	}

	format, _ := cmd.Flags().GetString("format")
	switch strings.ToLower(format) {
	case "json":
		data, err := agent.Metrics().ExportJSON()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	case "csv":
		data, err := agent.Metrics().ExportCSV()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	case "":
		printSummary(agent.Metrics())
		return nil
	default:
		return fmt.Errorf("unsupported format %q (want json or csv)", format)
	}
}

func printSummary(c *metrics.Collector) {
	sum := c.Summary()
	fmt.Printf("status: %s\n", sum.Status)
	fmt.Printf("searches: %d  success rate: %.0f%%  cache hit rate: %.0f%%\n",
		sum.TotalSearches, sum.SuccessRate*100, sum.CacheHitRate*100)
	fmt.Printf("avg response: %.2fs  avg results/query: %.1f  chinese content: %.0f%%\n",
		sum.AvgResponseTime, sum.AvgResultsPerQuery, sum.ChineseContentRate*100)
	fmt.Printf("avg business value: %.1f  avg quality: %.1f\n",
		sum.AvgBusinessValue, sum.AvgQualityScore)

	if len(sum.TierDistribution) > 0 {
		tiers := make([]string, 0, len(sum.TierDistribution))
		for tier := range sum.TierDistribution {
			tiers = append(tiers, tier)
		}
		sort.Strings(tiers)
		parts := make([]string, 0, len(tiers))
		for _, tier := range tiers {
			parts = append(parts, fmt.Sprintf("%s=%.0f%%", tier, sum.TierDistribution[tier]*100))
		}
		fmt.Println("tiers:", strings.Join(parts, " "))
	}

	if len(sum.Sources) > 0 {
		fmt.Println("\nsources:")
		for _, name := range c.SortedSourceNames() {
			s := sum.Sources[name]
			fmt.Printf("  %-14s requests=%d success=%.0f%% results~%d reliability=%s\n",
				name, s.Requests, s.SuccessRate*100, s.TotalResults, s.Reliability)
		}
	}

	for _, a := range sum.Alerts {
		fmt.Printf("\nALERT [%s/%s] %s\n  %s\n", a.Type, a.Severity, a.Message, a.Recommendation)
	}
}
