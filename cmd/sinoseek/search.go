// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/sinoseek/internal/aggregate"
	"github.com/pdiddy/sinoseek/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Aggregate results from the configured search engines",
	Long: `Search fans the query out to the configured search engines (startpage,
bing, yandex by default), scores each record for Chinese-content density and
business value, deduplicates, and prints the ranked result set. Repeated
queries within the cache TTL are answered from cache.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("limit", 0, "maximum number of results (0 = profile default)")
	searchCmd.Flags().Bool("sequential", false, "query sources one at a time instead of in parallel")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	searchCmd.Flags().String("save", "", "write the run to a YAML query file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Performance.OverallTimeout)
	defer cancel()

	resp := agent.Aggregate(ctx, query, limit)
	return renderResponse(cmd, cfg, resp)
}

func renderResponse(cmd *cobra.Command, cfg types.Config, resp types.Response) error {
	if save, _ := cmd.Flags().GetString("save"); save != "" {
		if err := aggregate.WriteQueryFile(save, cfg, resp); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Saved query file:", save)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if !resp.Success {
		fmt.Printf("No results: %s\n", resp.ErrorReason)
		for _, s := range resp.FallbackSuggestions {
			fmt.Println("  -", s)
		}
		return nil
	}

	fmt.Printf("%d results (%d Chinese, %d premium) from %s in %.2fs\n\n",
		resp.TotalResults, resp.ChineseResults, resp.PremiumResults,
		strings.Join(resp.SourcesUsed, ", "), resp.Performance.DurationSeconds)

	for i, r := range resp.Results {
		marks := ""
		if r.IsPremium {
			marks += " [premium]"
		}
		if r.FromDirectSite {
			marks += " [direct]"
		}
		fmt.Printf("%2d. %s%s\n", i+1, r.Title, marks)
		fmt.Printf("    %s\n", r.URL)
		fmt.Printf("    source=%s business=%.0f quality=%.0f chinese=%.2f\n",
			r.Source, r.BusinessValueScore, r.ContentQualityScore, r.ChineseRatio)
		if r.Description != "" {
			fmt.Printf("    %s\n", truncate(r.Description, 120))
		}
		fmt.Println()
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
