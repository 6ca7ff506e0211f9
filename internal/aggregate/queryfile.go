// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/sinoseek/pkg/types"
)

// QueryFile is the on-disk form of one aggregation run. An operator can
// save a run to a file and inspect or reload it later without
// re-querying any source.
type QueryFile struct {
	Query   string          `yaml:"query"`
	Config  QueryFileConfig `yaml:"config"`
	Results []types.Result  `yaml:"results"`
	Summary QuerySummary    `yaml:"summary"`
}

// QueryFileConfig stores the settings that produced the results.
type QueryFileConfig struct {
	Profile    string `yaml:"profile"`
	MaxResults int    `yaml:"max_results"`
	Parallel   bool   `yaml:"parallel"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total           int       `yaml:"total"`
	ChineseResults  int       `yaml:"chinese_results"`
	PremiumResults  int       `yaml:"premium_results"`
	SourcesUsed     []string  `yaml:"sources_used,omitempty"`
	DurationSeconds float64   `yaml:"duration_seconds"`
	Timestamp       time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves a response and the settings behind it as YAML.
func WriteQueryFile(path string, cfg types.Config, resp types.Response) error {
	qf := QueryFile{
		Query: resp.Query,
		Config: QueryFileConfig{
			Profile:    cfg.Profile,
			MaxResults: cfg.Business.MaxResults,
			Parallel:   resp.Performance.Parallel,
		},
		Results: resp.Results,
		Summary: QuerySummary{
			Total:           resp.TotalResults,
			ChineseResults:  resp.ChineseResults,
			PremiumResults:  resp.PremiumResults,
			SourcesUsed:     resp.SourcesUsed,
			DurationSeconds: resp.Performance.DurationSeconds,
			Timestamp:       time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing query file: %w", err)
	}
	return nil
}

// ReadQueryFile loads a previously saved run.
func ReadQueryFile(path string) (QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return QueryFile{}, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return QueryFile{}, fmt.Errorf("parsing query file: %w", err)
	}
	return qf, nil
}
