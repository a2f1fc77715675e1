// cmd/tools/pool-importer/root.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"caregiver-matching/internal/candidates"
	"caregiver-matching/internal/common/logger"
	"caregiver-matching/internal/models"

	"github.com/spf13/cobra"
)

const app = "pool-importer"

var (
	inPath  string
	enrich  bool
	verbose bool

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "pool-importer turns the caregiver CSV export into a matching candidate pool",
		SilenceUsage:  true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&inPath, "in", "i", "", "caregiver CSV export (required)")
	rootCmd.PersistentFlags().BoolVar(&enrich, "enrich", false, "derive missing rating and review counts from the caregiver id")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "debug", "d", false, "verbose output")
	_ = rootCmd.MarkPersistentFlagRequired("in")
}

func newLogger() logger.Logger {
	level := "info"
	if verbose {
		level = "debug"
	}
	return logger.NewStructured(level, "console")
}

// readPool loads and normalizes the export, optionally filling reputation fields.
func readPool(ctx context.Context, path string, withReputation bool) ([]models.Candidate, error) {
	pool, err := candidates.NewCSVLoader(path).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if withReputation {
		for i := range pool {
			candidates.EnrichReputation(&pool[i])
		}
	}
	return pool, nil
}

// writePool writes the pool as an indented JSON array, creating parent directories.
func writePool(path string, pool []models.Candidate) error {
	data, err := json.MarshalIndent(pool, "", "  ")
	if err != nil {
		return fmt.Errorf("encode pool: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
