// cmd/tools/pool-importer/convert.go
package main

import (
	"github.com/spf13/cobra"
)

var outPath string

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert the CSV export into the JSON pool file read by the gateway",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := newLogger()

		pool, err := readPool(cmd.Context(), inPath, enrich)
		if err != nil {
			return err
		}
		if err := writePool(outPath, pool); err != nil {
			return err
		}

		log.Info("Pool written", map[string]interface{}{
			"in":       inPath,
			"out":      outPath,
			"size":     len(pool),
			"enriched": enrich,
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVarP(&outPath, "out", "o", "data/candidates.json", "JSON pool file to write")
}
