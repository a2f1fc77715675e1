// cmd/tools/pool-importer/load.go
package main

import (
	"encoding/json"
	"fmt"
	"time"

	"caregiver-matching/internal/candidates"
	"caregiver-matching/internal/common/broker"
	"caregiver-matching/internal/common/config"
	"caregiver-matching/internal/common/database"

	"github.com/spf13/cobra"
)

var (
	configPath string
	notify     bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Upsert the CSV export into the Postgres candidates table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := newLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		pool, err := readPool(cmd.Context(), inPath, enrich)
		if err != nil {
			return err
		}

		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		defer pg.Close()

		store, err := candidates.NewPostgresLoader(pg, cfg.Candidates.Table)
		if err != nil {
			return err
		}
		n, err := store.Store(cmd.Context(), pool)
		if err != nil {
			return fmt.Errorf("store candidates: %w", err)
		}
		log.Info("Candidates stored", map[string]interface{}{"table": cfg.Candidates.Table, "rows": n})

		if !notify {
			return nil
		}
		if cfg.Broker.URL == "" {
			log.Warn("No broker configured, gateways were not notified", nil)
			return nil
		}

		nc, err := broker.NewNATS(cfg.Broker)
		if err != nil {
			return err
		}
		defer nc.Close()

		payload, _ := json.Marshal(map[string]interface{}{
			"source": app,
			"rows":   n,
			"at":     time.Now().UTC().Format(time.RFC3339),
		})
		if err := nc.Publish(cfg.Candidates.RefreshSubject, payload); err != nil {
			return err
		}
		log.Info("Refresh requested", map[string]interface{}{"subject": cfg.Candidates.RefreshSubject})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default: configs/config.yaml lookup)")
	loadCmd.Flags().BoolVar(&notify, "notify", false, "publish a pool refresh request after loading")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}
