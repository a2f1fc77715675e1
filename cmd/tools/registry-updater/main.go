// cmd/tools/registry-updater/main.go
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"caregiver-matching/internal/engines/basic"
	"caregiver-matching/internal/engines/externalranker"
	"caregiver-matching/internal/engines/fuzzy"
	"caregiver-matching/internal/engines/rulebased"
	"caregiver-matching/pkg/registry"

	"github.com/spf13/cobra"
)

// builtinEngines are the engines compiled into the gateway.
var builtinEngines = []string{rulebased.EngineName, basic.EngineName, fuzzy.EngineName, externalranker.EngineName}

var catalogPath string

var rootCmd = &cobra.Command{
	Use:          "registry-updater",
	Short:        "Maintain the engine catalog served by GET /engines",
	SilenceUsage: true,
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an engine descriptor",
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		d := registry.Descriptor{}
		d.Name, _ = flags.GetString("name")
		d.DisplayName, _ = flags.GetString("displayName")
		d.Description, _ = flags.GetString("description")
		d.Version, _ = flags.GetString("version")
		d.Policy, _ = flags.GetString("policy")
		d.External, _ = flags.GetBool("external")
		d.Tags, _ = flags.GetStringSlice("tags")

		cat, err := registry.LoadCatalog(catalogPath)
		if errors.Is(err, os.ErrNotExist) {
			cat, err = &registry.Catalog{Version: "1.0.0"}, nil
		}
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		if _, exists := cat.Lookup(d.Name); exists {
			return fmt.Errorf("engine %q already exists", d.Name)
		}
		cat.Engines = append(cat.Engines, d)
		if err := cat.Validate(); err != nil {
			return err
		}
		if err := registry.SaveCatalog(catalogPath, cat); err != nil {
			return err
		}
		fmt.Printf("Added engine: %s\n", d.Name)
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update one field of an engine descriptor",
	RunE: func(cmd *cobra.Command, _ []string) error {
		name, _ := cmd.Flags().GetString("name")
		field, _ := cmd.Flags().GetString("field")
		value, _ := cmd.Flags().GetString("value")

		cat, err := registry.LoadCatalog(catalogPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		if err := updateDescriptor(cat, name, field, value); err != nil {
			return err
		}
		if err := cat.Validate(); err != nil {
			return err
		}
		if err := registry.SaveCatalog(catalogPath, cat); err != nil {
			return err
		}
		fmt.Printf("Updated engine %s, field %s to %s\n", name, field, value)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog and that it describes every built-in engine",
	RunE: func(*cobra.Command, []string) error {
		cat, err := registry.LoadCatalog(catalogPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		if err := cat.Validate(); err != nil {
			return err
		}
		if missing := cat.Missing(builtinEngines); len(missing) > 0 {
			return fmt.Errorf("catalog lacks descriptors for: %s", strings.Join(missing, ", "))
		}
		fmt.Println("Catalog validation passed.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "path", "configs/engines.json", "path to the engine catalog")

	addCmd.Flags().String("name", "", "engine name as registered in the gateway")
	addCmd.Flags().String("displayName", "", "human readable name")
	addCmd.Flags().String("description", "", "description")
	addCmd.Flags().String("version", "1.0.0", "version")
	addCmd.Flags().String("policy", registry.PolicyFilter, "result policy: fill, filter or mirror")
	addCmd.Flags().Bool("external", false, "engine calls a remote service")
	addCmd.Flags().StringSlice("tags", nil, "comma separated tags")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("displayName")

	updateCmd.Flags().String("name", "", "engine to update")
	updateCmd.Flags().String("field", "", "displayName, description, version, policy, external or tags")
	updateCmd.Flags().String("value", "", "new value")
	_ = updateCmd.MarkFlagRequired("name")
	_ = updateCmd.MarkFlagRequired("field")

	rootCmd.AddCommand(addCmd, updateCmd, validateCmd)
}

func updateDescriptor(cat *registry.Catalog, name, field, value string) error {
	for i := range cat.Engines {
		d := &cat.Engines[i]
		if d.Name != name {
			continue
		}
		switch field {
		case "displayName":
			d.DisplayName = value
		case "description":
			d.Description = value
		case "version":
			d.Version = value
		case "policy":
			d.Policy = value
		case "external":
			external, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid external value: %w", err)
			}
			d.External = external
		case "tags":
			d.Tags = nil
			for _, tag := range strings.Split(value, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					d.Tags = append(d.Tags, tag)
				}
			}
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		return nil
	}
	return fmt.Errorf("engine %q not found", name)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
