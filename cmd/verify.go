package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scout/config"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Verify that the configuration is valid",
	Long:  `Verify parses and validates the HCL configuration files. Path can be a file or directory.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configPath := args[0]
		cfg, err := config.LoadAndValidate(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		// Check for unset variables
		var warnings []string
		for _, v := range cfg.Variables {
			resolved, _ := config.ResolveVariableValue(&v)
			if resolved == "" && v.Default == "" {
				warnings = append(warnings, fmt.Sprintf("variable '%s' has no default and no value set", v.Name))
			}
		}

		fmt.Printf("Configuration is valid!\n")
		fmt.Printf("Found %d model(s)\n", len(cfg.Models))
		for _, m := range cfg.Models {
			fmt.Printf("  - %s (provider: %s, models: %v)\n", m.Name, m.Provider, m.AllowedModels)
		}
		fmt.Printf("Found %d variable(s)\n", len(cfg.Variables))
		for _, v := range cfg.Variables {
			resolved, _ := config.ResolveVariableValue(&v)
			if v.Secret {
				if resolved != "" {
					fmt.Printf("  - %s (secret, set)\n", v.Name)
				} else {
					fmt.Printf("  - %s (secret, not set)\n", v.Name)
				}
			} else {
				fmt.Printf("  - %s = %q\n", v.Name, resolved)
			}
		}

		if cfg.Analyst != nil {
			fmt.Printf("Analyst:\n")
			fmt.Printf("  - model: %s\n", cfg.Analyst.Model)
			if cfg.Analyst.ClassifierModel != cfg.Analyst.Model {
				fmt.Printf("  - classifier_model: %s\n", cfg.Analyst.ClassifierModel)
			}
			fmt.Printf("  - max_iterations: %d\n", cfg.Analyst.MaxIterations)
			fmt.Printf("  - scope_params: %v\n", cfg.Analyst.ScopeParams)
		} else {
			warnings = append(warnings, "no analyst block; ask/chat/serve will not run")
		}

		if cfg.Warehouse != nil {
			if cfg.Warehouse.Backend == "postgres" {
				fmt.Printf("Warehouse: postgres\n")
			} else {
				fmt.Printf("Warehouse: sqlite (%s)\n", cfg.Warehouse.Path)
			}
		}
		if cfg.Storage != nil {
			fmt.Printf("Storage: %s\n", cfg.Storage.Backend)
		}

		fmt.Printf("Found %d plugin(s)\n", len(cfg.Plugins))
		for _, p := range cfg.Plugins {
			loaded := "loaded"
			if _, ok := cfg.LoadedPlugins[p.Name]; !ok {
				loaded = "NOT LOADED"
			}
			fmt.Printf("  - %s (source: %s, version: %s, %s)\n", p.Name, p.Source, p.Version, loaded)
		}

		// Add plugin warnings to the warnings list
		warnings = append(warnings, cfg.PluginWarnings...)

		if len(warnings) > 0 {
			fmt.Printf("\nWarnings:\n")
			for _, w := range warnings {
				fmt.Printf("  - %s\n", w)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
