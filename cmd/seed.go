package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"scout/warehouse"
)

var seedPath string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo dataset into a SQLite warehouse",
	Long: `Seed creates (or refreshes) a SQLite warehouse populated with the demo
deals, accounts, contacts and conversations dataset, so Scout can be tried
without connecting real data.`,
	Run: func(cmd *cobra.Command, args []string) {
		if dir := filepath.Dir(seedPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		w, err := warehouse.NewSQLiteWarehouse(seedPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening warehouse: %v\n", err)
			os.Exit(1)
		}
		defer w.Close()

		if err := w.Seed(); err != nil {
			fmt.Fprintf(os.Stderr, "Error seeding warehouse: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Demo dataset loaded into %s\n", seedPath)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVarP(&seedPath, "path", "p", ".scout/warehouse.db", "SQLite warehouse file path")
}
