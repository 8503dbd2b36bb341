package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.Long = fmt.Sprintf(`Scout %s

Ask free-form questions about your operational data. Scout classifies each
question, retrieves the relevant records through data tools, and answers
with the evidence it used.

Get started:
  scout seed              Load the demo dataset
  scout verify <path>     Validate your configuration
  scout ask "question"    Ask a one-off question
  scout chat              Start an interactive session
  scout serve             Host the web UI bridge`, Version)
}
