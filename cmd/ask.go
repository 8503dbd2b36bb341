package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scout/config"
	"scout/streamers/cli"
)

var (
	askConfigPath string
	askScope      string
	askShowCost   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question about your data",
	Long: `Ask runs one answer session: the question is classified, data tools are
called as needed, and the grounded answer is printed with its evidence.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		question := args[0]
		ctx := context.Background()

		a, err := newApp(ctx, askConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		handler := cli.NewChatHandler()
		engine, err := a.newEngine(handler)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		resp, err := engine.Answer(ctx, question, nil, askScope)
		if err != nil {
			handler.Error(err)
			os.Exit(1)
		}

		if askShowCost {
			cost := config.CalculateCost(a.apiModelName, resp.Usage.InputTokens, resp.Usage.OutputTokens)
			fmt.Printf("Estimated cost: $%.4f (%d in / %d out tokens)\n",
				cost, resp.Usage.InputTokens, resp.Usage.OutputTokens)
		}
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askConfigPath, "config", "c", ".", "Path to config file or directory")
	askCmd.Flags().StringVarP(&askScope, "scope", "s", "", "Scope hint injected into eligible tool params (e.g. a segment)")
	askCmd.Flags().BoolVar(&askShowCost, "cost", false, "Print the estimated model cost after the answer")
}
