package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"scout/analyst"
	"scout/streamers/cli"
)

var (
	chatConfigPath string
	chatScope      string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question-answering session",
	Long: `Chat runs an interactive REPL. Each question is answered against the data
warehouse; follow-up questions carry the conversation so far, with prior
figures summarized rather than replayed.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		a, err := newApp(ctx, chatConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		streamer := cli.NewChatHandler()
		engine, err := a.newEngine(streamer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		streamer.Welcome(a.apiModelName)

		var turns []analyst.StoredTurn
		for {
			input, err := streamer.AwaitClientAnswer()
			if err != nil {
				if err == io.EOF {
					streamer.Goodbye()
					break
				}
				streamer.Error(err)
				break
			}

			if input == "" {
				continue
			}

			if input == "exit" || input == "quit" {
				streamer.Goodbye()
				break
			}

			resp, err := engine.Answer(ctx, input, turns, chatScope)
			if err != nil {
				streamer.Error(err)
				continue
			}

			turns = append(turns,
				analyst.StoredTurn{Role: "user", Content: input},
				analyst.StoredTurn{Role: "assistant", Content: resp.Answer, ToolsUsed: toolNames(resp)},
			)
		}
	},
}

// toolNames collects the distinct tool names used in a session, in call order.
func toolNames(resp *analyst.SessionResponse) []string {
	seen := make(map[string]bool)
	var names []string
	for _, tc := range resp.Evidence.ToolTrace {
		if !seen[tc.Tool] {
			seen[tc.Tool] = true
			names = append(names, tc.Tool)
		}
	}
	return names
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatConfigPath, "config", "c", ".", "Path to config file or directory")
	chatCmd.Flags().StringVarP(&chatScope, "scope", "s", "", "Scope hint injected into eligible tool params")
}
