package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scout/analyst"
	"scout/streamers"
	"scout/wsbridge"
)

var (
	serveConfigPath string
	serveAddr       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the WebSocket bridge for the web UI",
	Long: `Start a long-running process hosting the WebSocket endpoint the web UI
connects to. Clients can ask questions, stream answer sessions in real time
and browse the session history.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, serveConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		// Each ask gets a fresh engine so session events stream to its own
		// connection.
		ask := func(ctx context.Context, question string, priorTurns []analyst.StoredTurn, scopeHint string, handler streamers.ChatHandler) (*analyst.SessionResponse, error) {
			engine, err := a.newEngine(handler)
			if err != nil {
				return nil, err
			}
			return engine.Answer(ctx, question, priorTurns, scopeHint)
		}

		server, err := wsbridge.NewServer(wsbridge.ServerOptions{
			Instance: wsbridge.DescribeInstance(a.cfg, a.catalog, Version),
			Ask:      ask,
			Stores:   a.stores,
			Logger:   a.logger.Named("wsbridge"),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Serving bridge on %s\n", serveAddr)
		if err := server.ListenAndServe(ctx, serveAddr); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("\nShutting down...")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", ".", "Path to config file or directory")
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8730", "Listen address for the bridge")
}
