package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quietpages/bookchat/internal/adapters/driving/httpapi"
	"github.com/quietpages/bookchat/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat HTTP server",
	Long: `Start the HTTP server answering POST /api/chat.

The chunk index is loaded before the listener opens and shared read-only by
every request. Prompt files are reloaded when they change on disk.

Examples:
  bookchat serve
  bookchat serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	settings, err := services.Settings().Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	chat, err := services.Chat(ctx)
	if err != nil {
		return fmt.Errorf("chat unavailable: %w", err)
	}

	var opts []httpapi.Option
	if settings.Server.RecordTranscripts {
		store, err := services.Transcripts()
		if err != nil {
			return fmt.Errorf("transcripts unavailable: %w", err)
		}
		opts = append(opts, httpapi.WithTranscripts(store))
	}

	go func() {
		if err := services.WatchPrompts(ctx); err != nil {
			logger.Notice("Prompt reload disabled: %v", err)
		}
	}()

	addr := serveAddr
	if addr == "" {
		addr = settings.Server.Addr
	}

	cmd.Printf("Listening on %s\n", addr)
	return httpapi.NewServer(chat, opts...).Run(ctx, addr)
}
