// Package cli provides the bookchat command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/quietpages/bookchat/internal/core/ports/driven"
	"github.com/quietpages/bookchat/internal/core/ports/driving"
	"github.com/quietpages/bookchat/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// annotationSkipServices marks commands that run without the service graph.
const annotationSkipServices = "bookchat.skip-services"

// Options carries the global flags to the service factory.
type Options struct {
	// ConfigDir overrides ~/.bookchat.
	ConfigDir string

	// Verbose enables debug logging.
	Verbose bool
}

// Services is the set of ports the commands run against.
// Implementations may build the expensive parts lazily, so that commands
// like "settings show" never contact a provider.
type Services interface {
	// Settings returns the settings service.
	Settings() driving.SettingsService

	// Index returns the index builder.
	Index(ctx context.Context) (driving.IndexService, error)

	// Retrieval returns the retriever over the loaded index.
	Retrieval(ctx context.Context) (driving.RetrievalService, error)

	// Chat returns the chat orchestrator. The index is loaded before it returns.
	Chat(ctx context.Context) (driving.ChatService, error)

	// Transcripts returns the transcript store.
	Transcripts() (driven.TranscriptStore, error)

	// WatchPrompts reloads prompt files on change until ctx is cancelled.
	WatchPrompts(ctx context.Context) error

	// CheckEmbedding pings the configured embedding provider.
	CheckEmbedding(ctx context.Context) error

	// CheckLLM pings the configured LLM provider.
	CheckLLM(ctx context.Context) error

	// Close releases provider clients and the database.
	Close() error
}

// ServiceFactory builds the service graph from the global flags.
type ServiceFactory func(opts Options) (Services, error)

var (
	newServices ServiceFactory
	services    Services

	configDir string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "bookchat",
	Short: "Ask the book",
	Long: `bookchat answers questions about a book in a calm, grounded voice.

It indexes the book's markdown, retrieves the passages closest to each
question and asks a language model to reply from them. Replies are served
over HTTP, MCP or straight from the terminal.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.bookchat)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetServiceFactory registers the function that builds the service graph.
func SetServiceFactory(factory ServiceFactory) {
	newServices = factory
}

// Execute runs the root command and releases services on return.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[annotationSkipServices] == "true" || services != nil {
		return nil
	}
	if newServices == nil {
		return errors.New("services not configured")
	}

	svc, err := newServices(Options{ConfigDir: configDir, Verbose: verbose})
	if err != nil {
		return err
	}
	services = svc
	return nil
}

func closeServices() {
	if services == nil {
		return
	}
	if err := services.Close(); err != nil {
		logger.Warn("Closing services: %v", err)
	}
	services = nil
}
