package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quietpages/bookchat/internal/content/markdown"
	"github.com/quietpages/bookchat/internal/core/domain"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the chunk index",
	Long:  `Build and inspect the index of book passages used to ground replies.`,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build <dir>",
	Short: "Build the index from a directory of markdown",
	Long: `Reads every markdown file under dir, splits it into passages along its
headings, embeds each passage and replaces the stored index.

The embedding provider must be configured. Nothing is stored unless every
passage was embedded.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexBuild,
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the stored index",
	Args:  cobra.NoArgs,
	RunE:  runIndexInfo,
}

func init() {
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexInfoCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := args[0]

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("content directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	docs, err := markdown.LoadDir(os.DirFS(dir), ".")
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no markdown files found in %s", dir)
	}

	indexer, err := services.Index(ctx)
	if err != nil {
		return fmt.Errorf("index unavailable: %w", err)
	}

	cmd.Printf("Indexing %d documents...\n", len(docs))
	start := time.Now()
	stats, err := indexer.Build(ctx, docs)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	cmd.Printf("Indexed %d passages from %d documents in %s\n",
		stats.Chunks, stats.Documents, time.Since(start).Round(time.Millisecond))
	cmd.Printf("  Model: %s (%d dimensions)\n", stats.Model, stats.Dimensions)
	return nil
}

func runIndexInfo(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	indexer, err := services.Index(ctx)
	if err != nil {
		return fmt.Errorf("index unavailable: %w", err)
	}

	index, err := indexer.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Println("No index built yet.")
		cmd.Println("Run 'bookchat index build <dir>' to create one.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	files := make(map[string]int)
	for _, c := range index.Chunks() {
		files[c.FilePath]++
	}

	cmd.Println(headingStyle.Render("[Index]"))
	cmd.Printf("  Model: %s\n", index.Model())
	cmd.Printf("  Dimensions: %d\n", index.Dimensions())
	cmd.Printf("  Passages: %d\n", index.Len())
	cmd.Printf("  Files: %d\n", len(files))
	return nil
}
