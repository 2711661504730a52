package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quietpages/bookchat/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

const defaultSearchLimit = 5

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the book for passages",
	Long: `Ranks every indexed passage by semantic similarity to the query and
prints the closest ones. No language model is involved.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", defaultSearchLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchHit is the JSON form of one ranked passage.
type searchHit struct {
	FilePath string   `json:"file_path"`
	Section  []string `json:"section,omitempty"`
	Chunk    int      `json:"chunk"`
	Score    float64  `json:"score"`
	Text     string   `json:"text"`
}

type searchOutput struct {
	TopScore float64     `json:"top_score"`
	Weak     bool        `json:"weak"`
	Results  []searchHit `json:"results"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	retrieval, err := services.Retrieval(ctx)
	if err != nil {
		return fmt.Errorf("search unavailable: %w", err)
	}

	result, err := retrieval.Retrieve(ctx, args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, result)
	}
	outputSearchTable(cmd, result)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, result domain.RetrievalResult) error {
	out := searchOutput{
		TopScore: result.TopScore,
		Weak:     result.Weak,
		Results:  make([]searchHit, 0, len(result.Chunks)),
	}
	for i, c := range result.Chunks {
		hit := searchHit{
			FilePath: c.FilePath,
			Section:  c.HeadingPath,
			Chunk:    c.DisplayIndex(),
			Text:     c.Text,
		}
		if i < len(result.Scores) {
			hit.Score = result.Scores[i]
		}
		out.Results = append(out.Results, hit)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, result domain.RetrievalResult) {
	if result.Empty() {
		cmd.Println("No results found.")
		return
	}

	cmd.Println(headingStyle.Render("Results:"))
	cmd.Println()
	for i, c := range result.Chunks {
		score := 0.0
		if i < len(result.Scores) {
			score = result.Scores[i]
		}
		// Format: [N] path (score)
		cmd.Printf("  [%d] %s %s\n", i+1, pathStyle.Render(c.FilePath), mutedStyle.Render(fmt.Sprintf("(%.2f)", score)))
		cmd.Printf("      %s, excerpt %d\n", sectionLabel(c.HeadingPath), c.DisplayIndex())
		cmd.Printf("      %s\n", snippet(c.Text, snippetRunes))
		cmd.Println()
	}

	if result.Weak {
		cmd.Println(warnStyle.Render("These passages are only loosely related to the query."))
	}
}
