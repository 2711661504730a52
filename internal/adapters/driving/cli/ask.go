package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/quietpages/bookchat/internal/core/domain"
	"github.com/quietpages/bookchat/internal/core/ports/driving"
)

var askSources bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the book a question",
	Long: `Ask the book a question and print the reply.

With a question argument, prints a single reply. Without one, starts a
conversation when stdin is a terminal, or reads one question from stdin
otherwise. Type "exit" to leave a conversation.

Examples:
  bookchat ask "What does the book say about waiting?"
  echo "Why begin with the breath?" | bookchat ask
  bookchat ask --sources`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "list the passages each reply drew on")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	chat, err := services.Chat(cmd.Context())
	if err != nil {
		return fmt.Errorf("chat unavailable: %w", err)
	}

	if len(args) == 1 {
		_, err := ask(cmd, chat, nil, args[0])
		return err
	}

	in := cmd.InOrStdin()
	if isTerminal(in) {
		return askInteractive(cmd, chat, in)
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading question: %w", err)
	}
	question := strings.TrimSpace(string(data))
	if question == "" {
		return errors.New("no question given")
	}
	_, err = ask(cmd, chat, nil, question)
	return err
}

// askInteractive runs a conversation until "exit" or end of input.
// A failed turn is reported and left out of the history.
func askInteractive(cmd *cobra.Command, chat driving.ChatService, in io.Reader) error {
	cmd.Println(headingStyle.Render("Ask the book.") + " " + mutedStyle.Render(`Type "exit" to leave.`))

	scanner := bufio.NewScanner(in)
	var history []domain.ChatMessage
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		reply, err := ask(cmd, chat, history, line)
		if err != nil {
			cmd.PrintErrln(warnStyle.Render(err.Error()))
			continue
		}
		history = append(history,
			domain.ChatMessage{Role: domain.RoleUser, Content: line},
			domain.ChatMessage{Role: domain.RoleAssistant, Content: reply.Text},
		)
		cmd.Println()
	}
}

func ask(
	cmd *cobra.Command,
	chat driving.ChatService,
	history []domain.ChatMessage,
	question string,
) (domain.ChatReply, error) {
	reply, err := chat.Reply(cmd.Context(), domain.ChatRequest{Messages: history, Message: question})
	if err != nil {
		return domain.ChatReply{}, describeChatError(err)
	}

	cmd.Println(reply.Text)
	if askSources {
		printSources(cmd, reply)
	}
	return reply, nil
}

func describeChatError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return errors.New("please ask a question")
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("the assistant took too long to reply: %w", err)
	default:
		return fmt.Errorf("no reply: %w", err)
	}
}

func printSources(cmd *cobra.Command, reply domain.ChatReply) {
	cmd.Println()
	if len(reply.Sources) == 0 {
		cmd.Println(mutedStyle.Render("No passages were used."))
		return
	}
	if reply.Weak {
		cmd.Println(warnStyle.Render("Sources (loosely related, not cited):"))
	} else {
		cmd.Println(headingStyle.Render("Sources:"))
	}
	for _, src := range reply.Sources {
		cmd.Printf("  %s, %s, excerpt %d %s\n",
			pathStyle.Render(src.FilePath),
			sectionLabel(src.HeadingPath),
			src.DisplayIndex,
			mutedStyle.Render(fmt.Sprintf("(%.2f)", src.Score)),
		)
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
