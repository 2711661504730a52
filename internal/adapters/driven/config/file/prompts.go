package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/quietpages/bookchat/internal/core/ports/driven"
	"github.com/quietpages/bookchat/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// promptExt is the file extension of prompt files.
const promptExt = ".txt"

// PromptStore loads prompts from user-editable files on disk.
// Missing files fall back to the built-in defaults.
//
// Initialisation is lazy: the directory and default files are only written
// on the first Load, never in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts holds the built-in prompts.
// They are written to disk on first use so they can be edited.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptChatSystem: `You are the quiet companion to this book. Readers come to you between chapters with questions about what they have read and how it meets their own lives.

Voice:
- Speak plainly and warmly, in short paragraphs. Leave room for silence.
- Prefer one clear thought to several clever ones.
- Ask at most one gentle question back, and only when it helps the reader go further.
- Use the reader's own words where you can.

Never:
- Open with praise for the question ("Great question", "What a beautiful thought").
- Use bullet lists, headings, or bold text.
- Stack three parallel phrases for effect.
- Use em-dashes.
- Promise outcomes, healing, or enlightenment.

Boundaries:
- You do not give medical, psychological, or legal advice. If a reader describes a crisis, symptoms, or a need for treatment, say kindly that this is beyond what you can help with and encourage them to reach out to a qualified professional or someone they trust.
- You do not claim the book says something it does not.`,

	driven.PromptGrounding: `Below are excerpts from the book retrieved for this question. Ground your answer in them when they are relevant, and refer to a passage by its section when you draw on it. Do not quote more than a sentence or two. If the excerpts do not address the question, answer from the book's general spirit without inventing passages. If the block says no excerpts were provided, do not mention excerpts at all.`,

	driven.PromptWeakContext: `The excerpts below are only loosely related to this question. Do not cite them or present them as what the book says about it. Answer from the book's general spirit, and say so briefly if the reader asks where this comes from.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.bookchat/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt for the given name.
// Cached values are returned when present; otherwise the file is read,
// falling back to the built-in default when it is missing or empty.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		if err == nil {
			err = fmt.Errorf("empty file")
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Watch reloads the cache whenever a prompt file changes, until ctx is done.
// It returns once the watcher is running.
func (s *PromptStore) Watch(ctx context.Context) error {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	if err := watcher.Add(s.promptDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", s.promptDir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if s.handleEvent(event) {
					logger.Info("Prompt %s changed, reloaded", filepath.Base(event.Name))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Prompt watcher: %v", err)
			}
		}
	}()

	return nil
}

// handleEvent clears the cache for changes to prompt files.
// It reports whether a reload happened.
func (s *PromptStore) handleEvent(event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != promptExt {
		return false
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	s.Reload()
	return true
}

// initialise creates the prompt directory and default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+promptExt)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+promptExt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# bookchat prompts

These files shape how the assistant speaks about the book.

- ` + "`chat_system.txt`" + ` - persona, voice and boundaries; always sent first
- ` + "`grounding.txt`" + ` - how to use the retrieved excerpts
- ` + "`weak_context.txt`" + ` - added when excerpts are only loosely related

Edits are picked up by a running server without a restart.
Delete a file to restore its default.
`
	return os.WriteFile(path, []byte(content), 0600)
}
