package markdown

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/quietpages/bookchat/internal/core/domain"
)

// DefaultMaxRunes is the default upper bound on chunk length.
const DefaultMaxRunes = 1200

// maxHeadingDepth is the deepest heading level markdown allows.
const maxHeadingDepth = 6

var atxHeadingRe = regexp.MustCompile(`^(#{1,6})[ \t]+(.+)$`)

// Chunker splits markdown documents into heading-scoped chunks.
type Chunker struct {
	maxRunes int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxRunes sets the maximum chunk length in runes.
func WithMaxRunes(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxRunes = n
		}
	}
}

// NewChunker creates a chunker with the given options.
func NewChunker(opts ...Option) *Chunker {
	c := &Chunker{maxRunes: DefaultMaxRunes}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChunkDocument splits one markdown document into chunks.
// Each chunk carries the path of headings above it and its zero-based
// position within the file. Chunks have no embedding yet.
func (c *Chunker) ChunkDocument(path, content string) []domain.Chunk {
	var (
		chunks   []domain.Chunk
		headings [maxHeadingDepth]string
		section  strings.Builder
		inFence  bool
	)

	flush := func() {
		text := StripMarkdown(section.String())
		section.Reset()
		if text == "" {
			return
		}
		headingPath := currentPath(headings[:])
		for _, piece := range c.split(text) {
			chunks = append(chunks, domain.Chunk{
				ID:          uuid.New().String(),
				FilePath:    path,
				HeadingPath: headingPath,
				ChunkIndex:  len(chunks),
				Text:        piece,
			})
		}
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}

		if !inFence {
			if m := atxHeadingRe.FindStringSubmatch(trimmed); m != nil {
				flush()
				level := len(m[1])
				headings[level-1] = cleanHeading(m[2])
				for i := level; i < maxHeadingDepth; i++ {
					headings[i] = ""
				}
				continue
			}
		}

		section.WriteString(line)
		section.WriteString("\n")
	}
	flush()

	return chunks
}

// currentPath returns the non-empty headings from outermost to innermost.
func currentPath(headings []string) []string {
	var path []string
	for _, h := range headings {
		if h != "" {
			path = append(path, h)
		}
	}
	return path
}

// split packs paragraphs into pieces of at most maxRunes runes.
// A single paragraph over the limit is broken at word boundaries.
func (c *Chunker) split(text string) []string {
	if utf8.RuneCountInString(text) <= c.maxRunes {
		return []string{text}
	}

	var (
		pieces  []string
		current strings.Builder
		size    int
	)
	emit := func() {
		if current.Len() > 0 {
			pieces = append(pieces, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		n := utf8.RuneCountInString(para)

		if n > c.maxRunes {
			emit()
			pieces = append(pieces, c.splitWords(para)...)
			continue
		}

		if size > 0 && size+2+n > c.maxRunes {
			emit()
		}
		if size > 0 {
			current.WriteString("\n\n")
			size += 2
		}
		current.WriteString(para)
		size += n
	}
	emit()

	return pieces
}

// splitWords breaks an oversized paragraph on whitespace.
// A single word longer than the limit is cut at the rune limit.
func (c *Chunker) splitWords(para string) []string {
	var (
		pieces  []string
		current []string
		size    int
	)
	for _, word := range strings.Fields(para) {
		for utf8.RuneCountInString(word) > c.maxRunes {
			if len(current) > 0 {
				pieces = append(pieces, strings.Join(current, " "))
				current, size = nil, 0
			}
			runes := []rune(word)
			pieces = append(pieces, string(runes[:c.maxRunes]))
			word = string(runes[c.maxRunes:])
		}

		n := utf8.RuneCountInString(word)
		if n == 0 {
			continue
		}
		if size > 0 && size+1+n > c.maxRunes {
			pieces = append(pieces, strings.Join(current, " "))
			current, size = nil, 0
		}
		if size > 0 {
			size++
		}
		current = append(current, word)
		size += n
	}
	if len(current) > 0 {
		pieces = append(pieces, strings.Join(current, " "))
	}
	return pieces
}
