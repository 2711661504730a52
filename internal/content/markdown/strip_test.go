package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "heading", input: "# Title\n\nBody", expected: "Title\n\nBody"},
		{name: "bold", input: "a **strong** word", expected: "a strong word"},
		{name: "italic star", input: "an *open* door", expected: "an open door"},
		{name: "italic underscore", input: "an _open_ door", expected: "an open door"},
		{name: "snake case kept", input: "keep snake_case here", expected: "keep snake_case here"},
		{name: "link", input: "see [the garden](http://example.com)", expected: "see the garden"},
		{name: "image", input: "before ![alt](img.png) after", expected: "before  after"},
		{name: "inline code", input: "run `breathe` slowly", expected: "run breathe slowly"},
		{name: "code block", input: "text\n\n```\ncode\n```\n\nmore", expected: "text\n\nmore"},
		{name: "blockquote", input: "> quiet words", expected: "quiet words"},
		{name: "list", input: "- one\n- two", expected: "one\ntwo"},
		{name: "numbered list", input: "1. one\n2. two", expected: "one\ntwo"},
		{name: "horizontal rule", input: "above\n\n---\n\nbelow", expected: "above\n\nbelow"},
		{name: "html", input: "<em>soft</em> light", expected: "soft light"},
		{name: "paragraphs kept", input: "one\n\ntwo", expected: "one\n\ntwo"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripMarkdown(tt.input))
		})
	}
}

func TestCleanHeading(t *testing.T) {
	assert.Equal(t, "Stillness", cleanHeading("  Stillness  "))
	assert.Equal(t, "Closing", cleanHeading("Closing ##"))
	assert.Equal(t, "The Way In", cleanHeading("The *Way* In"))
}
