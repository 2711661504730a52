package markdown

import (
	"regexp"
	"strings"
)

var (
	codeBlockRe    = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe   = regexp.MustCompile("`([^`]+)`")
	imageRe        = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe         = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	headingRe      = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	boldRe         = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	italicStarRe   = regexp.MustCompile(`\*([^*\n]+)\*`)
	italicUnderRe  = regexp.MustCompile(`(^|[\s(])_([^_\n]+)_([\s).,;:!?]|$)`)
	blockquoteRe   = regexp.MustCompile(`(?m)^>[ \t]?`)
	hrRe           = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	listMarkerRe   = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	numberedListRe = regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`)
	htmlTagRe      = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	trailingWSRe   = regexp.MustCompile(`(?m)[ \t]+$`)
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown removes markdown formatting and leaves readable prose.
// Paragraph breaks are kept as blank lines.
func StripMarkdown(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	content = codeBlockRe.ReplaceAllString(content, "")
	content = imageRe.ReplaceAllString(content, "")
	content = linkRe.ReplaceAllString(content, "$1")
	content = inlineCodeRe.ReplaceAllString(content, "$1")
	content = htmlTagRe.ReplaceAllString(content, "")

	content = hrRe.ReplaceAllString(content, "")
	content = headingRe.ReplaceAllString(content, "")
	content = blockquoteRe.ReplaceAllString(content, "")
	content = listMarkerRe.ReplaceAllString(content, "")
	content = numberedListRe.ReplaceAllString(content, "")

	content = boldRe.ReplaceAllString(content, "$2")
	content = italicStarRe.ReplaceAllString(content, "$1")
	content = italicUnderRe.ReplaceAllString(content, "$1$2$3")

	content = trailingWSRe.ReplaceAllString(content, "")
	content = multiNewlineRe.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}

// cleanHeading strips inline formatting and closing hashes from a heading title.
func cleanHeading(title string) string {
	title = strings.TrimSpace(title)
	title = strings.TrimSpace(strings.TrimRight(title, "#"))
	return strings.TrimSpace(StripMarkdown(title))
}
