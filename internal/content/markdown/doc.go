// Package markdown turns the book's markdown files into retrievable chunks.
//
// Documents are split on headings so every chunk knows the section it sits
// in (h1 > h2 > h3). Sections longer than the configured size are split
// again on paragraph boundaries.
package markdown
