// Package mcp provides an MCP (Model Context Protocol) server adapter for bookchat.
// It lets AI assistants ask the book questions and search its excerpts.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")

// errAssistantUnavailable replaces provider failures in tool results.
var errAssistantUnavailable = errors.New("the assistant could not answer right now, please try again")

// errSearchUnavailable replaces provider failures in search_book results.
var errSearchUnavailable = errors.New("the book could not be searched right now, please try again")
