// Package mcp provides an MCP (Model Context Protocol) server adapter for docrag.
// It lets AI assistants ask questions against a user's indexed documents and
// manage that user's index.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")

// ErrMissingIndexService is returned when the index service is not provided.
var ErrMissingIndexService = errors.New("mcp: index service is required")

// ErrMissingUser is returned when a tool call names no user.
var ErrMissingUser = errors.New("mcp: user_id is required")
