package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/logger"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	UserID string `json:"user_id" jsonschema:"the user whose documents are searched"`
	Query  string `json:"query" jsonschema:"the question to answer"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer         string         `json:"answer"`
	Sources        []SourceOutput `json:"sources"`
	ProcessingTime float64        `json:"processing_time"`
}

// SourceOutput is one document cited by an answer.
type SourceOutput struct {
	DocumentID      string  `json:"document_id"`
	Filename        string  `json:"filename"`
	SimilarityScore float64 `json:"similarity_score"`
	Summary         string  `json:"summary"`
}

// RebuildInput is the input schema for the rebuild_index tool.
type RebuildInput struct {
	UserID string `json:"user_id" jsonschema:"the user whose index is rebuilt"`
	Force  bool   `json:"force,omitempty" jsonschema:"rebuild from stored embeddings without embedding new documents"`
}

// RebuildOutput is the output schema for the rebuild_index tool.
type RebuildOutput struct {
	UserID            string  `json:"user_id"`
	DocumentsEmbedded int     `json:"documents_embedded"`
	EmbedFailures     int     `json:"embed_failures"`
	SkippedNoSummary  int     `json:"skipped_no_summary"`
	SkippedMalformed  int     `json:"skipped_malformed"`
	TotalIndexed      int     `json:"total_indexed"`
	Dimensions        int     `json:"dimensions"`
	TotalDocuments    int     `json:"total_documents"`
	LastIndexedAt     string  `json:"last_indexed_at"`
	DurationSeconds   float64 `json:"duration_seconds"`
}

// StatusInput is the input schema for the index_status tool.
type StatusInput struct {
	UserID string `json:"user_id" jsonschema:"the user whose index is inspected"`
}

// StatusOutput is the output schema for the index_status tool.
type StatusOutput struct {
	UserID            string `json:"user_id"`
	HasIndex          bool   `json:"has_index"`
	TotalDocuments    int    `json:"total_documents"`
	EmbeddedDocuments int    `json:"embedded_documents"`
	IndexedDocuments  int    `json:"indexed_documents"`
	LastIndexed       string `json:"last_indexed"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from a user's indexed documents, citing the documents used",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rebuild_index",
		Description: "Embed a user's new documents and rebuild their similarity index",
	}, s.handleRebuild)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report whether a user has an index and how many documents are embedded",
	}, s.handleStatus)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, AskOutput{}, ErrMissingUser
	}

	if s.ports.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.ports.QueryTimeout)
		defer cancel()
	}

	resp, err := s.ports.Query.ProcessQuery(ctx, userID, input.Query)
	if err != nil {
		logger.Error("ask failed: %v %s", err, logger.Fields("user", userID))
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:         resp.Answer,
		Sources:        make([]SourceOutput, len(resp.Sources)),
		ProcessingTime: resp.ProcessingTime,
	}
	for i, src := range resp.Sources {
		output.Sources[i] = SourceOutput(src)
	}

	return nil, output, nil
}

// handleRebuild handles the rebuild_index tool invocation.
func (s *Server) handleRebuild(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RebuildInput,
) (*mcp.CallToolResult, RebuildOutput, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, RebuildOutput{}, ErrMissingUser
	}

	rebuild := s.ports.Index.Rebuild
	if input.Force {
		rebuild = s.ports.Index.ForceRebuild
	}

	stats, err := rebuild(ctx, userID)
	if err != nil {
		return nil, RebuildOutput{}, err
	}

	return nil, rebuildOutput(stats), nil
}

// handleStatus handles the index_status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, StatusOutput{}, ErrMissingUser
	}

	status, err := s.ports.Index.Status(ctx, userID)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	return nil, StatusOutput{
		UserID:            status.UserID,
		HasIndex:          status.HasIndex,
		TotalDocuments:    status.TotalDocuments,
		EmbeddedDocuments: status.EmbeddedDocuments,
		IndexedDocuments:  status.IndexedDocuments,
		LastIndexed:       status.LastIndexedDisplay(),
	}, nil
}

func rebuildOutput(stats *domain.RebuildStats) RebuildOutput {
	out := RebuildOutput{
		UserID:            stats.UserID,
		DocumentsEmbedded: stats.DocumentsEmbedded,
		EmbedFailures:     stats.EmbedFailures,
		SkippedNoSummary:  stats.SkippedNoSummary,
		SkippedMalformed:  stats.SkippedMalformed,
		TotalIndexed:      stats.TotalIndexed,
		Dimensions:        stats.Dimensions,
		TotalDocuments:    stats.TotalDocuments,
		DurationSeconds:   stats.Duration.Seconds(),
	}
	if !stats.LastIndexedAt.IsZero() {
		out.LastIndexedAt = stats.LastIndexedAt.Format(time.RFC3339)
	}
	return out
}
