package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for docrag resources.
	uriScheme = "docrag://"
)

// registerResources registers resource templates when documents are exposed.
func (s *Server) registerResources() {
	if s.ports.Document == nil {
		return
	}

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "users/{userId}/documents",
		Name:        "user-documents",
		Description: "Documents stored for a user",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "users/{userId}/documents/{documentId}",
		Name:        "document-summary",
		Description: "Extracted summary of a single document",
		MIMEType:    "text/plain",
	}, s.handleDocumentSummaryResource)
}

// handleDocumentsResource lists a user's documents.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	userID := extractUserID(req.Params.URI)
	if userID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.ports.Document.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ID        string `json:"id"`
		FileName  string `json:"file_name"`
		Embedded  bool   `json:"embedded"`
		IndexedAt string `json:"indexed_at,omitempty"`
	}

	infos := make([]docInfo, len(docs))
	for i := range docs {
		infos[i] = docInfo{
			ID:       docs[i].ID,
			FileName: docs[i].DisplayName(),
			Embedded: docs[i].HasEmbedding(),
		}
		if !docs[i].IndexedAt.IsZero() {
			infos[i].IndexedAt = docs[i].IndexedAt.Format(time.RFC3339)
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling documents: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleDocumentSummaryResource returns the summary of one document.
func (s *Server) handleDocumentSummaryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Document == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	userID, docID := extractDocumentRef(req.Params.URI)
	if userID == "" || docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Document.Get(ctx, userID, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     doc.Summary,
		}},
	}, nil
}

// extractUserID extracts the user from a URI like docrag://users/{userId}/documents.
func extractUserID(uri string) string {
	const prefix = uriScheme + "users/"
	const suffix = "/documents"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	userID := strings.TrimSuffix(uri, suffix)
	if strings.Contains(userID, "/") {
		return ""
	}
	return userID
}

// extractDocumentRef extracts user and document from a URI like
// docrag://users/{userId}/documents/{documentId}.
func extractDocumentRef(uri string) (userID, docID string) {
	const prefix = uriScheme + "users/"

	if !strings.HasPrefix(uri, prefix) {
		return "", ""
	}

	parts := strings.Split(strings.TrimPrefix(uri, prefix), "/")
	if len(parts) != 3 || parts[1] != "documents" {
		return "", ""
	}
	return parts[0], parts[2]
}
