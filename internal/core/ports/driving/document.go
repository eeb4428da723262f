package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// DocumentService manages a user's document records.
// All operations are scoped to the given user; a document owned by someone
// else is reported as domain.ErrNotFound.
type DocumentService interface {
	// Add stores a new document with an extracted summary and returns it with
	// its assigned ID. The embedding is computed later by a rebuild.
	Add(ctx context.Context, input NewDocument) (*domain.Document, error)

	// Get retrieves one of the user's documents.
	Get(ctx context.Context, userID, documentID string) (*domain.Document, error)

	// List returns all of the user's documents.
	List(ctx context.Context, userID string) ([]domain.Document, error)

	// Delete removes one of the user's documents. The index is not touched;
	// deleted documents drop out of query results and disappear on rebuild.
	Delete(ctx context.Context, userID, documentID string) error
}

// NewDocument is the input for DocumentService.Add.
type NewDocument struct {
	// UserID is the owner (required).
	UserID string

	// FileName is the original upload name.
	FileName string

	// Summary is the extracted text (required).
	Summary string

	// SourcePath points at the stored original file.
	SourcePath string
}
