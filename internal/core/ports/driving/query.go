package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// QueryService answers questions from a user's indexed documents.
type QueryService interface {
	// ProcessQuery retrieves the user's most relevant documents and asks the
	// language model to answer from their summaries. When the user has no
	// index or nothing relevant is found, a fixed answer is returned without
	// calling the model.
	ProcessQuery(ctx context.Context, userID, query string) (*domain.QueryResponse, error)
}
