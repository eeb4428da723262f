package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages user-owned document records.
type DocumentService struct {
	docs driven.EmbeddingStore
	now  func() time.Time
}

// NewDocumentService creates a new document service.
func NewDocumentService(docs driven.EmbeddingStore) *DocumentService {
	return &DocumentService{
		docs: docs,
		now:  time.Now,
	}
}

// Add stores a new document without an embedding.
func (s *DocumentService) Add(ctx context.Context, input driving.NewDocument) (*domain.Document, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(input.Summary) == "" {
		return nil, fmt.Errorf("%w: summary is required", domain.ErrInvalidInput)
	}

	doc := &domain.Document{
		ID:         uuid.New().String(),
		UserID:     input.UserID,
		FileName:   input.FileName,
		Summary:    input.Summary,
		SourcePath: input.SourcePath,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.docs.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return doc, nil
}

// Get retrieves a document owned by the user.
func (s *DocumentService) Get(ctx context.Context, userID, documentID string) (*domain.Document, error) {
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

// List returns all of the user's documents.
func (s *DocumentService) List(ctx context.Context, userID string) ([]domain.Document, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	return s.docs.List(ctx, userID)
}

// Delete removes a document owned by the user.
func (s *DocumentService) Delete(ctx context.Context, userID, documentID string) error {
	if _, err := s.Get(ctx, userID, documentID); err != nil {
		return err
	}
	return s.docs.Delete(ctx, documentID)
}
