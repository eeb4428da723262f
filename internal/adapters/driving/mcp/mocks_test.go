package mcp

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	response  *domain.QueryResponse
	err       error
	gotUser   string
	gotQuery  string
	deadlined bool
}

func (m *mockQueryService) ProcessQuery(ctx context.Context, userID, query string) (*domain.QueryResponse, error) {
	m.gotUser = userID
	m.gotQuery = query
	_, m.deadlined = ctx.Deadline()
	return m.response, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	stats  *domain.RebuildStats
	status *domain.IndexStatus
	err    error
	calls  []string
}

func (m *mockIndexService) Rebuild(_ context.Context, userID string) (*domain.RebuildStats, error) {
	m.calls = append(m.calls, "rebuild:"+userID)
	return m.stats, m.err
}

func (m *mockIndexService) ForceRebuild(_ context.Context, userID string) (*domain.RebuildStats, error) {
	m.calls = append(m.calls, "force:"+userID)
	return m.stats, m.err
}

func (m *mockIndexService) RebuildAll(_ context.Context) (int, error) {
	return 0, m.err
}

func (m *mockIndexService) HasIndex(_ context.Context, _ string) (bool, error) {
	return m.status != nil && m.status.HasIndex, m.err
}

func (m *mockIndexService) Status(_ context.Context, _ string) (*domain.IndexStatus, error) {
	return m.status, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	err       error
}

func (m *mockDocumentService) Add(_ context.Context, _ driving.NewDocument) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) List(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _, _ string) error {
	return m.err
}
