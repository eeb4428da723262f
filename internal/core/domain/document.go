package domain

import "time"

// Document is a user-owned record whose summary is embedded and indexed.
type Document struct {
	// ID is the unique, immutable identifier for the document.
	ID string

	// UserID is the owner. Immutable once assigned.
	UserID string

	// FileName is the original upload name.
	FileName string

	// Summary is the extracted text that gets embedded.
	Summary string

	// Embedding is the normalised vector representation of Summary.
	Embedding Embedding

	// IndexedAt is when the record was last folded into a built index.
	// Zero means never.
	IndexedAt time.Time

	// SourcePath points at the stored original file.
	SourcePath string

	// CreatedAt is when the record was first stored.
	CreatedAt time.Time
}

// HasEmbedding reports whether an embedding value is stored for the document,
// parseable or not.
func (d *Document) HasEmbedding() bool {
	return d.Embedding.Kind != EmbeddingAbsent
}

// DisplayName returns the file name or "Unknown" when it is not set.
func (d *Document) DisplayName() string {
	if d.FileName == "" {
		return "Unknown"
	}
	return d.FileName
}
