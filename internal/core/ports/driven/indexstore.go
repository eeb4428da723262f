package driven

import "context"

// Well-known blob names inside a user's namespace.
const (
	// BlobIndexArtifact holds the versioned container with both the vector
	// section and the id-map section.
	BlobIndexArtifact = "index.bin"
)

// IndexStore persists serialized index artifacts as blobs namespaced by user.
// Addresses are strictly user_id/blob_name; one user's operations never
// touch another user's blobs.
//
// Put must replace a blob atomically: a reader sees either the previous
// bytes or the new bytes, never a mix.
type IndexStore interface {
	// Put writes bytes under user_id/name, replacing any existing blob.
	Put(ctx context.Context, userID, name string, data []byte) error

	// Get reads the blob under user_id/name.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, userID, name string) ([]byte, error)

	// Has reports whether user_id/name exists.
	Has(ctx context.Context, userID, name string) (bool, error)

	// DeleteAll removes every blob in the user's namespace.
	// Succeeds when the namespace is already empty.
	DeleteAll(ctx context.Context, userID string) error
}
