// Package domain defines the core business entities for docrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A user-owned record carrying an extracted summary
//   - Embedding: Tagged vector representation (absent, vector, unparseable)
//   - QueryResponse: Answer, sources and timing for one question
//   - RebuildStats / IndexStatus: Outcome and state of a user's index
//   - Settings: Explicit process configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
