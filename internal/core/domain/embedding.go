package domain

import (
	"encoding/json"
	"strings"
)

// EmbeddingKind tags how an embedding value was found in storage.
type EmbeddingKind int

// Embedding kinds.
const (
	// EmbeddingAbsent means no embedding has been computed yet.
	EmbeddingAbsent EmbeddingKind = iota

	// EmbeddingVector means Values holds a usable numeric vector.
	EmbeddingVector

	// EmbeddingUnparseable means a value is stored but is not a numeric vector.
	EmbeddingUnparseable
)

// String returns the kind name.
func (k EmbeddingKind) String() string {
	switch k {
	case EmbeddingAbsent:
		return "absent"
	case EmbeddingVector:
		return "vector"
	case EmbeddingUnparseable:
		return "unparseable"
	default:
		return unknownDescription
	}
}

// Embedding is the normalised form handed out by the embedding store.
// Store adapters decide the kind at the boundary so consumers never
// inspect raw storage representations.
type Embedding struct {
	// Kind tags the variant.
	Kind EmbeddingKind

	// Values is set when Kind is EmbeddingVector.
	Values []float32

	// Raw keeps the stored text when Kind is EmbeddingUnparseable.
	Raw string
}

// VectorEmbedding wraps a numeric vector. An empty vector is unparseable.
func VectorEmbedding(values []float32) Embedding {
	if len(values) == 0 {
		return Embedding{Kind: EmbeddingUnparseable}
	}
	return Embedding{Kind: EmbeddingVector, Values: values}
}

// UnparseableEmbedding marks a stored value that could not be read as a vector.
func UnparseableEmbedding(raw string) Embedding {
	return Embedding{Kind: EmbeddingUnparseable, Raw: raw}
}

// ParseEmbedding normalises the textual form of a vector, e.g. "[0.1, 0.2]".
// Empty text is absent; anything that is not a non-empty list of numbers
// is unparseable.
func ParseEmbedding(text string) Embedding {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "null" {
		return Embedding{Kind: EmbeddingAbsent}
	}

	// Tuple notation is accepted alongside list notation.
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		trimmed = "[" + trimmed[1:len(trimmed)-1] + "]"
	}

	var values []float64
	if err := json.Unmarshal([]byte(trimmed), &values); err != nil {
		return UnparseableEmbedding(text)
	}

	vec := make([]float32, len(values))
	for i, v := range values {
		vec[i] = float32(v)
	}
	emb := VectorEmbedding(vec)
	if emb.Kind == EmbeddingUnparseable {
		emb.Raw = text
	}
	return emb
}

// Usable reports whether the embedding can be placed in an index.
func (e Embedding) Usable() bool {
	return e.Kind == EmbeddingVector && len(e.Values) > 0
}

// Dimensions returns the vector length, or 0 when not usable.
func (e Embedding) Dimensions() int {
	if !e.Usable() {
		return 0
	}
	return len(e.Values)
}
