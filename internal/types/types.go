package types

import (
	"context"

	"github.com/sagedocs/sage/internal/models"
)

// Core interfaces

// Loader produces cleaned documents from some source of tutorial pages.
type Loader interface {
	Load() ([]models.Document, error)
}

// Chunker turns documents into size-bounded, metadata-tagged chunks.
type Chunker interface {
	ChunkDocument(doc models.Document) []models.Chunk
	ChunkAll(docs []models.Document) []models.Chunk
}

// Segmenter splits plain prose into ordered sentence spans. Implementations
// must be safe for concurrent use once constructed.
type Segmenter interface {
	Segment(text string) []string
}

// SpanDetector partitions raw text into atomic and plain spans. The spans must
// cover the input losslessly, in order.
type SpanDetector interface {
	Detect(text string) []Span
}

// Span is a contiguous slice of document text. Atomic spans (code blocks,
// interpreter sessions) are never subdivided.
type Span struct {
	Text   string
	Atomic bool
}

// Embedder creates vector embeddings for chunk texts.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore persists embedded chunks and answers nearest-neighbour queries.
type VectorStore interface {
	Store(ctx context.Context, chunks []models.Chunk) error
	Query(ctx context.Context, embedding []float32, limit int) ([]models.SearchResult, error)
	Close()
}
