package models

// Document is a single cleaned tutorial page. It is a read-only input to the
// chunking pipeline; the chunker never mutates it.
type Document struct {
	Text     string
	Metadata map[string]interface{}
}

// Source returns the stable origin identifier carried in metadata.
func (d Document) Source() string {
	if s, ok := d.Metadata["source"].(string); ok {
		return s
	}
	return ""
}

// Chunk is a size-bounded slice of a document, ready for embedding. Its text
// never splits a sentence or code block; Metadata inherits the parent
// document's keys plus chunk_index and heading.
type Chunk struct {
	Text     string
	Metadata map[string]interface{}
	// Index is the zero-based position of this chunk within its document.
	Index int
	// Overlap is the number of leading sentence units carried over from the
	// previous chunk. 0 for the first chunk of a document and after headings.
	Overlap int
}

// SearchResult is a chunk returned from the vector store together with its
// cosine distance to the query embedding.
type SearchResult struct {
	Chunk
	Distance float32
}
