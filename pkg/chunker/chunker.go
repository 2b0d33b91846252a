// Package chunker splits cleaned tutorial documents into bounded-size,
// metadata-tagged chunks without ever breaking a sentence, a code block, or a
// section boundary. It is a pure, deterministic transform: no I/O, no shared
// mutable state, and documents may be chunked concurrently by the caller.
package chunker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sagedocs/sage/internal/models"
	"github.com/sagedocs/sage/internal/types"
)

const (
	// DefaultMaxChunkSize is the soft upper bound on chunk length in runes.
	DefaultMaxChunkSize = 1000
	// DefaultOverlapSentences is the number of trailing sentences carried
	// into the next chunk for retrieval context continuity.
	DefaultOverlapSentences = 2
	// DefaultHeadingPattern matches numbered tutorial headings such as
	// "9.1. A Word About Names".
	DefaultHeadingPattern = `^\d+\.[\d.]*\s+.+$`
)

var (
	ErrInvalidChunkSize = errors.New("chunker: max chunk size must be positive")
	ErrNegativeOverlap  = errors.New("chunker: overlap sentences cannot be negative")
)

type Config struct {
	MaxChunkSize     int
	OverlapSentences int
	HeadingPattern   string
	// Detector and Segmenter may be supplied to swap the span-detection and
	// sentence-boundary strategies; nil selects the defaults.
	Detector  types.SpanDetector
	Segmenter types.Segmenter
}

type Chunker struct {
	maxChunkSize     int
	overlapSentences int
	headingRe        *regexp.Regexp
	detector         types.SpanDetector
	segmenter        types.Segmenter
}

// NewWithConfig validates the configuration and builds a chunker. Malformed
// configuration is the only error path; document content never fails.
func NewWithConfig(config Config) (*Chunker, error) {
	if config.MaxChunkSize == 0 {
		config.MaxChunkSize = DefaultMaxChunkSize
	}
	if config.MaxChunkSize < 0 {
		return nil, ErrInvalidChunkSize
	}
	if config.OverlapSentences < 0 {
		return nil, ErrNegativeOverlap
	}
	if config.HeadingPattern == "" {
		config.HeadingPattern = DefaultHeadingPattern
	}
	headingRe, err := regexp.Compile(config.HeadingPattern)
	if err != nil {
		return nil, fmt.Errorf("chunker: invalid heading pattern: %w", err)
	}
	if config.Detector == nil {
		config.Detector = NewFenceDetector()
	}
	if config.Segmenter == nil {
		segmenter, err := NewPunktSegmenter()
		if err != nil {
			return nil, fmt.Errorf("chunker: failed to load sentence model: %w", err)
		}
		config.Segmenter = segmenter
	}

	return &Chunker{
		maxChunkSize:     config.MaxChunkSize,
		overlapSentences: config.OverlapSentences,
		headingRe:        headingRe,
		detector:         config.Detector,
		segmenter:        config.Segmenter,
	}, nil
}

// ChunkAll chunks every document in order. Chunk indices restart at zero for
// each document.
func (c *Chunker) ChunkAll(docs []models.Document) []models.Chunk {
	var chunks []models.Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.ChunkDocument(doc)...)
	}
	return chunks
}

// ChunkDocument turns one document into its ordered chunk sequence. Degenerate
// documents (empty, all code, one giant sentence) produce a valid, possibly
// empty, result.
func (c *Chunker) ChunkDocument(doc models.Document) []models.Chunk {
	return c.assemble(doc, c.Units(doc.Text))
}

func (c *Chunker) assemble(doc models.Document, units []Unit) []models.Chunk {
	var chunks []models.Chunk
	var buf []Unit
	bufLen := 0
	overlap := 0 // units carried into the buffer currently being built
	heading := ""

	closeBuffer := func() {
		if len(buf) > 0 {
			chunks = append(chunks, c.newChunk(doc, buf, len(chunks), overlap, heading))
		}
	}

	for _, unit := range units {
		unitLen := unit.Len()

		switch {
		case unit.ForcesBoundary:
			// Headings terminate the current chunk and reset overlap; a
			// chunk never mixes units from two sections.
			closeBuffer()
			heading = unit.Text
			buf = []Unit{unit}
			bufLen = unitLen
			overlap = 0

		case unitLen > c.maxChunkSize:
			// Oversized-unit exception: emitted alone, never truncated,
			// never carried forward as overlap.
			closeBuffer()
			chunks = append(chunks, c.newChunk(doc, []Unit{unit}, len(chunks), 0, heading))
			buf = nil
			bufLen = 0
			overlap = 0

		case len(buf) > 0 && bufLen+sepLen(buf[len(buf)-1], unit)+unitLen > c.maxChunkSize:
			closeBuffer()
			seed := c.overlapSeed(buf)
			overlap = len(seed)
			buf = append(seed, unit)
			bufLen = joinedLen(buf)

		default:
			if len(buf) > 0 {
				bufLen += sepLen(buf[len(buf)-1], unit)
			}
			buf = append(buf, unit)
			bufLen += unitLen
		}
	}
	closeBuffer()

	return chunks
}

// overlapSeed collects the trailing sentence units of a closed chunk, walking
// backward past atomic and heading units. When fewer sentence units exist than
// requested, all of them are carried (clamped, not an error).
func (c *Chunker) overlapSeed(closed []Unit) []Unit {
	if c.overlapSentences == 0 {
		return nil
	}
	var seed []Unit
	for i := len(closed) - 1; i >= 0 && len(seed) < c.overlapSentences; i-- {
		u := closed[i]
		if u.Atomic || u.ForcesBoundary {
			continue
		}
		seed = append(seed, u)
	}
	// Collected newest-first; restore document order.
	for i, j := 0, len(seed)-1; i < j; i, j = i+1, j-1 {
		seed[i], seed[j] = seed[j], seed[i]
	}
	return seed
}

func (c *Chunker) newChunk(doc models.Document, units []Unit, index, overlap int, heading string) models.Chunk {
	metadata := make(map[string]interface{}, len(doc.Metadata)+2)
	for k, v := range doc.Metadata {
		metadata[k] = v
	}
	metadata["chunk_index"] = index
	metadata["heading"] = heading

	return models.Chunk{
		Text:     joinUnits(units),
		Metadata: metadata,
		Index:    index,
		Overlap:  overlap,
	}
}

// joinUnits renders a chunk's text. Consecutive sentences are joined with a
// single space; atomic and heading units are set off by blank lines.
func joinUnits(units []Unit) string {
	var b strings.Builder
	for i, u := range units {
		if i > 0 {
			b.WriteString(separator(units[i-1], u))
		}
		b.WriteString(u.Text)
	}
	return b.String()
}

func separator(prev, cur Unit) string {
	if prev.Atomic || cur.Atomic || prev.ForcesBoundary || cur.ForcesBoundary {
		return "\n\n"
	}
	return " "
}

func sepLen(prev, cur Unit) int {
	return len(separator(prev, cur))
}

func joinedLen(units []Unit) int {
	n := 0
	for i, u := range units {
		if i > 0 {
			n += sepLen(units[i-1], u)
		}
		n += utf8.RuneCountInString(u.Text)
	}
	return n
}
