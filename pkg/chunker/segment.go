package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Unit is an indivisible piece of document text: either a single sentence, or
// an atomic span (code block, interpreter session) that must never be split.
// Heading units force a chunk boundary before themselves.
type Unit struct {
	Text           string
	Atomic         bool
	ForcesBoundary bool
}

// Len returns the unit's length in runes.
func (u Unit) Len() int {
	return utf8.RuneCountInString(u.Text)
}

// PunktSegmenter segments prose with the punkt sentence-boundary model,
// the same model the tutorial corpus was originally chunked with. The
// underlying tokenizer is read-only after construction and safe for
// concurrent use across documents.
type PunktSegmenter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

func NewPunktSegmenter() (*PunktSegmenter, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}
	return &PunktSegmenter{tokenizer: tokenizer}, nil
}

// Segment splits text into trimmed sentences. If the model finds no boundary
// the whole text comes back as a single sentence; text is never dropped.
func (s *PunktSegmenter) Segment(text string) []string {
	var out []string
	for _, sentence := range s.tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(sentence.Text); t != "" {
			out = append(out, t)
		}
	}
	if out == nil {
		if t := strings.TrimSpace(text); t != "" {
			out = []string{t}
		}
	}
	return out
}

// Units runs span detection and sentence segmentation over raw document text
// and returns the ordered unit sequence the assembler consumes. Atomic spans
// pass through as single units; heading lines become boundary-forcing units;
// everything else is segmented into sentences. Unit text is whitespace-trimmed
// at the boundaries, which is the only normalization applied.
func (c *Chunker) Units(text string) []Unit {
	var units []Unit

	for _, span := range c.detector.Detect(text) {
		if span.Atomic {
			if t := strings.TrimSpace(span.Text); t != "" {
				units = append(units, Unit{Text: t, Atomic: true})
			}
			continue
		}
		units = append(units, c.plainUnits(span.Text)...)
	}

	return units
}

// plainUnits splits a prose span into heading and sentence units.
func (c *Chunker) plainUnits(text string) []Unit {
	var units []Unit
	var prose strings.Builder

	flush := func() {
		if prose.Len() == 0 {
			return
		}
		for _, sentence := range c.segmenter.Segment(prose.String()) {
			units = append(units, Unit{Text: sentence})
		}
		prose.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && c.headingRe.MatchString(trimmed) {
			flush()
			units = append(units, Unit{Text: trimmed, ForcesBoundary: true})
			continue
		}
		prose.WriteString(line)
		prose.WriteByte('\n')
	}
	flush()

	return units
}
