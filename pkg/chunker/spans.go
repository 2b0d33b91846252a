package chunker

import (
	"regexp"
	"strings"

	"github.com/sagedocs/sage/internal/types"
)

const fenceMarker = "```"

// promptRe matches interpreter-session lines the loader preserves from <pre>
// blocks that were not fenced, e.g. ">>> spam = 1" and "... continuation".
var promptRe = regexp.MustCompile(`^\s*(>>>|\.\.\.)( |$)`)

// FenceDetector is the default atomic-span detector. It is heuristic by
// design: fenced code blocks and interpreter-session runs are marked atomic,
// everything else is plain prose. An unterminated fence is treated as atomic
// through end of text rather than letting the segmenter cut into code.
type FenceDetector struct{}

func NewFenceDetector() *FenceDetector {
	return &FenceDetector{}
}

// Detect partitions text into atomic and plain spans. The spans cover the
// full input in order with no gaps, so concatenating them reproduces the
// original text exactly.
func (d *FenceDetector) Detect(text string) []types.Span {
	var spans []types.Span
	pos := 0

	for pos < len(text) {
		open := strings.Index(text[pos:], fenceMarker)
		if open < 0 {
			spans = append(spans, splitPromptRuns(text[pos:])...)
			break
		}
		open += pos

		if open > pos {
			spans = append(spans, splitPromptRuns(text[pos:open])...)
		}

		close := strings.Index(text[open+len(fenceMarker):], fenceMarker)
		if close < 0 {
			// Unterminated fence: keep the rest atomic.
			spans = append(spans, types.Span{Text: text[open:], Atomic: true})
			pos = len(text)
			break
		}
		end := open + len(fenceMarker) + close + len(fenceMarker)
		spans = append(spans, types.Span{Text: text[open:end], Atomic: true})
		pos = end
	}

	return spans
}

// splitPromptRuns scans prose for interpreter-session runs. A run starts at a
// prompt line and extends over the following non-blank lines, which are taken
// to be its output.
func splitPromptRuns(text string) []types.Span {
	var spans []types.Span
	var plain, atomic strings.Builder
	inRun := false

	flushPlain := func() {
		if plain.Len() > 0 {
			spans = append(spans, types.Span{Text: plain.String()})
			plain.Reset()
		}
	}
	flushAtomic := func() {
		if atomic.Len() > 0 {
			spans = append(spans, types.Span{Text: atomic.String(), Atomic: true})
			atomic.Reset()
		}
		inRun = false
	}

	rest := text
	for len(rest) > 0 {
		line := rest
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			line = rest[:i+1]
			rest = rest[i+1:]
		} else {
			rest = ""
		}

		blank := strings.TrimSpace(line) == ""
		switch {
		case promptRe.MatchString(line):
			if !inRun {
				flushPlain()
				inRun = true
			}
			atomic.WriteString(line)
		case inRun && !blank:
			atomic.WriteString(line)
		default:
			if inRun {
				flushAtomic()
			}
			plain.WriteString(line)
		}
	}
	flushPlain()
	flushAtomic()

	return spans
}
