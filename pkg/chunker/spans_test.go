package chunker_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sagedocs/sage/pkg/chunker"
)

func reassemble(t *testing.T, text string) string {
	t.Helper()
	var b strings.Builder
	for _, span := range chunker.NewFenceDetector().Detect(text) {
		b.WriteString(span.Text)
	}
	return b.String()
}

func TestDetectFencedBlock(t *testing.T) {
	text := "Some prose before.\n```\nfor i in range(3):\n    print(i)\n```\nAnd after."
	spans := chunker.NewFenceDetector().Detect(text)

	require.Len(t, spans, 3)
	assert.False(t, spans[0].Atomic)
	assert.True(t, spans[1].Atomic)
	assert.False(t, spans[2].Atomic)
	assert.Equal(t, "```\nfor i in range(3):\n    print(i)\n```", spans[1].Text)
	assert.Equal(t, text, reassemble(t, text))
}

func TestDetectUnterminatedFenceFailsOpen(t *testing.T) {
	text := "Prose.\n```\ndef broken():\n    pass\nmore code that never closes"
	spans := chunker.NewFenceDetector().Detect(text)

	require.Len(t, spans, 2)
	assert.False(t, spans[0].Atomic)
	assert.True(t, spans[1].Atomic)
	assert.True(t, strings.HasSuffix(spans[1].Text, "never closes"))
	assert.Equal(t, text, reassemble(t, text))
}

func TestDetectInterpreterSession(t *testing.T) {
	text := "Try it yourself:\n>>> spam = 1\n>>> spam + 1\n2\n\nThe result is two."
	spans := chunker.NewFenceDetector().Detect(text)

	require.Len(t, spans, 3)
	assert.False(t, spans[0].Atomic)
	assert.True(t, spans[1].Atomic)
	assert.Equal(t, ">>> spam = 1\n>>> spam + 1\n2\n", spans[1].Text)
	assert.False(t, spans[2].Atomic)
	assert.Equal(t, text, reassemble(t, text))
}

func TestDetectContinuationPrompt(t *testing.T) {
	text := ">>> if True:\n...     print('yes')\nyes"
	spans := chunker.NewFenceDetector().Detect(text)

	require.Len(t, spans, 1)
	assert.True(t, spans[0].Atomic)
	assert.Equal(t, text, reassemble(t, text))
}

func TestDetectPlainTextOnly(t *testing.T) {
	text := "Nothing but prose here. Two sentences even."
	spans := chunker.NewFenceDetector().Detect(text)

	require.Len(t, spans, 1)
	assert.False(t, spans[0].Atomic)
	assert.Equal(t, text, spans[0].Text)
}

func TestDetectEmptyText(t *testing.T) {
	assert.Empty(t, chunker.NewFenceDetector().Detect(""))
}

func TestDetectAdjacentFences(t *testing.T) {
	text := "```\na\n```\n```\nb\n```"
	spans := chunker.NewFenceDetector().Detect(text)

	require.Len(t, spans, 3)
	assert.True(t, spans[0].Atomic)
	assert.False(t, spans[1].Atomic) // the newline between the fences
	assert.True(t, spans[2].Atomic)
	assert.Equal(t, text, reassemble(t, text))
}
