package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sagedocs/sage/internal/models"
	"github.com/tmc/langchaingo/llms"
)

func result(source, heading, text string) models.SearchResult {
	return models.SearchResult{
		Chunk: models.Chunk{
			Text: text,
			Metadata: map[string]interface{}{
				"source":  source,
				"heading": heading,
			},
		},
	}
}

func TestNewWithConfig(t *testing.T) {
	engine, err := NewWithConfig(ChatConfig{
		Model:       "mistral",
		Temperature: 0.5,
		MaxTokens:   1000,
		BaseURL:     "http://localhost:11434",
	})
	require.NoError(t, err)
	assert.NotNil(t, engine)
}

func TestNewWithConfigRejectsBadValues(t *testing.T) {
	_, err := NewWithConfig(ChatConfig{Temperature: 3})
	assert.Error(t, err)

	_, err = NewWithConfig(ChatConfig{MaxTokens: -1})
	assert.Error(t, err)
}

func TestFormatContext(t *testing.T) {
	results := []models.SearchResult{
		result("classes.html", "9.1. A Word About Names", "Objects have individuality."),
		result("controlflow.html", "", "The if statement is the most well-known."),
	}

	context := formatContext(results)
	assert.Contains(t, context, "[classes.html] 9.1. A Word About Names\nObjects have individuality.")
	assert.Contains(t, context, "[controlflow.html]\nThe if statement")
	assert.Contains(t, context, "\n\n---\n\n")
}

func TestFormatContextEmpty(t *testing.T) {
	assert.Equal(t, "(no retrieved context)", formatContext(nil))
}

func TestFormatSourcesDeduplicates(t *testing.T) {
	results := []models.SearchResult{
		result("classes.html", "", "a"),
		result("classes.html", "", "b"),
		result("errors.html", "", "c"),
	}

	assert.Equal(t, "\n\nSources: classes.html, errors.html", formatSources(results))
	assert.Empty(t, formatSources(nil))
}

func TestMessagesCarrySystemAndContext(t *testing.T) {
	engine, err := NewWithConfig(ChatConfig{Temperature: 0.2})
	require.NoError(t, err)

	msgs := engine.messages("What is a class?", []models.SearchResult{
		result("classes.html", "9. Classes", "Classes bundle data and functionality."),
	})
	require.Len(t, msgs, 2)

	human, ok := msgs[1].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, human.Text, "What is a class?")
	assert.Contains(t, human.Text, "Classes bundle data and functionality.")
}
