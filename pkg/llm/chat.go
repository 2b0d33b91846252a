package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sagedocs/sage/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
)

const defaultSystemTemplate = `You are a helpful assistant that answers questions about the Python programming language based ONLY on the provided tutorial documentation.

Instructions:
- Answer using ONLY the information in the context.
- If the context does not contain enough information, say: "I don't have enough information in the tutorial to answer that."
- Include relevant code examples from the context when appropriate.`

const defaultContextTemplate = "Context (retrieved from the tutorial):\n%s\n\nQuestion: %s"

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Model           string
	Temperature     float64
	MaxTokens       int
	SystemTemplate  string
	ContextTemplate string
	BaseURL         string // Ollama server URL
}

// ChatEngine is an engine that uses an LLM to generate grounded chat responses.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewWithConfig creates a new ChatEngine with the given configuration.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = defaultSystemTemplate
	}
	if config.ContextTemplate == "" {
		config.ContextTemplate = defaultContextTemplate
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	llm, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{
		config: config,
		llm:    llm,
	}, nil
}

// Chat generates a grounded answer for the query from the retrieved chunks.
func (ce *ChatEngine) Chat(ctx context.Context, query string, results []models.SearchResult) (string, error) {
	response, err := ce.llm.GenerateContent(ctx, ce.messages(query, results),
		llms.WithMaxTokens(ce.config.MaxTokens),
		llms.WithTemperature(ce.config.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}
	return response.Choices[0].Content + formatSources(results), nil
}

// ChatStream generates a streamed answer; tokens arrive on the returned
// channel, which closes when generation finishes.
func (ce *ChatEngine) ChatStream(ctx context.Context, query string, results []models.SearchResult) (<-chan string, error) {
	resultChan := make(chan string)

	go func() {
		defer close(resultChan)

		_, err := ce.llm.GenerateContent(ctx, ce.messages(query, results),
			llms.WithMaxTokens(ce.config.MaxTokens),
			llms.WithTemperature(ce.config.Temperature),
			llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
				resultChan <- string(chunk)
				return nil
			}),
		)
		if err != nil {
			resultChan <- fmt.Sprintf("Error: %v", err)
			return
		}
		if sources := formatSources(results); sources != "" {
			resultChan <- sources
		}
	}()

	return resultChan, nil
}

func (ce *ChatEngine) messages(query string, results []models.SearchResult) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, ce.config.SystemTemplate),
		llms.TextParts(schema.ChatMessageTypeHuman,
			fmt.Sprintf(ce.config.ContextTemplate, formatContext(results), query)),
	}
}

// formatContext joins retrieved chunks into a single context block, each
// prefixed with its source and section heading.
func formatContext(results []models.SearchResult) string {
	if len(results) == 0 {
		return "(no retrieved context)"
	}

	parts := make([]string, 0, len(results))
	for _, r := range results {
		header := fmt.Sprintf("[%s]", metaString(r.Metadata, "source"))
		if heading := metaString(r.Metadata, "heading"); heading != "" {
			header += " " + heading
		}
		parts = append(parts, header+"\n"+r.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// formatSources lists the distinct source documents used, for citation.
func formatSources(results []models.SearchResult) string {
	var sources []string
	seen := make(map[string]bool)

	for _, r := range results {
		source := metaString(r.Metadata, "source")
		if source != "" && !seen[source] {
			sources = append(sources, source)
			seen[source] = true
		}
	}

	if len(sources) == 0 {
		return ""
	}
	return fmt.Sprintf("\n\nSources: %s", strings.Join(sources, ", "))
}

func metaString(metadata map[string]interface{}, key string) string {
	if s, ok := metadata[key].(string); ok {
		return s
	}
	return ""
}
