package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  base_url: "http://localhost:11434"
  model: "mistral"
  embed_model: "nomic-embed-text:latest"
  max_tokens: 1000
  temperature: 0.5

database:
  url: "postgres://localhost:5432/sage"
  table_name: "tutorial_chunks"
  vector_dim: 768
  batch_size: 50

loader:
  dir: "py_tutorial/docs.python.org/3/tutorial"
  skip_files:
    - "index.html"

scraper:
  max_depth: 5
  rate_limit: 1.5

chunker:
  max_chunk_size: 500
  overlap_sentences: 1
  heading_pattern: '^\d+\.[\d.]*\s+.+$'

ui:
  streaming: false
  theme: "dark"
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, "mistral", config.LLM.Model)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, "postgres://localhost:5432/sage", config.Database.URL)
	assert.Equal(t, "tutorial_chunks", config.Database.TableName)
	assert.Equal(t, "py_tutorial/docs.python.org/3/tutorial", config.Loader.Dir)
	assert.Equal(t, 5, config.Scraper.MaxDepth)
	assert.Equal(t, 500, config.Chunker.MaxChunkSize)
	assert.Equal(t, 1, config.Chunker.OverlapSentences)
	assert.False(t, config.UI.Streaming)
}

func TestLoadConfigDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  model: mistral\n"), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 1000, config.Chunker.MaxChunkSize)
	assert.Equal(t, 2, config.Chunker.OverlapSentences)
	assert.Equal(t, "chunks", config.Database.TableName)
	assert.Equal(t, 768, config.Database.VectorDim)
}

func TestConfigValidation(t *testing.T) {
	valid, err := getDefaultConfig()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		fields []string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:   "missing base URL",
			mutate: func(c *Config) { c.LLM.BaseURL = "" },
			fields: []string{"llm.base_url"},
		},
		{
			name:   "zero chunk size",
			mutate: func(c *Config) { c.Chunker.MaxChunkSize = 0 },
			fields: []string{"chunker.max_chunk_size"},
		},
		{
			name:   "negative overlap",
			mutate: func(c *Config) { c.Chunker.OverlapSentences = -1 },
			fields: []string{"chunker.overlap_sentences"},
		},
		{
			name:   "bad heading pattern",
			mutate: func(c *Config) { c.Chunker.HeadingPattern = "([" },
			fields: []string{"chunker.heading_pattern"},
		},
		{
			name:   "bad extension",
			mutate: func(c *Config) { c.Scraper.AllowedExtensions = []string{"html"} },
			fields: []string{"scraper.allowed_extensions"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *valid
			tt.mutate(&cfg)

			errs := cfg.Validate()
			require.Len(t, errs, len(tt.fields))
			for i, field := range tt.fields {
				assert.Equal(t, field, errs[i].Field)
				assert.NotEmpty(t, errs[i].Error())
			}
		})
	}
}
