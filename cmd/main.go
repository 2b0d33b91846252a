package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/sagedocs/sage/internal/models"
	"github.com/sagedocs/sage/pkg/chunker"
	cfgPkg "github.com/sagedocs/sage/pkg/config"
	"github.com/sagedocs/sage/pkg/llm"
	"github.com/sagedocs/sage/pkg/loader"
	"github.com/sagedocs/sage/pkg/scraper"
	"github.com/sagedocs/sage/pkg/store"
	"github.com/schollz/progressbar/v3"
)

type Config struct {
	BaseURL          string
	DBUrl            string
	DocsDir          string
	DocsURL          string
	Model            string
	EmbedModel       string
	MaxDepth         int
	MaxChunkSize     int
	OverlapSentences int
	HeadingPattern   string
	VectorDim        int
	TableName        string
	BatchSize        int
	RateLimit        float64
	MaxTokens        int
	Streaming        bool
	Temperature      float64
}

func main() {
	config := parseFlags()

	if err := run(config); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() Config {
	var config Config
	var configPath string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&config.BaseURL, "ollama-url", os.Getenv("OLLAMA_BASE_URL"), "Ollama server URL")
	flag.StringVar(&config.DBUrl, "db-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	flag.StringVar(&config.DocsDir, "docs-dir", "", "Directory of mirrored tutorial HTML pages to ingest")
	flag.StringVar(&config.DocsURL, "docs-url", "", "Documentation URL to scrape and ingest")
	flag.StringVar(&config.Model, "model", "mistral", "LLM model to use")
	flag.StringVar(&config.EmbedModel, "embed-model", "nomic-embed-text:latest", "Embedding model to use")
	flag.IntVar(&config.MaxDepth, "max-depth", 3, "Maximum depth for web scraping")
	flag.IntVar(&config.MaxChunkSize, "chunk-size", 1000, "Maximum characters per chunk")
	flag.IntVar(&config.OverlapSentences, "overlap", 2, "Sentences carried over between chunks")
	flag.StringVar(&config.HeadingPattern, "heading-pattern", "", "Regexp for section headings (default: numbered tutorial headings)")
	flag.IntVar(&config.VectorDim, "vector-dim", 768, "Vector dimension")
	flag.StringVar(&config.TableName, "table", "chunks", "PostgreSQL table name")
	flag.IntVar(&config.BatchSize, "batch-size", 100, "Batch size for database operations")
	flag.Float64Var(&config.RateLimit, "rate-limit", 2.0, "Rate limit for web scraping")
	flag.IntVar(&config.MaxTokens, "max-tokens", 2000, "Maximum tokens for LLM response")
	flag.BoolVar(&config.Streaming, "stream", true, "Enable streaming responses")
	flag.Float64Var(&config.Temperature, "temperature", 0.7, "Set the LLM temperature")
	flag.Parse()

	if configPath == "" {
		return config
	}

	cfg, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config %s: %v", configPath, err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("config: %v", e)
		}
		os.Exit(1)
	}

	config.BaseURL = cfg.LLM.BaseURL
	config.Model = cfg.LLM.Model
	config.EmbedModel = cfg.LLM.EmbedModel
	config.MaxTokens = cfg.LLM.MaxTokens
	config.Temperature = cfg.LLM.Temperature
	config.DBUrl = cfg.Database.URL
	config.TableName = cfg.Database.TableName
	config.VectorDim = cfg.Database.VectorDim
	config.BatchSize = cfg.Database.BatchSize
	if cfg.Loader.Dir != "" {
		config.DocsDir = cfg.Loader.Dir
	}
	config.MaxDepth = cfg.Scraper.MaxDepth
	config.RateLimit = cfg.Scraper.RateLimit
	config.MaxChunkSize = cfg.Chunker.MaxChunkSize
	config.OverlapSentences = cfg.Chunker.OverlapSentences
	config.HeadingPattern = cfg.Chunker.HeadingPattern
	config.Streaming = cfg.UI.Streaming

	return config
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(config Config) error {
	ctx := context.Background()

	chunkEngine, err := chunker.NewWithConfig(chunker.Config{
		MaxChunkSize:     config.MaxChunkSize,
		OverlapSentences: config.OverlapSentences,
		HeadingPattern:   config.HeadingPattern,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chunker: %w", err)
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   config.EmbedModel,
		BaseURL: config.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       config.Model,
		MaxTokens:   config.MaxTokens,
		BaseURL:     config.BaseURL,
		Temperature: config.Temperature,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %w", err)
	}

	vectorStore, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
		ConnString: config.DBUrl,
		TableName:  config.TableName,
		VectorDim:  config.VectorDim,
		BatchSize:  config.BatchSize,
	}, embedder)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	defer vectorStore.Close()

	docs, err := collectDocuments(ctx, config)
	if err != nil {
		return err
	}

	if len(docs) > 0 {
		if err := ingest(ctx, config, chunkEngine, vectorStore, docs); err != nil {
			return err
		}
	}

	return chatLoop(ctx, config, embedder, chatEngine, vectorStore)
}

func collectDocuments(ctx context.Context, config Config) ([]models.Document, error) {
	switch {
	case config.DocsDir != "":
		color.Blue("\nLoading tutorial pages from %s\n", config.DocsDir)
		l, err := loader.NewWithConfig(loader.LoaderConfig{Dir: config.DocsDir})
		if err != nil {
			return nil, err
		}
		docs, err := l.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load documents: %w", err)
		}
		color.Green("✓ Loaded %d documents\n", len(docs))
		return docs, nil

	case config.DocsURL != "":
		color.Blue("\nScraping documentation from %s\n", config.DocsURL)
		var processedCount int32
		s, err := scraper.NewWithConfig(scraper.ScraperConfig{
			BaseURL:   config.DocsURL,
			MaxDepth:  config.MaxDepth,
			RateLimit: config.RateLimit,
			OnProgress: func(url string) {
				atomic.AddInt32(&processedCount, 1)
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize scraper: %w", err)
		}

		scrapingBar := getProgressBar(-1, "📄 Scraping documentation...")
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-done:
					return
				case <-time.After(100 * time.Millisecond):
					scrapingBar.Set(int(atomic.LoadInt32(&processedCount)))
				}
			}
		}()

		docs, err := s.Scrape(ctx, config.DocsURL)
		close(done)
		scrapingBar.Finish()
		if err != nil {
			return nil, fmt.Errorf("failed to scrape documents: %w", err)
		}
		color.Green("\n✓ Scraped %d documents\n", len(docs))
		return docs, nil
	}

	return nil, nil
}

func ingest(ctx context.Context, config Config, chunkEngine *chunker.Chunker, vectorStore *store.VectorStore, docs []models.Document) error {
	processingBar := getProgressBar(len(docs), "🔄 Chunking documents...")
	var chunks []models.Chunk
	for _, doc := range docs {
		chunks = append(chunks, chunkEngine.ChunkDocument(doc)...)
		processingBar.Add(1)
	}
	color.Green("\n✓ Chunked into %d chunks\n", len(chunks))

	storageBar := getProgressBar(len(chunks), "💾 Embedding and storing...")
	batchSize := config.BatchSize
	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		if err := vectorStore.Store(ctx, batch); err != nil {
			return fmt.Errorf("failed to store batch: %w", err)
		}
		storageBar.Add(len(batch))
	}
	color.Green("\n✓ Storage complete\n")

	return nil
}

func chatLoop(ctx context.Context, config Config, embedder *llm.Embedder, chatEngine *llm.ChatEngine, vectorStore *store.VectorStore) error {
	color.Cyan("\nChat with the tutorial (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.ToLower(query) == "exit" {
			break
		}

		queryEmbedding, err := embedder.EmbedQuery(ctx, query)
		if err != nil {
			color.Red("Error embedding query: %v\n", err)
			continue
		}

		querySpinner := getSpinner("🔍 Searching documentation...")
		results, err := vectorStore.Query(ctx, queryEmbedding, 5)
		querySpinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error querying chunks: %v\n", err)
			continue
		}

		if config.Streaming {
			stream, err := chatEngine.ChatStream(ctx, query, results)
			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}

			assistantPrompt("\nAssistant: ")
			for token := range stream {
				fmt.Print(token)
			}
			fmt.Print("\n")
		} else {
			responseSpinner := getSpinner("🤖 Generating response...")
			response, err := chatEngine.Chat(ctx, query, results)
			responseSpinner.Finish()
			fmt.Print("\r")

			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}
			assistantPrompt("Assistant: %s\n", response)
		}
	}

	return scanner.Err()
}
