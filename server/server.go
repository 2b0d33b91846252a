package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/sagedocs/sage/pkg/chunker"
	cfgPkg "github.com/sagedocs/sage/pkg/config"
	"github.com/sagedocs/sage/pkg/llm"
	"github.com/sagedocs/sage/pkg/scraper"
	"github.com/sagedocs/sage/pkg/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

var urlRegex = regexp.MustCompile(`https?://[^\s]+`)

type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

type WSServer struct {
	config      *cfgPkg.Config
	chunkEngine *chunker.Chunker
	embedder    *llm.Embedder
	chatEngine  *llm.ChatEngine
	vectorStore *store.VectorStore
}

func NewWSServer(ctx context.Context, config *cfgPkg.Config) (*WSServer, error) {
	chunkEngine, err := chunker.NewWithConfig(chunker.Config{
		MaxChunkSize:     config.Chunker.MaxChunkSize,
		OverlapSentences: config.Chunker.OverlapSentences,
		HeadingPattern:   config.Chunker.HeadingPattern,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chunker: %w", err)
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   config.LLM.EmbedModel,
		BaseURL: config.LLM.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       config.LLM.Model,
		MaxTokens:   config.LLM.MaxTokens,
		BaseURL:     config.LLM.BaseURL,
		Temperature: config.LLM.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat engine: %w", err)
	}

	vectorStore, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
		ConnString: config.Database.URL,
		TableName:  config.Database.TableName,
		VectorDim:  config.Database.VectorDim,
		BatchSize:  config.Database.BatchSize,
	}, embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}

	return &WSServer{
		config:      config,
		chunkEngine: chunkEngine,
		embedder:    embedder,
		chatEngine:  chatEngine,
		vectorStore: vectorStore,
	}, nil
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("Error reading message: %v", err)
			break
		}
		s.handleMessage(r.Context(), conn, msg)
	}
}

func (s *WSServer) handleMessage(ctx context.Context, conn *websocket.Conn, msg Message) {
	query := strings.TrimSpace(msg.Content)
	if query == "" {
		return
	}

	// A URL in the message triggers ingestion of that documentation site.
	if url := urlRegex.FindString(query); url != "" {
		if err := s.ingestURL(ctx, conn, url); err != nil {
			s.sendMessage(conn, "error", err.Error())
			return
		}
		// Only continue with chat if the message holds more than the URL.
		if query == url {
			return
		}
	}

	queryEmbedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("Failed to embed query: %v", err))
		return
	}

	results, err := s.vectorStore.Query(ctx, queryEmbedding, 5)
	if err != nil {
		s.sendMessage(conn, "error", fmt.Sprintf("Error querying chunks: %v", err))
		return
	}

	if s.config.UI.Streaming {
		stream, err := s.chatEngine.ChatStream(ctx, query, results)
		if err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("Error: %v", err))
			return
		}
		for token := range stream {
			s.sendMessage(conn, "stream", token)
		}
		s.sendMessage(conn, "done", "")
	} else {
		response, err := s.chatEngine.Chat(ctx, query, results)
		if err != nil {
			s.sendMessage(conn, "error", fmt.Sprintf("Error: %v", err))
			return
		}
		s.sendMessage(conn, "response", response)
	}
}

func (s *WSServer) ingestURL(ctx context.Context, conn *websocket.Conn, url string) error {
	s.sendMessage(conn, "status", fmt.Sprintf("Processing URL: %s", url))

	var processedCount int32
	sc, err := scraper.NewWithConfig(scraper.ScraperConfig{
		BaseURL:   url,
		MaxDepth:  s.config.Scraper.MaxDepth,
		RateLimit: s.config.Scraper.RateLimit,
		OnProgress: func(url string) {
			count := atomic.AddInt32(&processedCount, 1)
			s.sendMessage(conn, "progress", fmt.Sprintf("Scraped %d pages", count))
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize scraper: %w", err)
	}

	docs, err := sc.Scrape(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to scrape URL: %w", err)
	}
	s.sendMessage(conn, "status", fmt.Sprintf("Scraped %d documents", len(docs)))

	chunks := s.chunkEngine.ChunkAll(docs)
	s.sendMessage(conn, "status", fmt.Sprintf("Chunked into %d chunks", len(chunks)))

	batchSize := s.config.Database.BatchSize
	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := s.vectorStore.Store(ctx, chunks[i:end]); err != nil {
			return fmt.Errorf("failed to store chunks: %w", err)
		}
	}
	s.sendMessage(conn, "status", "Ingestion complete")

	return nil
}

func (s *WSServer) sendMessage(conn *websocket.Conn, msgType string, content string) {
	msg := Message{
		Type:    msgType,
		Content: content,
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	config, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if errs := config.Validate(); len(errs) > 0 {
		for _, e := range errs {
			log.Printf("config: %v", e)
		}
		log.Fatal("invalid configuration")
	}

	server, err := NewWSServer(context.Background(), config)
	if err != nil {
		log.Fatal(err)
	}
	defer server.vectorStore.Close()

	http.HandleFunc("/ws", server.handleWebSocket)
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting WebSocket server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}
