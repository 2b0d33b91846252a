package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScraperConfig(t *testing.T) {
	config := ScraperConfig{
		BaseURL:        "https://example.com",
		MaxDepth:       5,
		RateLimit:      1.0,
		IgnorePatterns: []string{"/ignore/", "private"},
		Timeout:        10 * time.Second,
	}

	s, err := NewWithConfig(config)
	require.NoError(t, err)
	assert.Equal(t, config.BaseURL, s.config.BaseURL)
	assert.Equal(t, config.MaxDepth, s.config.MaxDepth)
}

func TestShouldProcessURL(t *testing.T) {
	config := ScraperConfig{
		BaseURL:           "https://example.com",
		IgnorePatterns:    []string{"/ignore/", "private"},
		AllowedExtensions: []string{".html", "/"},
	}

	s, err := NewWithConfig(config)
	require.NoError(t, err)

	tests := []struct {
		url      string
		expected bool
	}{
		{"https://example.com/docs/", true},
		{"https://example.com/page.html", true},
		{"https://example.com/ignore/page.html", false},
		{"https://other-domain.com/page.html", false},
		{"https://example.com/file.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			result := s.shouldProcessURL(tt.url)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestScrapeWithMockServer(t *testing.T) {
	pages := map[string]string{
		"/": `
			<html>
				<head><title>3. An Informal Introduction</title></head>
				<body>
					<div class="body" role="main">
						<p>Python can be used as a calculator.</p>
						<pre>&gt;&gt;&gt; 2 + 2
4</pre>
						<a href="/page2.html">Next</a>
					</div>
				</body>
			</html>
		`,
		"/page2.html": `
			<html>
				<head><title>4. More Control Flow &mdash; docs</title></head>
				<body>
					<div class="body" role="main">
						<p>Besides while, Python has the usual if statement.</p>
					</div>
				</body>
			</html>
		`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if page, ok := pages[r.URL.Path]; ok {
			w.Write([]byte(page))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	s, err := NewWithConfig(ScraperConfig{
		BaseURL:   server.URL,
		MaxDepth:  1,
		RateLimit: 100,
	})
	require.NoError(t, err)

	docs, err := s.Scrape(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	first := docs[0]
	assert.Equal(t, "3. An Informal Introduction", first.Metadata["title"])
	assert.Equal(t, "3", first.Metadata["section"])
	assert.Equal(t, server.URL, first.Metadata["url"])
	assert.Contains(t, first.Text, "calculator")
	assert.Contains(t, first.Text, "```\n>>> 2 + 2\n4\n```")

	second := docs[1]
	assert.Equal(t, "4. More Control Flow", second.Metadata["title"])
	assert.Equal(t, "page2.html", second.Metadata["source"])
}

func TestScrapeHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="body" role="main"><p>x</p></div></body></html>`))
	}))
	defer server.Close()

	s, err := NewWithConfig(ScraperConfig{BaseURL: server.URL, RateLimit: 0.001})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Scrape(ctx, server.URL)
	assert.Error(t, err)
}
