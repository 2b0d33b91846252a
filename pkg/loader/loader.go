package loader

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sagedocs/sage/internal/models"
)

// Pages that are navigation-only and carry no tutorial content.
var defaultSkipFiles = []string{"index.html", "index-2.html", "genindex.html"}

var (
	blankLinesRe    = regexp.MustCompile(`\n{3,}`)
	trailingSpaceRe = regexp.MustCompile(`(?m)[ \t]+$`)
	sectionRe       = regexp.MustCompile(`^(\d+)\.`)
)

type LoaderConfig struct {
	Dir       string
	SkipFiles []string
}

// Loader reads mirrored tutorial HTML pages from a directory and turns them
// into cleaned documents with source, title and section metadata.
type Loader struct {
	config LoaderConfig
	skip   map[string]bool
}

func NewWithConfig(config LoaderConfig) (*Loader, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("loader: docs directory is required")
	}
	if len(config.SkipFiles) == 0 {
		config.SkipFiles = defaultSkipFiles
	}
	skip := make(map[string]bool, len(config.SkipFiles))
	for _, name := range config.SkipFiles {
		skip[name] = true
	}
	return &Loader{config: config, skip: skip}, nil
}

// Load parses every HTML page in the configured directory, in name order.
// Pages without a recognizable content body are skipped, not failed.
func (l *Loader) Load() ([]models.Document, error) {
	paths, err := filepath.Glob(filepath.Join(l.config.Dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("loader: bad docs directory pattern: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("loader: no HTML files found in %s", l.config.Dir)
	}
	sort.Strings(paths)

	var docs []models.Document
	for _, path := range paths {
		name := filepath.Base(path)
		if l.skip[name] {
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("loader: failed to open %s: %w", name, err)
		}
		page, err := goquery.NewDocumentFromReader(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("loader: failed to parse %s: %w", name, err)
		}

		if doc, ok := CleanPage(page, name); ok {
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

// CleanPage converts a parsed HTML page into a Document. It returns false when
// the page has no usable content body. The scraper shares this cleaner so
// mirrored and crawled pages produce identical text.
func CleanPage(page *goquery.Document, source string) (models.Document, bool) {
	title := extractTitle(page)

	body := page.Find("div.body[role=main]")
	if body.Length() == 0 {
		body = page.Find("main, article, div.body, body").First()
	}
	if body.Length() == 0 {
		return models.Document{}, false
	}

	text := cleanText(body)
	if text == "" {
		return models.Document{}, false
	}

	return models.Document{
		Text: text,
		Metadata: map[string]interface{}{
			"source":  source,
			"title":   title,
			"section": extractSection(title),
		},
	}, true
}

// cleanText renders a content body as plain text: scripts, styles and header
// anchors are dropped, <pre> blocks become fenced code blocks so the chunker
// can keep them atomic, and block elements are separated by blank lines.
func cleanText(body *goquery.Selection) string {
	body.Find("script, style, a.headerlink").Remove()

	body.Find("pre").Each(func(_ int, pre *goquery.Selection) {
		code := strings.Trim(pre.Text(), "\n")
		fenced := "\n```\n" + code + "\n```\n"
		pre.ReplaceWithHtml("<p>" + html.EscapeString(fenced) + "</p>")
	})

	// Keep block structure: goquery's Text() would otherwise jam adjacent
	// paragraphs together with no separator at all.
	body.Find("p, h1, h2, h3, h4, h5, h6, li, dt, dd").AfterHtml("\n\n")

	text := body.Text()
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = trailingSpaceRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// extractTitle pulls the page title, e.g. "9. Classes", stripping the
// trailing "— Python 3.x documentation" suffix.
func extractTitle(page *goquery.Document) string {
	raw := strings.TrimSpace(page.Find("title").First().Text())
	if raw == "" {
		return "Unknown"
	}
	if i := strings.Index(raw, "—"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

// extractSection returns the leading section number of a title:
// "9. Classes" yields "9", anything else yields "".
func extractSection(title string) string {
	if m := sectionRe.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return ""
}
