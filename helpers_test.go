package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// newTestLog returns a silent entry and the hook that captures its output
func newTestLog() (*logrus.Entry, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger), hook
}

// hasEntry reports whether a message containing text was logged at level
func hasEntry(hook *test.Hook, level logrus.Level, text string) bool {
	for _, entry := range hook.AllEntries() {
		if entry.Level == level && strings.Contains(entry.Message, text) {
			return true
		}
	}
	return false
}

// countEntries counts messages containing text logged at level
func countEntries(hook *test.Hook, level logrus.Level, text string) int {
	n := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == level && strings.Contains(entry.Message, text) {
			n++
		}
	}
	return n
}

// fakeSession serves canned pages and counts what the code under test does with it
type fakeSession struct {
	mu         sync.Mutex
	pages      map[string]*PageSnapshot
	failures   map[string]error
	visits     []string
	settles    []time.Duration
	closeCalls int
	closeErr   error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		pages:    make(map[string]*PageSnapshot),
		failures: make(map[string]error),
	}
}

func (f *fakeSession) Visit(url string, settle time.Duration) (*PageSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.visits = append(f.visits, url)
	f.settles = append(f.settles, settle)
	if err, ok := f.failures[url]; ok {
		return nil, err
	}
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return articlePage(url, "Default story", "The default story has a body that is comfortably longer than thirty characters. It also has a second sentence."), nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return f.closeErr
}

func (f *fakeSession) visitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visits)
}

// articlePage builds a snapshot of a simple article with an og:image
func articlePage(url, title, body string) *PageSnapshot {
	html := fmt.Sprintf(`<html><head><title>%s</title>
<meta property="og:image" content="https://img.example.com/%s.jpg">
<meta name="description" content="Description of %s">
</head><body><article><h1>%s</h1><p>%s</p></article></body></html>`, title, title, title, title, body)
	return &PageSnapshot{
		RequestedURL: url,
		URL:          url,
		Title:        title,
		HTML:         html,
		BodyText:     title + "\n" + body,
	}
}

func testExtractionSettings() ExtractionSettings {
	return ExtractionSettings{
		DescriptionMax:   500,
		ExcerptMax:       1000,
		PlaceholderImage: DefaultPlaceholderImage,
	}
}

func newTestSummarizer(log *logrus.Entry) *InshortsSummarizer {
	extractor := NewArticleExtractor(testExtractionSettings(), 0, log)
	return NewInshortsSummarizer(extractor, ExtractiveCondenser{}, log)
}

// writeNewsFile writes news_<category>.json with n linked articles
func writeNewsFile(t *testing.T, dir, category string, n int) string {
	t.Helper()

	doc := NewsDocument{Articles: make([]NewsItem, 0, n)}
	for i := 0; i < n; i++ {
		doc.Articles = append(doc.Articles, NewsItem{
			Title:     fmt.Sprintf("%s story %d", category, i+1),
			Link:      fmt.Sprintf("https://news.example.com/%s/%d", category, i+1),
			Source:    "Example News",
			Published: "Mon, 13 Oct 2025 10:00:00 GMT",
		})
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	path := inputPath(dir, category)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func readOutput(t *testing.T, path string) OutputDocument {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc OutputDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}
