package main

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleFixture = `<!DOCTYPE html>
<html>
<head>
  <title>Fixture headline</title>
  <meta property="og:image" content="https://img.example.com/og.jpg">
  <meta name="twitter:image" content="https://img.example.com/twitter.jpg">
  <meta name="description" content="  A short description of the fixture story.  ">
</head>
<body>
  <nav>Home | World | Sports</nav>
  <article>
    <h1>Fixture headline</h1>
    <p>The city council voted on Tuesday to expand the tram network to the northern suburbs, ending a decade of debate.</p>
    <p>Construction is expected to start next spring and take about three years, officials said after the vote.</p>
  </article>
</body>
</html>`

func mustDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestFromSnapshot(t *testing.T) {
	log, _ := newTestLog()
	e := NewArticleExtractor(testExtractionSettings(), time.Second, log)

	details, err := e.FromSnapshot(&PageSnapshot{
		RequestedURL: "https://news.example.com/redirect",
		URL:          "https://news.example.com/tram",
		HTML:         articleFixture,
		BodyText:     "Home | World | Sports\nFixture headline\nThe city council voted on Tuesday.",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://news.example.com/tram", details.ResolvedURL)
	assert.Equal(t, "Fixture headline", details.Title)
	assert.Equal(t, "https://img.example.com/og.jpg", details.ImageURL)
	assert.Equal(t, "A short description of the fixture story.", details.Description)
	assert.Contains(t, details.TextExcerpt, "The city council voted on Tuesday")
	assert.NoError(t, details.Err)
}

func TestFromSnapshotTruncates(t *testing.T) {
	log, _ := newTestLog()
	settings := testExtractionSettings()
	settings.DescriptionMax = 10
	settings.ExcerptMax = 20
	e := NewArticleExtractor(settings, time.Second, log)

	details, err := e.FromSnapshot(&PageSnapshot{URL: "https://news.example.com/tram", HTML: articleFixture})
	require.NoError(t, err)

	assert.Equal(t, "A short de...", details.Description)
	assert.Equal(t, 23, utf8.RuneCountInString(details.TextExcerpt))
	assert.True(t, strings.HasSuffix(details.TextExcerpt, "..."))
}

const minifiedArticle = `<html><head><title>Council passes budget</title></head><body><article><h1>Council passes budget</h1><p>The city council approved the new budget on Monday after a long debate.</p><p>Spending on parks rises by ten percent across the city.</p></article></body></html>`

func TestFromSnapshotKeepsBlockBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		bodyText string
	}{
		{"rendered body text", "Council passes budget\nThe city council approved the new budget on Monday after a long debate.\nSpending on parks rises by ten percent across the city."},
		{"html only", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := newTestLog()
			e := NewArticleExtractor(testExtractionSettings(), time.Second, log)

			details, err := e.FromSnapshot(&PageSnapshot{
				URL:      "https://news.example.com/budget",
				HTML:     minifiedArticle,
				BodyText: tt.bodyText,
			})
			require.NoError(t, err)

			assert.NotContains(t, details.TextExcerpt, "budgetThe")
			assert.NotContains(t, details.TextExcerpt, "debate.Spending")

			summary := GenerateSummary(details.TextExcerpt, 60)
			assert.True(t, strings.HasPrefix(summary, "The city council approved the new budget"), "summary: %q", summary)
		})
	}
}

func TestBodyTextIsPreferred(t *testing.T) {
	log, _ := newTestLog()
	e := NewArticleExtractor(testExtractionSettings(), time.Second, log)

	details, err := e.FromSnapshot(&PageSnapshot{
		URL:      "https://news.example.com/tram",
		HTML:     articleFixture,
		BodyText: "Rendered text that differs from the markup.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Rendered text that differs from the markup.", details.TextExcerpt)
}

func TestImageSelection(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "open graph wins",
			html:     `<head><meta property="og:image" content="https://a/og.jpg"><meta name="twitter:image" content="https://a/tw.jpg"></head><body><img src="https://a/big.jpg" width="900" height="900"></body>`,
			expected: "https://a/og.jpg",
		},
		{
			name:     "twitter card",
			html:     `<head><meta name="twitter:image" content="https://a/tw.jpg"></head><body><img src="https://a/big.jpg" width="900" height="900"></body>`,
			expected: "https://a/tw.jpg",
		},
		{
			name:     "largest absolute image",
			html:     `<body><img src="/relative.jpg" width="2000" height="2000"><img src="https://a/small.jpg" width="10" height="10"><img src="https://a/big.jpg" width="600" height="400"></body>`,
			expected: "https://a/big.jpg",
		},
		{
			name:     "first image when no sizes",
			html:     `<body><img src="https://a/first.jpg"><img src="https://a/second.jpg"></body>`,
			expected: "https://a/first.jpg",
		},
		{
			name:     "no image",
			html:     `<body><p>text</p></body>`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDocument(t, tt.html)
			got := firstNonEmpty(
				metaContent(doc, `meta[property="og:image"]`),
				metaContent(doc, `meta[name="twitter:image"]`),
				largestImage(doc),
			)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDescriptionFallsBackToParagraph(t *testing.T) {
	log, _ := newTestLog()
	e := NewArticleExtractor(testExtractionSettings(), time.Second, log)

	html := `<html><body><p>Too short.</p><p>This paragraph is long enough to stand in for a missing meta description.</p></body></html>`
	details, err := e.FromSnapshot(&PageSnapshot{URL: "https://a/b", HTML: html})
	require.NoError(t, err)

	assert.Equal(t, "This paragraph is long enough to stand in for a missing meta description.", details.Description)
}

func TestExtractVisitFailure(t *testing.T) {
	log, hook := newTestLog()
	e := NewArticleExtractor(testExtractionSettings(), time.Second, log)

	session := newFakeSession()
	session.failures["https://a/broken"] = errors.New("net::ERR_NAME_NOT_RESOLVED")

	details := e.Extract(session, "https://a/broken", 10*time.Second)

	assert.Error(t, details.Err)
	assert.Equal(t, DefaultPlaceholderImage, details.ImageURL)
	assert.Empty(t, details.TextExcerpt)
	assert.Equal(t, 1, session.visitCount())
	assert.True(t, hasEntry(hook, logrus.ErrorLevel, "Error extracting article details"))
}

func TestExtractSettleIsBounded(t *testing.T) {
	log, _ := newTestLog()
	e := NewArticleExtractor(testExtractionSettings(), 2*time.Second, log)
	session := newFakeSession()

	e.Extract(session, "https://a/one", 10*time.Second)
	e.Extract(session, "https://a/two", time.Second)

	assert.Equal(t, []time.Duration{2 * time.Second, time.Second}, session.settles)
}

// staticSource is a TextSource with a fixed answer
type staticSource struct {
	name string
	text string
	err  error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Extract(*PageSnapshot) (string, error) { return s.text, s.err }

func TestPageTextSourceChain(t *testing.T) {
	log, _ := newTestLog()
	e := &ArticleExtractor{log: log}
	e.AddSource(staticSource{name: "broken", err: errors.New("boom")})
	e.AddSource(staticSource{name: "blank", text: "   "})
	e.AddSource(staticSource{name: "good", text: " found it "})
	e.AddSource(staticSource{name: "unused", text: "never"})

	assert.Equal(t, "found it", e.pageText(&PageSnapshot{}))
}

func TestTruncateWithEllipsis(t *testing.T) {
	assert.Equal(t, "short", truncateWithEllipsis("short", 10))
	assert.Equal(t, "exact", truncateWithEllipsis("exact", 5))
	assert.Equal(t, "héllo...", truncateWithEllipsis("héllo wörld", 5))
	assert.Equal(t, "unbounded", truncateWithEllipsis("unbounded", 0))
}
