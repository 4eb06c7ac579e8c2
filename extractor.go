package main

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPlaceholderImage = "https://via.placeholder.com/300x150?text=No+Image"
	minParagraphLength      = 50
)

// ArticleDetails is what the extractor reads off a visited article page
type ArticleDetails struct {
	ResolvedURL string
	ImageURL    string
	Title       string
	Description string
	TextExcerpt string
	Err         error
}

// TextSource pulls readable text out of a loaded page
type TextSource interface {
	Name() string
	Extract(snapshot *PageSnapshot) (string, error)
}

// ReadabilitySource extracts the main article body. The cleaned HTML is
// rendered to markdown so block elements stay on separate lines.
type ReadabilitySource struct {
	converter *md.Converter
}

func (s *ReadabilitySource) Name() string { return "readability" }

func (s *ReadabilitySource) Extract(snapshot *PageSnapshot) (string, error) {
	pageURL, err := url.Parse(snapshot.URL)
	if err != nil {
		pageURL = nil
	}
	article, err := readability.FromReader(strings.NewReader(snapshot.HTML), pageURL)
	if err != nil {
		return "", errors.Wrap(err, "readability extraction failed")
	}
	if article.Content == "" {
		return article.TextContent, nil
	}
	markdown, err := s.converter.ConvertString(article.Content)
	if err != nil {
		return "", errors.Wrap(err, "converting readability content")
	}
	return markdown, nil
}

// BodyTextSource uses the rendered text of <body>
type BodyTextSource struct{}

func (s *BodyTextSource) Name() string { return "body" }

func (s *BodyTextSource) Extract(snapshot *PageSnapshot) (string, error) {
	return snapshot.BodyText, nil
}

// MarkdownSource converts the raw HTML to markdown (fallback)
type MarkdownSource struct {
	converter *md.Converter
}

func (s *MarkdownSource) Name() string { return "markdown" }

func (s *MarkdownSource) Extract(snapshot *PageSnapshot) (string, error) {
	markdown, err := s.converter.ConvertString(snapshot.HTML)
	if err != nil {
		return "", errors.Wrap(err, "converting HTML to markdown")
	}
	return markdown, nil
}

// ArticleExtractor visits article pages and pulls out image, description and text
type ArticleExtractor struct {
	sources          []TextSource
	descriptionMax   int
	excerptMax       int
	placeholderImage string
	settleMax        time.Duration
	log              *logrus.Entry
}

// NewArticleExtractor creates an extractor with the default text sources
func NewArticleExtractor(settings ExtractionSettings, settleMax time.Duration, log *logrus.Entry) *ArticleExtractor {
	e := &ArticleExtractor{
		descriptionMax:   settings.DescriptionMax,
		excerptMax:       settings.ExcerptMax,
		placeholderImage: settings.PlaceholderImage,
		settleMax:        settleMax,
		log:              log,
	}
	if e.placeholderImage == "" {
		e.placeholderImage = DefaultPlaceholderImage
	}

	// Rendered text first, then the raw HTML
	converter := md.NewConverter("", true, nil)
	e.AddSource(&BodyTextSource{})
	e.AddSource(&ReadabilitySource{converter: converter})
	e.AddSource(&MarkdownSource{converter: converter}) // fallback

	return e
}

// AddSource adds a text source to the chain
func (e *ArticleExtractor) AddSource(source TextSource) {
	e.sources = append(e.sources, source)
}

// Extract visits articleURL on the shared session. Failures never escape:
// they come back as details with the placeholder image and Err set.
func (e *ArticleExtractor) Extract(session Session, articleURL string, timeout time.Duration) ArticleDetails {
	log := e.log.WithField("url", articleURL)
	log.Info("Navigating to article")

	settle := timeout
	if settle > e.settleMax {
		settle = e.settleMax
	}

	snapshot, err := session.Visit(articleURL, settle)
	if err != nil {
		logFailure(log, err, "Error extracting article details")
		return ArticleDetails{ImageURL: e.placeholderImage, Err: err}
	}

	details, err := e.FromSnapshot(snapshot)
	if err != nil {
		logFailure(log, err, "Error extracting article details")
		return ArticleDetails{ImageURL: e.placeholderImage, Err: err}
	}
	return details
}

// FromSnapshot reads article details from an already loaded page
func (e *ArticleExtractor) FromSnapshot(snapshot *PageSnapshot) (ArticleDetails, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot.HTML))
	if err != nil {
		return ArticleDetails{}, errors.Wrap(err, "parsing page HTML")
	}

	details := ArticleDetails{
		ResolvedURL: snapshot.URL,
		Title:       strings.TrimSpace(snapshot.Title),
	}
	if details.Title == "" {
		details.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	// Open Graph first, then Twitter card, then the largest <img>
	details.ImageURL = firstNonEmpty(
		metaContent(doc, `meta[property="og:image"]`),
		metaContent(doc, `meta[name="twitter:image"]`),
		largestImage(doc),
	)
	if details.ImageURL != "" {
		e.log.WithField("image", details.ImageURL).Debug("Found article image")
	}

	description := firstNonEmpty(
		metaContent(doc, `meta[name="description"]`),
		metaContent(doc, `meta[property="og:description"]`),
		firstParagraph(doc),
	)
	details.Description = truncateWithEllipsis(description, e.descriptionMax)
	details.TextExcerpt = truncateWithEllipsis(e.pageText(snapshot), e.excerptMax)

	return details, nil
}

// pageText returns the first non-empty text from the source chain
func (e *ArticleExtractor) pageText(snapshot *PageSnapshot) string {
	for _, source := range e.sources {
		text, err := source.Extract(snapshot)
		if err != nil {
			e.log.WithError(err).Debugf("Text source %s failed", source.Name())
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return ""
}

func metaContent(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
}

// largestImage picks the absolute <img> with the largest declared area. Ties
// keep document order; images without dimensions count as zero.
func largestImage(doc *goquery.Document) string {
	best, bestArea := "", -1
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
			return
		}
		width, errW := strconv.Atoi(img.AttrOr("width", ""))
		height, errH := strconv.Atoi(img.AttrOr("height", ""))
		area := 0
		if errW == nil && errH == nil {
			area = width * height
		}
		if area > bestArea {
			best, bestArea = src, area
		}
	})
	return best
}

func firstParagraph(doc *goquery.Document) string {
	var found string
	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := strings.TrimSpace(p.Text())
		if len([]rune(text)) > minParagraphLength {
			found = text
			return false
		}
		return true
	})
	return found
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// truncateWithEllipsis cuts s to limit runes and marks the cut with "..."
func truncateWithEllipsis(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
