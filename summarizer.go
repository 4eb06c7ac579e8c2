package main

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	unknownTitle  = "Unknown Title"
	unknownSource = "Unknown Source"
)

// ArticleSummarizer loads a category's news, turns it into summaries using
// the shared browser session, and writes the result.
type ArticleSummarizer interface {
	LoadNewsData(path string) (*NewsDocument, error)
	ProcessNewsData(ctx context.Context, doc *NewsDocument, maxArticles int, session Session, timeout time.Duration, summaryLength int) ([]ProcessedArticle, error)
	SaveToJSON(doc *OutputDocument, path string) error
}

// InshortsSummarizer is the browser-backed ArticleSummarizer
type InshortsSummarizer struct {
	extractor *ArticleExtractor
	condenser Condenser
	log       *logrus.Entry
}

// NewInshortsSummarizer creates a summarizer from an extractor and a condenser
func NewInshortsSummarizer(extractor *ArticleExtractor, condenser Condenser, log *logrus.Entry) *InshortsSummarizer {
	return &InshortsSummarizer{
		extractor: extractor,
		condenser: condenser,
		log:       log,
	}
}

// LoadNewsData loads news data from a JSON file
func (s *InshortsSummarizer) LoadNewsData(path string) (*NewsDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading news data %s", path)
	}

	var doc NewsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing news data %s", path)
	}

	s.log.WithField("file", path).Info("Successfully loaded news data")
	return &doc, nil
}

// ProcessNewsData visits up to maxArticles items and summarizes each one.
// Items without a link are skipped. A failed page visit still produces an
// article, with the placeholder image.
func (s *InshortsSummarizer) ProcessNewsData(ctx context.Context, doc *NewsDocument, maxArticles int, session Session, timeout time.Duration, summaryLength int) ([]ProcessedArticle, error) {
	processed := make([]ProcessedArticle, 0)

	if doc == nil || doc.Articles == nil {
		s.log.Error("No 'articles' field found in the news data")
		return processed, nil
	}

	items := doc.Articles
	if maxArticles >= 0 && len(items) > maxArticles {
		items = items[:maxArticles]
	}
	s.log.Infof("Processing %d articles (max: %d)", len(items), maxArticles)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return processed, errors.Wrap(err, "processing interrupted")
		}

		if item.Link == "" {
			s.log.WithField("title", item.Title).Warn("No 'link' field found in article, skipping")
			continue
		}

		title := item.TitleOr(unknownTitle)
		source := item.SourceOr(unknownSource)

		s.log.WithFields(logrus.Fields{
			"source": source,
			"url":    item.Link,
		}).Infof("[%d/%d] → %s", i+1, len(items), title)

		details := s.extractor.Extract(session, item.Link, timeout)

		summary, err := s.summarize(details, summaryLength)
		if err != nil {
			s.log.WithError(err).WithField("url", item.Link).Warn("Summary generation failed")
			summary = noContentSummary
		}

		processed = append(processed, ProcessedArticle{
			ID:        generateArticleID(item.Link, title, source),
			Title:     title,
			Source:    source,
			URL:       valueOr(details.ResolvedURL, item.Link),
			ImageURL:  optionalString(details.ImageURL),
			Summary:   summary,
			Published: item.Published,
		})
	}

	return processed, nil
}

// summarize prefers the page text, then the description
func (s *InshortsSummarizer) summarize(details ArticleDetails, summaryLength int) (string, error) {
	switch {
	case details.TextExcerpt != "":
		return s.condenser.Condense(details.TextExcerpt, summaryLength)
	case details.Description != "":
		return s.condenser.Condense(details.Description, summaryLength)
	default:
		return noContentSummary, nil
	}
}

// SaveToJSON writes doc as indented JSON, creating parent directories
func (s *InshortsSummarizer) SaveToJSON(doc *OutputDocument, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return errors.Wrap(err, "encoding output document")
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}

	s.log.WithFields(logrus.Fields{
		"file":     path,
		"articles": len(doc.Articles),
	}).Info("Inshorts-style summaries saved")
	return nil
}

// generateArticleID hashes url, title and source into a stable identifier
func generateArticleID(url, title, source string) string {
	sum := md5.Sum([]byte(url + "|" + title + "|" + source))
	return hex.EncodeToString(sum[:])
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
