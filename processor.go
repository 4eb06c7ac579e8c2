// processor.go
package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ProcessorOptions holds the per-category settings shared by every category of a run
type ProcessorOptions struct {
	InputDir      string
	OutputDir     string
	MaxArticles   int
	Timeout       time.Duration // per article page
	SummaryLength int           // words
}

// Processor turns one category into its output file
type Processor interface {
	Process(ctx context.Context, category string, session Session) CategoryResult
}

// CategoryProcessor handles a single category using a borrowed session
type CategoryProcessor struct {
	opts       ProcessorOptions
	summarizer ArticleSummarizer
	log        *logrus.Entry
	now        func() time.Time
}

// NewCategoryProcessor creates a processor around an ArticleSummarizer
func NewCategoryProcessor(opts ProcessorOptions, summarizer ArticleSummarizer, log *logrus.Entry) *CategoryProcessor {
	return &CategoryProcessor{
		opts:       opts,
		summarizer: summarizer,
		log:        log,
		now:        time.Now,
	}
}

// Process loads news_<category>.json, summarizes up to MaxArticles items and
// writes inshorts_<category>.json. It never returns an error or panics; the
// outcome is carried by the result.
func (p *CategoryProcessor) Process(ctx context.Context, category string, session Session) (result CategoryResult) {
	result = CategoryResult{
		Category:   category,
		InputFile:  inputPath(p.opts.InputDir, category),
		OutputFile: outputPath(p.opts.OutputDir, category),
	}
	log := p.log.WithField("category", category)

	// Skip if input file doesn't exist
	if _, err := os.Stat(result.InputFile); err != nil {
		log.Warnf("Input file not found: %s", result.InputFile)
		result.Status = StatusSkipped
		result.Error = errors.Wrap(ErrCategoryInputMissing, result.InputFile)
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			err := &CategoryError{Category: category, Stage: "panic", Err: fmt.Errorf("%v", r)}
			log.WithError(err).Errorf("✗ Error processing category %s", category)
			log.Error(string(debug.Stack()))
			result.Status = StatusError
			result.Error = err
		}
	}()

	if err := os.MkdirAll(p.opts.OutputDir, 0755); err != nil {
		return p.fail(log, result, "prepare output", errors.Wrapf(err, "creating output directory %s", p.opts.OutputDir))
	}

	log.Infof("→ Processing category: %s", category)

	doc, err := p.summarizer.LoadNewsData(result.InputFile)
	if err != nil {
		return p.fail(log, result, "load", err)
	}

	articles, err := p.summarizer.ProcessNewsData(ctx, doc, p.opts.MaxArticles, session, p.opts.Timeout, p.opts.SummaryLength)
	if err != nil {
		return p.fail(log, result, "summarize", err)
	}
	if articles == nil {
		articles = []ProcessedArticle{}
	}

	output := &OutputDocument{
		Metadata: OutputMetadata{
			SourceFile:     result.InputFile,
			GenerationTime: p.now().Format(generationTimeLayout),
			TotalArticles:  len(articles),
		},
		Articles: articles,
	}

	if err := p.summarizer.SaveToJSON(output, result.OutputFile); err != nil {
		return p.fail(log, result, "save", err)
	}

	result.Status = StatusSuccess
	result.Articles = len(articles)
	log.Infof("✓ Successfully processed category: %s (%d articles)", category, len(articles))
	return result
}

func (p *CategoryProcessor) fail(log *logrus.Entry, result CategoryResult, stage string, err error) CategoryResult {
	if stackTrace(err) == "" {
		err = errors.WithStack(err)
	}
	result.Status = StatusError
	result.Error = &CategoryError{Category: result.Category, Stage: stage, Err: err}
	logFailure(log, result.Error, "✗ Error processing category %s", result.Category)
	return result
}
