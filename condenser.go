package main

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aktagon/llmkit/anthropic/agents"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Summarizer modes
const (
	SummarizerExtractive = "extractive"
	SummarizerLLM        = "llm"
)

const (
	DefaultSummaryLength = 60
	noContentSummary     = "No content available for summarization."
	minLineLength        = 30
	minSentenceLength    = 10
)

const condenserSystemPrompt = `You write Inshorts-style news summaries: one short paragraph, neutral tone, no headline, no bullet points, no preamble. Use only facts present in the source text.`

// Condenser reduces article text to a summary of at most maxWords words
type Condenser interface {
	Condense(text string, maxWords int) (string, error)
}

// ExtractiveCondenser keeps the leading sentences of the article
type ExtractiveCondenser struct{}

func (ExtractiveCondenser) Condense(text string, maxWords int) (string, error) {
	return GenerateSummary(text, maxWords), nil
}

// GenerateSummary builds a summary from the first sentences of text that fit
// in maxWords. Navigation-like lines (short, "Skip to...", all caps) are
// dropped first. A sentence that does not fit is cut and ends with "...".
func GenerateSummary(text string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = DefaultSummaryLength
	}

	cleaned := cleanArticleText(text)

	var summary strings.Builder
	wordCount := 0
	for _, sentence := range splitSentences(cleaned) {
		words := strings.Fields(sentence)
		if wordCount+len(words) <= maxWords {
			summary.WriteString(sentence)
			summary.WriteString(" ")
			wordCount += len(words)
			continue
		}

		if remaining := maxWords - wordCount; remaining > 0 {
			summary.WriteString(strings.Join(words[:remaining], " "))
			summary.WriteString("...")
		}
		break
	}

	if summary.Len() == 0 {
		if cleaned == "" {
			return noContentSummary
		}
		return limitWords(cleaned, maxWords)
	}

	return strings.TrimSpace(summary.String())
}

// cleanArticleText keeps lines that look like prose and joins them
func cleanArticleText(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) <= minLineLength {
			continue
		}
		if strings.HasPrefix(line, "Skip to") || isAllUpper(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, " ")
}

// splitSentences breaks text at '.', '!' or '?' once the running sentence is
// longer than minSentenceLength characters.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if trimmed := strings.TrimSpace(current.String()); utf8.RuneCountInString(trimmed) > minSentenceLength {
			sentences = append(sentences, trimmed)
			current.Reset()
		}
	}
	if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
		sentences = append(sentences, trimmed)
	}
	return sentences
}

// isAllUpper reports whether s has cased letters and none of them is lower case
func isAllUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// limitWords returns the first maxWords words of text, with "..." when cut
func limitWords(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ") + "..."
}

// LLMCondenser asks Claude for the summary and falls back to the extractive
// summary when the call fails or returns nothing.
type LLMCondenser struct {
	apiKey   string
	settings SummarizerSettings
	fallback Condenser
	log      *logrus.Entry
}

// NewLLMCondenser creates a condenser backed by the Anthropic API
func NewLLMCondenser(apiKey string, settings SummarizerSettings, log *logrus.Entry) (*LLMCondenser, error) {
	if apiKey == "" {
		return nil, errors.New("API key required for llm summarizer: set ANTHROPIC_API_KEY")
	}
	return &LLMCondenser{
		apiKey:   apiKey,
		settings: settings,
		fallback: ExtractiveCondenser{},
		log:      log,
	}, nil
}

func (c *LLMCondenser) Condense(text string, maxWords int) (string, error) {
	if maxWords <= 0 {
		maxWords = DefaultSummaryLength
	}
	if strings.TrimSpace(text) == "" {
		return noContentSummary, nil
	}

	// A fresh agent per article keeps earlier articles out of the conversation
	agent, err := agents.New(c.apiKey)
	if err != nil {
		return c.fallbackSummary(text, maxWords, errors.Wrap(err, "creating summary agent"))
	}

	prompt := fmt.Sprintf("Summarize the following article in at most %d words.\n\nSource content:\n%s",
		maxWords, limitContentTokens(text, c.settings.ContentMaxTokens))

	response, err := agent.Chat(prompt, &agents.ChatOptions{
		SystemPrompt: condenserSystemPrompt,
		MaxTokens:    c.settings.MaxTokens,
		Temperature:  c.settings.Temperature,
	})
	if err != nil {
		return c.fallbackSummary(text, maxWords, errors.Wrap(err, "summary agent chat"))
	}

	summary := strings.TrimSpace(response.Text)
	if summary == "" {
		return c.fallbackSummary(text, maxWords, errors.New("summary agent returned no text"))
	}
	return limitWords(summary, maxWords), nil
}

func (c *LLMCondenser) fallbackSummary(text string, maxWords int, cause error) (string, error) {
	c.log.WithError(cause).Warn("LLM summary failed, using extractive summary")
	return c.fallback.Condense(text, maxWords)
}

// limitContentTokens limits content to approximately N tokens (using 4 chars ≈ 1 token)
func limitContentTokens(content string, maxTokens int) string {
	if maxTokens <= 0 {
		return content
	}
	maxChars := maxTokens * 4
	runes := []rune(content)
	if len(runes) <= maxChars {
		return content
	}
	return string(runes[:maxChars]) + "..."
}

// newCondenser picks the condenser for the configured mode
func newCondenser(settings SummarizerSettings, apiKey string, log *logrus.Entry) (Condenser, error) {
	switch settings.Mode {
	case "", SummarizerExtractive:
		return ExtractiveCondenser{}, nil
	case SummarizerLLM:
		return NewLLMCondenser(apiKey, settings, log)
	default:
		return nil, errors.Errorf("unknown summarizer mode %q", settings.Mode)
	}
}
