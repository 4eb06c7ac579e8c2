package main

import "encoding/json"

// NewsItem is a single entry of a news_<category>.json document
type NewsItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	Published string `json:"published"`
	Summary   string `json:"summary,omitempty"`

	// set when the key was present in the decoded JSON, even if empty
	hasTitle  bool
	hasSource bool
}

// UnmarshalJSON records which of title and source were present
func (n *NewsItem) UnmarshalJSON(data []byte) error {
	type plain NewsItem
	aux := struct {
		*plain
		Title  *string `json:"title"`
		Source *string `json:"source"`
	}{plain: (*plain)(n)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Title != nil {
		n.Title, n.hasTitle = *aux.Title, true
	}
	if aux.Source != nil {
		n.Source, n.hasSource = *aux.Source, true
	}
	return nil
}

// TitleOr returns the title, or fallback when the item has none. A title
// decoded as "" is kept.
func (n NewsItem) TitleOr(fallback string) string {
	if n.Title != "" || n.hasTitle {
		return n.Title
	}
	return fallback
}

// SourceOr returns the source, or fallback when the item has none. A source
// decoded as "" is kept.
func (n NewsItem) SourceOr(fallback string) string {
	if n.Source != "" || n.hasSource {
		return n.Source
	}
	return fallback
}

// NewsDocument is the input document for one category.
// Articles is nil when the document has no "articles" field at all.
type NewsDocument struct {
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Articles []NewsItem             `json:"articles"`
}

// ProcessedArticle represents one Inshorts-style summary
type ProcessedArticle struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Source    string  `json:"source"`
	URL       string  `json:"url"`
	ImageURL  *string `json:"image_url"` // null when the page has no image
	Summary   string  `json:"summary"`
	Published string  `json:"published"`
}

// OutputMetadata describes how an output document was produced
type OutputMetadata struct {
	SourceFile     string `json:"source_file"`
	GenerationTime string `json:"generation_time"`
	TotalArticles  int    `json:"total_articles"`
}

// OutputDocument is written to inshorts_<category>.json
type OutputDocument struct {
	Metadata OutputMetadata     `json:"metadata"`
	Articles []ProcessedArticle `json:"articles"`
}

const generationTimeLayout = "2006-01-02 15:04:05"

// ProcessingStatus represents the outcome status of processing a category
type ProcessingStatus string

const (
	StatusSuccess ProcessingStatus = "success"
	StatusSkipped ProcessingStatus = "skipped"
	StatusError   ProcessingStatus = "error"
)

// CategoryResult tracks the outcome of processing one category
type CategoryResult struct {
	Category   string
	Status     ProcessingStatus
	InputFile  string
	OutputFile string
	Articles   int
	Error      error
}

// OK reports whether the category was written successfully. Skipped
// categories count as failures.
func (r CategoryResult) OK() bool {
	return r.Status == StatusSuccess
}

// RunResult counts categories processed during one run
type RunResult struct {
	Succeeded int
	Total     int
}

// ExitCode is 0 only when at least one category was attempted and all of them succeeded.
func (r RunResult) ExitCode() int {
	if r.Total > 0 && r.Succeeded == r.Total {
		return 0
	}
	return 1
}
