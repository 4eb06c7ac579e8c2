package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	defaultBaseURL   = "https://news.google.com"
	timestampLayout  = "2006-01-02 15:04:05"
	feedFetchTimeout = 30 * time.Second

	// Item.Custom key holding the RSS <source> publisher
	customSourceKey = "source"
)

// Feed types understood by --type
const (
	feedTop    = "top"
	feedTopic  = "topic"
	feedSearch = "search"
	feedGeo    = "geo"
)

// FeedOptions selects which Google News feed to read
type FeedOptions struct {
	Type     string
	Topic    string
	Query    string
	When     string
	Location string
	Language string
	Country  string
	BaseURL  string
}

// Article is one entry of news_<category>.json
type Article struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published"`
	Summary   string `json:"summary"`
	Source    string `json:"source"`
}

// Metadata describes how a news file was produced
type Metadata struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Info      string `json:"info"`
	Count     int    `json:"count"`
}

// NewsFile is the document consumed by inshorts-writer
type NewsFile struct {
	Metadata Metadata  `json:"metadata"`
	Articles []Article `json:"articles"`
}

var (
	opts       FeedOptions
	outputFile string
	debugMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "fetch-news",
	Short: "Fetch a Google News RSS feed into a news_<category>.json file",
	Long: `Reads top stories, a topic, a search or a location feed from Google News
and writes the items in the format inshorts-writer consumes.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logrus.New()
		log.SetOutput(cmd.ErrOrStderr())
		if debugMode {
			log.SetLevel(logrus.DebugLevel)
		}

		feedURL, err := buildFeedURL(opts)
		if err != nil {
			return err
		}
		log.WithField("url", feedURL).Info("Fetching feed")

		ctx, cancel := context.WithTimeout(cmd.Context(), feedFetchTimeout)
		defer cancel()

		feed, err := newFeedParser().ParseURLWithContext(feedURL, ctx)
		if err != nil {
			return errors.Wrapf(err, "fetching %s", feedURL)
		}

		doc := buildNewsFile(feed, opts, time.Now())
		if err := writeNewsFile(doc, outputFile); err != nil {
			return err
		}

		log.WithFields(logrus.Fields{
			"file":     outputFile,
			"articles": doc.Metadata.Count,
		}).Info("News saved")
		return nil
	},
}

// buildFeedURL returns the RSS address for the requested feed type
func buildFeedURL(o FeedOptions) (string, error) {
	base := strings.TrimRight(o.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}

	var path string
	switch o.Type {
	case feedTop:
		path = "/rss"
	case feedTopic:
		if o.Topic == "" {
			return "", errors.New("--topic is required for --type topic")
		}
		path = "/rss/headlines/section/topic/" + url.PathEscape(strings.ToUpper(o.Topic))
	case feedSearch:
		if o.Query == "" {
			return "", errors.New("--query is required for --type search")
		}
		q := o.Query
		if o.When != "" {
			q += " when:" + o.When
		}
		path = "/rss/search?q=" + url.QueryEscape(q)
	case feedGeo:
		if o.Location == "" {
			return "", errors.New("--location is required for --type geo")
		}
		path = "/rss/headlines/section/geo/" + url.PathEscape(o.Location)
	default:
		return "", errors.Errorf("unknown feed type %q (want top, topic, search or geo)", o.Type)
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	locale := fmt.Sprintf("hl=%s-%s&gl=%s&ceid=%s:%s", o.Language, o.Country, o.Country, o.Country, o.Language)
	return base + path + sep + locale, nil
}

// sourceTranslator is the default RSS translator that also keeps each
// item's <source> element, which the generic Item drops.
type sourceTranslator struct {
	gofeed.DefaultRSSTranslator
}

func (t *sourceTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	result, err := t.DefaultRSSTranslator.Translate(feed)
	if err != nil {
		return nil, err
	}

	rssFeed := feed.(*rss.Feed)
	for i, item := range rssFeed.Items {
		if i >= len(result.Items) || item.Source == nil {
			continue
		}
		if result.Items[i].Custom == nil {
			result.Items[i].Custom = make(map[string]string)
		}
		result.Items[i].Custom[customSourceKey] = strings.TrimSpace(item.Source.Title)
	}
	return result, nil
}

func newFeedParser() *gofeed.Parser {
	parser := gofeed.NewParser()
	parser.RSSTranslator = &sourceTranslator{}
	return parser
}

func buildNewsFile(feed *gofeed.Feed, o FeedOptions, now time.Time) NewsFile {
	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		articles = append(articles, Article{
			Title:     item.Title,
			Link:      item.Link,
			Published: item.Published,
			Summary:   item.Description,
			Source:    itemSource(item),
		})
	}

	return NewsFile{
		Metadata: Metadata{
			Type:      o.Type,
			Timestamp: now.Format(timestampLayout),
			Info:      feedInfo(o),
			Count:     len(articles),
		},
		Articles: articles,
	}
}

// itemSource prefers the <source> element and falls back to the
// "Headline - Publisher" suffix Google News puts on titles.
func itemSource(item *gofeed.Item) string {
	if source := item.Custom[customSourceKey]; source != "" {
		return source
	}
	return publisherFromTitle(item.Title)
}

func publisherFromTitle(title string) string {
	i := strings.LastIndex(title, " - ")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(title[i+3:])
}

func feedInfo(o FeedOptions) string {
	switch o.Type {
	case feedTopic:
		return "topic: " + strings.ToUpper(o.Topic)
	case feedSearch:
		return "search: " + o.Query
	case feedGeo:
		return "location: " + o.Location
	default:
		return fmt.Sprintf("top stories (%s-%s)", o.Language, o.Country)
	}
}

func writeNewsFile(doc NewsFile, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "creating directory for %s", path)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding news file")
	}

	return errors.Wrapf(os.WriteFile(path, data, 0644), "writing %s", path)
}

func init() {
	rootCmd.Flags().StringVar(&opts.Type, "type", feedTop, "Feed type: top, topic, search or geo")
	rootCmd.Flags().StringVar(&opts.Topic, "topic", "", "Topic for --type topic (WORLD, NATION, BUSINESS, TECHNOLOGY, ENTERTAINMENT, SPORTS, SCIENCE, HEALTH)")
	rootCmd.Flags().StringVar(&opts.Query, "query", "", "Search terms for --type search")
	rootCmd.Flags().StringVar(&opts.When, "when", "", "Time window for --type search, e.g. 1h or 7d")
	rootCmd.Flags().StringVar(&opts.Location, "location", "", "Location for --type geo")
	rootCmd.Flags().StringVar(&opts.Language, "language", "en", "Feed language")
	rootCmd.Flags().StringVar(&opts.Country, "country", "US", "Feed country")
	rootCmd.Flags().StringVar(&opts.BaseURL, "base-url", defaultBaseURL, "Google News base URL")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "data/news_top.json", "Output file")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}
