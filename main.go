package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	inputDir       string
	outputDir      string
	maxArticles    int
	timeoutSeconds int
	summaryLength  int
	headless       bool
	categories     []string
	configFile     string
	summarizerMode string
	debugMode      bool
	logFormat      string

	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "inshorts-writer",
	Short: "Generate Inshorts-style summaries for all news categories",
	Long: `Reads news_<category>.json files, visits every article with one shared
headless browser and writes short summaries to inshorts_<category>.json.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFlags(); err != nil {
			return err
		}

		// .env is optional; it only matters for the llm summarizer
		_ = godotenv.Load()

		logger, err := NewLogger(cmd.ErrOrStderr(), debugMode, logFormat)
		if err != nil {
			return err
		}
		log := logger.WithField("run_id", uuid.NewString())

		settings, err := LoadSettings(configFile)
		if err != nil {
			return errors.Wrap(err, "failed to load settings")
		}
		if cmd.Flags().Changed("summarizer") {
			settings.Summarizer.Mode = summarizerMode
			if err := settings.validate(); err != nil {
				return err
			}
		}

		condenser, err := newCondenser(settings.Summarizer, os.Getenv("ANTHROPIC_API_KEY"), log)
		if err != nil {
			return errors.Wrap(err, "failed to create summarizer")
		}
		extractor := NewArticleExtractor(settings.Extraction, settings.SettleMax(), log)
		summarizer := NewInshortsSummarizer(extractor, condenser, log)

		cfg := RunConfig{
			Categories: categories,
			Processor: ProcessorOptions{
				InputDir:      inputDir,
				OutputDir:     outputDir,
				MaxArticles:   maxArticles,
				Timeout:       time.Duration(timeoutSeconds) * time.Second,
				SummaryLength: summaryLength,
			},
			Session: SessionOptions{
				Headless:        headless,
				UserAgent:       settings.Browser.UserAgent,
				PageLoadTimeout: settings.PageLoadTimeout(),
				ViewportWidth:   settings.Browser.ViewportWidth,
				ViewportHeight:  settings.Browser.ViewportHeight,
				Install:         settings.Browser.Install,
			},
		}

		processor := NewCategoryProcessor(cfg.Processor, summarizer, log)
		runner := NewRunner(cfg, processor, AcquireSession, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		_, exitCode = runner.Run(ctx)
		return nil
	},
}

func validateFlags() error {
	if maxArticles < 0 {
		return errors.Errorf("--max-articles must not be negative, got %d", maxArticles)
	}
	if timeoutSeconds <= 0 {
		return errors.Errorf("--timeout must be positive, got %d", timeoutSeconds)
	}
	if summaryLength <= 0 {
		return errors.Errorf("--summary-length must be positive, got %d", summaryLength)
	}
	return nil
}

func init() {
	rootCmd.Flags().StringVar(&inputDir, "input-dir", "data", "Directory containing news JSON files")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", "data/inshorts", "Directory to save Inshorts-style summaries")
	rootCmd.Flags().IntVar(&maxArticles, "max-articles", 20, "Maximum number of articles to process per category")
	rootCmd.Flags().IntVar(&timeoutSeconds, "timeout", 10, "Timeout in seconds for each article")
	rootCmd.Flags().IntVar(&summaryLength, "summary-length", DefaultSummaryLength, "Maximum length of summary in words")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "Run browser in headless mode (--headless=false to show the window)")
	rootCmd.Flags().StringSliceVar(&categories, "categories", nil, "Specific categories to process (default: all available)")
	rootCmd.Flags().StringVar(&configFile, "config", "", "Path to settings file (default: .inshorts/settings.yaml, then built-in)")
	rootCmd.Flags().StringVar(&summarizerMode, "summarizer", SummarizerExtractive, "Summary mode: extractive or llm")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
