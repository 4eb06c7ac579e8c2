package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	inputPrefix  = "news_"
	outputPrefix = "inshorts_"
	fileSuffix   = ".json"
)

// DiscoverCategories returns the categories that have a news_<category>.json
// file in inputDir, sorted. A missing directory yields no categories.
func DiscoverCategories(inputDir string) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading input directory %s", inputDir)
	}

	var categories []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if category, ok := categoryFromFilename(entry.Name()); ok {
			categories = append(categories, category)
		}
	}

	sort.Strings(categories)
	return categories, nil
}

// categoryFromFilename strips the news_ prefix and .json suffix
func categoryFromFilename(name string) (string, bool) {
	if !strings.HasPrefix(name, inputPrefix) || !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	category := strings.TrimSuffix(strings.TrimPrefix(name, inputPrefix), fileSuffix)
	if category == "" {
		return "", false
	}
	return category, true
}

func inputPath(inputDir, category string) string {
	return filepath.Join(inputDir, inputPrefix+category+fileSuffix)
}

func outputPath(outputDir, category string) string {
	return filepath.Join(outputDir, outputPrefix+category+fileSuffix)
}
