package main

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrNoCategories is returned when neither --categories nor the input
	// directory yields a category to process.
	ErrNoCategories = stderrors.New("no news categories found")

	// ErrCategoryInputMissing marks a category whose news_<category>.json does not exist.
	ErrCategoryInputMissing = stderrors.New("input file not found")
)

// SessionStartError represents a failure to bring up the shared browser
type SessionStartError struct {
	Stage string
	Err   error
}

func (e *SessionStartError) Error() string {
	return fmt.Sprintf("starting shared browser (%s): %v", e.Stage, e.Err)
}

func (e *SessionStartError) Unwrap() error {
	return e.Err
}

// CategoryError represents a failure inside one category. It never aborts the run.
type CategoryError struct {
	Category string
	Stage    string
	Err      error
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("category %s: %s: %v", e.Category, e.Stage, e.Err)
}

func (e *CategoryError) Unwrap() error {
	return e.Err
}
