package main

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Run phases, logged on every transition
const (
	phaseConfiguring     = "configuring"
	phaseDiscovering     = "discovering"
	phaseSessionStarting = "session_starting"
	phaseProcessing      = "processing"
	phaseSessionClosing  = "session_closing"
	phaseReporting       = "reporting"
)

// RunConfig holds everything one run needs
type RunConfig struct {
	// Categories overrides discovery when non-empty
	Categories []string
	Processor  ProcessorOptions
	Session    SessionOptions
}

// Runner owns the shared browser session for the length of one run
type Runner struct {
	cfg        RunConfig
	processor  Processor
	newSession SessionFactory
	log        *logrus.Entry
}

// NewRunner creates a runner. newSession is called at most once per Run.
func NewRunner(cfg RunConfig, processor Processor, newSession SessionFactory, log *logrus.Entry) *Runner {
	return &Runner{
		cfg:        cfg,
		processor:  processor,
		newSession: newSession,
		log:        log,
	}
}

// Run resolves the categories, acquires one browser session, processes every
// category in order and always releases the session. The exit code is 0 only
// when every category succeeded.
func (r *Runner) Run(ctx context.Context) (result RunResult, exitCode int) {
	defer func() {
		if rec := recover(); rec != nil {
			r.phase(phaseReporting).WithError(fmt.Errorf("%v", rec)).Error("Unhandled error")
			r.log.Error(string(debug.Stack()))
			r.report(result)
			exitCode = 1
		}
	}()

	r.phase(phaseConfiguring).WithFields(logrus.Fields{
		"input_dir":      r.cfg.Processor.InputDir,
		"output_dir":     r.cfg.Processor.OutputDir,
		"max_articles":   r.cfg.Processor.MaxArticles,
		"timeout":        r.cfg.Processor.Timeout.String(),
		"summary_length": r.cfg.Processor.SummaryLength,
		"headless":       r.cfg.Session.Headless,
	}).Debug("Run configured")

	categories, err := r.resolveCategories()
	if errors.Is(err, ErrNoCategories) {
		r.phase(phaseReporting).Errorf("No news categories found in %s", r.cfg.Processor.InputDir)
		return result, 1
	}
	if err != nil {
		logFailure(r.phase(phaseReporting), err, "Error resolving categories")
		return result, 1
	}
	result.Total = len(categories)
	r.log.Infof("Found %d news categories: %s", len(categories), strings.Join(categories, ", "))

	r.phase(phaseSessionStarting).Info("Setting up shared browser instance for all categories...")
	session, err := r.newSession(r.cfg.Session, r.log)
	if err != nil {
		var startErr *SessionStartError
		if !errors.As(err, &startErr) {
			err = &SessionStartError{Stage: "start", Err: err}
		}
		logFailure(r.phase(phaseReporting), err, "Error setting up shared browser")
		return result, 1
	}

	r.processAll(ctx, categories, session, &result)

	r.report(result)
	return result, result.ExitCode()
}

// resolveCategories returns the explicit list or runs discovery
func (r *Runner) resolveCategories() ([]string, error) {
	r.phase(phaseDiscovering).Debug("Resolving categories")

	categories := r.cfg.Categories
	if len(categories) == 0 {
		discovered, err := DiscoverCategories(r.cfg.Processor.InputDir)
		if err != nil {
			return nil, err
		}
		categories = discovered
	}

	if len(categories) == 0 {
		return nil, errors.Wrapf(ErrNoCategories, "in %s", r.cfg.Processor.InputDir)
	}
	return categories, nil
}

// processAll runs every category against the session, counting successes
// into result as it goes. The deferred release runs even when a category
// panics past the processor.
func (r *Runner) processAll(ctx context.Context, categories []string, session Session, result *RunResult) {
	defer r.release(session)

	for i, category := range categories {
		if err := ctx.Err(); err != nil {
			r.phase(phaseProcessing).WithError(err).Warnf("Run interrupted, %d categories not attempted", len(categories)-i)
			break
		}

		r.phase(phaseProcessing).Infof("[%d/%d] Category: %s", i+1, len(categories), category)
		if r.processor.Process(ctx, category, session).OK() {
			result.Succeeded++
		}
	}
}

func (r *Runner) report(result RunResult) {
	r.phase(phaseReporting).Infof("Processed %d/%d categories successfully", result.Succeeded, result.Total)
}

func (r *Runner) release(session Session) {
	r.phase(phaseSessionClosing).Info("Cleaning up shared browser instance...")
	if err := session.Close(); err != nil {
		r.log.WithError(err).Warn("Error closing shared browser")
	}
}

func (r *Runner) phase(name string) *logrus.Entry {
	return r.log.WithField("phase", name)
}
