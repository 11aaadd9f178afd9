// Package checker runs the compiler against one file and turns its report
// into per-file diagnostics.
package checker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"elmdiag/internal/diag"
	"elmdiag/internal/elm/elmmake"
	"elmdiag/internal/elm/report"
	"elmdiag/internal/logging"
)

// ErrSpawn reports a compiler launch failure other than a missing executable.
var ErrSpawn = errors.New("failed to start elm make")

// Options configures a Checker.
type Options struct {
	// WorkspaceRoot is the base for "."-relative paths in compiler reports.
	WorkspaceRoot string
	// Logger defaults to the logger carried by the Check context.
	Logger *log.Logger
	// OnToolUnavailable is called each time the compiler cannot be found.
	OnToolUnavailable func(err error)
}

// Checker is safe for concurrent use; every Check is an independent run.
type Checker struct {
	invoker elmmake.Invoker
	opts    Options
}

func New(invoker elmmake.Invoker, opts Options) *Checker {
	return &Checker{invoker: invoker, opts: opts}
}

// Root returns the workspace root used for path resolution.
func (c *Checker) Root() string { return c.opts.WorkspaceRoot }

// Check compiles file and returns its diagnostics grouped per document.
//
// A missing compiler yields no groups and no error. A spawn failure wraps
// ErrSpawn; a malformed report line wraps report.ErrMalformedLine.
func (c *Checker) Check(ctx context.Context, file string) ([]diag.FileGroup, error) {
	logger := c.opts.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	logger = logger.With(logging.FieldFile, file)
	start := time.Now()

	inv, err := c.invoker.Make(ctx, file)
	if err != nil {
		if errors.Is(err, elmmake.ErrToolUnavailable) {
			logger.Info("elm compiler not available", logging.FieldError, err)
			if c.opts.OnToolUnavailable != nil {
				c.opts.OnToolUnavailable(err)
			}
			return nil, nil
		}
		logger.Error("elm make failed to start", logging.FieldError, err)
		return nil, fmt.Errorf("%w: %w", ErrSpawn, err)
	}
	defer func() {
		if cerr := inv.Close(); cerr != nil {
			logger.Debug("closing elm make stream", logging.FieldError, cerr)
		}
	}()
	logger.Debug("elm make started")

	issues, err := report.Parse(inv.Stderr())
	if err != nil {
		logger.Error("elm report unreadable", logging.FieldError, err)
		return nil, fmt.Errorf("check %s: %w", file, err)
	}
	if err := inv.Wait(); err != nil {
		logger.Error("elm make did not finish", logging.FieldError, err)
		return nil, fmt.Errorf("check %s: %w", file, err)
	}

	groups := MapGroups(GroupByFile(resolveAll(issues, c.opts.WorkspaceRoot)), c.opts.WorkspaceRoot)
	logger.Debug("elm make finished",
		logging.FieldIssues, len(issues),
		logging.FieldGroups, len(groups),
		logging.FieldDuration, time.Since(start),
	)
	return groups, nil
}

// MapGroups converts issue groups to diagnostic groups keyed by file URI.
// Paths still relative after resolution are taken against root, never the
// process working directory. Groups that land on the same URI are merged
// in first-seen order.
func MapGroups(groups []IssueGroup, root string) []diag.FileGroup {
	if len(groups) == 0 {
		return nil
	}
	out := make([]diag.FileGroup, 0, len(groups))
	index := make(map[string]int, len(groups))
	for _, g := range groups {
		path := g.Path
		if root != "" && !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		uri := diag.PathToURI(path)
		if i, ok := index[uri]; ok {
			out[i].Diagnostics = append(out[i].Diagnostics, diag.FromIssues(g.Issues)...)
			continue
		}
		index[uri] = len(out)
		out = append(out, diag.FileGroup{
			URI:         uri,
			Diagnostics: diag.FromIssues(g.Issues),
		})
	}
	return out
}
