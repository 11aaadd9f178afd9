package checkrun

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"elmdiag/internal/checker"
	"elmdiag/internal/elm/elmmake"
	"elmdiag/internal/logging"
	"elmdiag/internal/project"
)

// InvokerFunc builds the compiler invoker for one file.
type InvokerFunc func(tool, dir string) elmmake.Invoker

// Request describes a multi-file check.
type Request struct {
	Files []string
	// Jobs bounds concurrent elm make runs; <= 0 means GOMAXPROCS.
	Jobs    int
	ElmPath string
	// Root overrides per-file workspace root discovery.
	Root       string
	NewInvoker InvokerFunc
	Progress   ProgressSink
	Logger     *log.Logger
	// OnToolUnavailable is forwarded to every checker.
	OnToolUnavailable func(error)
}

// Run checks every file. Runs are independent: one failure neither cancels
// nor hides the others, and results keep request order.
func Run(ctx context.Context, req *Request) (Result, error) {
	if req == nil {
		return Result{}, fmt.Errorf("missing check request")
	}
	logger := req.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	newInvoker := req.NewInvoker
	if newInvoker == nil {
		newInvoker = func(tool, dir string) elmmake.Invoker {
			return &elmmake.ExecInvoker{Tool: tool, Dir: dir}
		}
	}
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	result := Result{Files: make([]FileResult, len(req.Files))}
	for i, file := range req.Files {
		result.Files[i].File = file
		emit(req.Progress, Event{File: file, Status: StatusQueued})
	}

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, file := range req.Files {
		g.Go(func() error {
			result.Files[i] = checkOne(ctx, req, newInvoker, logger, file)
			return nil
		})
	}
	_ = g.Wait()
	return result, nil
}

func checkOne(ctx context.Context, req *Request, newInvoker InvokerFunc, logger *log.Logger, file string) FileResult {
	start := time.Now()
	out := FileResult{File: file}
	emit(req.Progress, Event{File: file, Status: StatusChecking})

	abs, err := filepath.Abs(file)
	if err != nil {
		out.Err = fmt.Errorf("%s: %w", file, err)
		emit(req.Progress, Event{File: file, Status: StatusError, Err: out.Err})
		return out
	}
	root := req.Root
	if root == "" {
		if root, err = project.WorkspaceRootFor(abs); err != nil {
			out.Err = err
			emit(req.Progress, Event{File: file, Status: StatusError, Err: err})
			return out
		}
	}

	c := checker.New(newInvoker(req.ElmPath, root), checker.Options{
		WorkspaceRoot:     root,
		Logger:            logger,
		OnToolUnavailable: req.OnToolUnavailable,
	})
	out.Groups, out.Err = c.Check(ctx, abs)
	out.Elapsed = time.Since(start)

	evt := Event{File: file, Status: StatusDone, Elapsed: out.Elapsed}
	if out.Err != nil {
		evt.Status = StatusError
		evt.Err = out.Err
	}
	for _, g := range out.Groups {
		evt.Diagnostics += len(g.Diagnostics)
	}
	emit(req.Progress, evt)
	return out
}
