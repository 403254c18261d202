package processor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pixie/pkg/imgutil"
)

// BatchProcessor applies one Config to every supported image of a directory.
type BatchProcessor struct {
	cfg     Config
	threads int
	logger  *zap.Logger
}

// NewBatchProcessor validates cfg once for the whole run. threads of 0 means
// one worker per CPU.
func NewBatchProcessor(cfg Config, threads int, logger *zap.Logger) (*BatchProcessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if threads < 0 {
		return nil, invalidParameter("threads must not be negative, got %d", threads)
	}
	if threads == 0 {
		threads = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{cfg: cfg, threads: threads, logger: logger}, nil
}

// Threads returns the worker pool size.
func (b *BatchProcessor) Threads() int {
	return b.threads
}

// ValidatePaths checks that in is an existing directory and that out, when it
// already exists, is a directory too.
func ValidatePaths(in, out string) error {
	info, err := os.Stat(in)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: input directory %s", ErrNotFound, in)
		}
		return err
	}
	if !info.IsDir() {
		return invalidParameter("input %s is not a directory", in)
	}

	if out == "" {
		return invalidParameter("output directory is required")
	}
	info, err = os.Stat(out)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return invalidParameter("output %s is not a directory", out)
	}
	return nil
}

// Discover lists the supported images under in and assigns each one a
// distinct destination inside out. Only the top level is visited unless
// recursive is set.
func (b *BatchProcessor) Discover(in, out string, recursive bool) ([]FileTask, error) {
	absIn, err := filepath.Abs(in)
	if err != nil {
		return nil, err
	}
	absIn = filepath.Clean(absIn)

	var absOut string
	if a, err := filepath.Abs(out); err == nil {
		absOut = filepath.Clean(a)
	}
	skipOut := absOut != "" && absOut != absIn && isWithin(absOut, absIn)

	var tasks []FileTask
	taken := make(map[string]struct{})

	err = fs.WalkDir(os.DirFS(absIn), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path == "." {
				return nil
			}
			if !recursive {
				return fs.SkipDir
			}
			if skipOut && isWithin(filepath.Join(absIn, path), absOut) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !imgutil.IsSupported(path) {
			return nil
		}

		src := filepath.Join(absIn, filepath.FromSlash(path))
		tasks = append(tasks, FileTask{
			Source:      src,
			Destination: b.destination(out, filepath.Base(src), taken),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// destination flattens base into out, swapping the extension for an explicit
// target format and appending -2, -3, ... on collisions.
func (b *BatchProcessor) destination(out, base string, taken map[string]struct{}) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if kind := b.cfg.Format.Kind(); kind != imgutil.KindUnknown {
		ext = kind.Extension()
	}

	name := stem + ext
	for n := 2; ; n++ {
		key := strings.ToLower(name)
		if _, ok := taken[key]; !ok {
			taken[key] = struct{}{}
			break
		}
		name = fmt.Sprintf("%s-%d%s", stem, n, ext)
	}
	return filepath.Join(out, name)
}

// ProcessDirectory runs the pipeline over every discovered image with a
// fixed pool of workers. Per-file failures end up in BatchStats.Errors; only
// run-level problems are returned as an error. Cancelling ctx stops new files
// from being started, files already in flight still finish.
//
// updates, when non-nil, receives counter deltas and is not closed.
func (b *BatchProcessor) ProcessDirectory(ctx context.Context, in, out string, recursive bool, updates chan<- ProgressUpdate) (BatchStats, error) {
	var stats BatchStats

	if err := ValidatePaths(in, out); err != nil {
		return stats, err
	}
	tasks, err := b.Discover(in, out, recursive)
	if err != nil {
		return stats, err
	}
	if len(tasks) == 0 {
		b.logger.Warn("no supported images found", zap.String("input", in))
		return stats, nil
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return stats, err
	}

	b.logger.Info("starting batch",
		zap.String("input", in),
		zap.String("output", out),
		zap.Int("files", len(tasks)),
		zap.Int("threads", b.threads),
	)
	if updates != nil {
		updates <- ProgressUpdate{TotalDelta: len(tasks)}
	}

	jobs := make(chan FileTask)
	results := make(chan Result)
	proc := NewImageProcessor(b.cfg, b.logger)

	eg := new(errgroup.Group)
	eg.Go(func() error {
		defer close(jobs)
		for _, task := range tasks {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case jobs <- task:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for i := 0; i < b.threads; i++ {
		eg.Go(func() error {
			for task := range jobs {
				results <- runTask(proc, task)
			}
			return nil
		})
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			stats.merge(res)
			if res.Err != nil {
				b.logger.Debug("file failed", zap.String("path", res.Task.Source), zap.Error(res.Err))
			}
			if updates != nil {
				updates <- progressFor(res)
			}
		}
	}()

	err = eg.Wait()
	close(results)
	<-collectorDone

	// context.Canceled ends a run early without an error, a deadline does not.
	if err != nil && !errors.Is(err, context.Canceled) {
		return stats, err
	}
	return stats, nil
}

// runTask processes one file and turns a panic into an ErrProcessing result.
func runTask(proc *ImageProcessor, task FileTask) (res Result) {
	res.Task = task
	defer func() {
		if r := recover(); r != nil {
			res.Stats = ProcessingStats{}
			res.Err = fmt.Errorf("%w: panic: %v", ErrProcessing, r)
		}
	}()
	res.Stats, res.Err = proc.Process(task.Source, task.Destination)
	return res
}

func progressFor(res Result) ProgressUpdate {
	if res.Err != nil {
		return ProgressUpdate{ErrorDelta: 1}
	}
	return ProgressUpdate{
		ProcessedDelta:   1,
		BytesBeforeDelta: res.Stats.InputSize,
		BytesAfterDelta:  res.Stats.OutputSize,
	}
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
