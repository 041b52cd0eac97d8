package harvest

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vsix-harvester/vsix-harvester/internal/config"
	"github.com/vsix-harvester/vsix-harvester/internal/extension"
	"github.com/vsix-harvester/vsix-harvester/internal/manifest"
	"github.com/vsix-harvester/vsix-harvester/internal/marketplace"
	"github.com/vsix-harvester/vsix-harvester/internal/platform"
)

// Fetcher resolves and downloads one package. *marketplace.Client
// implements it.
type Fetcher interface {
	Fetch(ctx context.Context, req marketplace.FetchRequest) (*marketplace.FetchResult, error)
}

// Options are the per-run knobs shared by every task.
type Options struct {
	Destination     string
	Force           bool
	EngineVersion   string
	AllowPreRelease bool
	StrictEngine    bool
}

// DirectRequest asks for a single extension.
type DirectRequest struct {
	Options
	Extension string
	Target    platform.Target
}

// Task is one identifier for one platform category.
type Task struct {
	Extension string
	Target    platform.Target
	Request   marketplace.FetchRequest
}

// Runner executes download runs.
type Runner struct {
	fetcher     Fetcher
	logger      *log.Logger
	concurrency int
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithConcurrency sets how many tasks of one category run at once.
// Values below 1 mean serial.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		r.concurrency = max(n, 1)
	}
}

// NewRunner creates a Runner around f.
func NewRunner(f Fetcher, opts ...Option) *Runner {
	r := &Runner{
		fetcher:     f,
		concurrency: config.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r
}

// Run performs a direct download when s.Download is set and a manifest
// batch otherwise.
func (r *Runner) Run(ctx context.Context, s config.Settings) (*Report, error) {
	opts := Options{
		Destination:     s.Destination,
		Force:           s.NoCache,
		EngineVersion:   s.EngineVersion,
		AllowPreRelease: s.PreRelease,
		StrictEngine:    s.StrictEngine,
	}

	if s.Download != "" {
		target, err := s.Target()
		if err != nil {
			return nil, err
		}
		return r.Direct(ctx, DirectRequest{Options: opts, Extension: s.Download, Target: target})
	}

	r.logger.Debug("Reading manifest", "path", s.Input)
	m, err := manifest.Load(s.Input)
	if err != nil {
		return nil, err
	}
	return r.Batch(ctx, m, opts)
}

// Direct downloads a single extension. Any failure fails the run.
func (r *Runner) Direct(ctx context.Context, req DirectRequest) (*Report, error) {
	id, err := extension.Parse(req.Extension)
	if err != nil {
		return nil, err
	}
	if err := ensureDir(req.Destination); err != nil {
		return nil, err
	}

	r.logger.Debug("Direct download", "extension", id, "target", req.Target)
	report := newReport("")
	item := r.runTask(ctx, r.logger, newTask(id, req.Target, req.Options), report)
	if item.Err != nil {
		return report, fmt.Errorf("downloading %s: %w", id, item.Err)
	}
	return report, nil
}

// Batch downloads every manifest entry. Categories run one after another in
// platform.All order; within a category at most the configured number of
// tasks run at once. Item failures are recorded and never stop siblings.
func (r *Runner) Batch(ctx context.Context, m *manifest.Extensions, opts Options) (*Report, error) {
	if err := ensureDir(opts.Destination); err != nil {
		return nil, err
	}

	runID := uuid.NewString()[:8]
	logger := r.logger.With("run", runID)
	report := newReport(runID)
	logger.Info("Starting batch", "extensions", m.Total(), "destination", opts.Destination, "workers", r.concurrency)

	for _, target := range platform.All() {
		tasks := r.plan(logger, m.List(target), target, opts, report)
		if len(tasks) == 0 {
			continue
		}

		logger.Debug("Processing category", "target", target, "tasks", len(tasks))
		g := new(errgroup.Group)
		g.SetLimit(r.concurrency)
		for _, task := range tasks {
			g.Go(func() error {
				r.runTask(ctx, logger, task, report)
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("batch interrupted: %w", err)
		}
	}

	logger.Info("Batch finished",
		"downloaded", report.Count(StatusDownloaded),
		"cached", report.Count(StatusCached),
		"failed", report.Count(StatusFailed))
	return report, nil
}

// plan turns one category's entries into tasks. Invalid identifiers are
// recorded as failures and repeated entries are dropped.
func (r *Runner) plan(logger *log.Logger, entries []string, target platform.Target, opts Options, report *Report) []Task {
	seen := make(map[string]bool, len(entries))
	var tasks []Task
	for _, entry := range entries {
		if seen[entry] {
			logger.Warn("Skipping duplicate entry", "extension", entry, "target", target)
			continue
		}
		seen[entry] = true

		id, err := extension.Parse(entry)
		if err != nil {
			logger.Error("Skipping invalid entry", "extension", entry, "target", target, "err", err)
			report.add(Item{Extension: entry, Target: target, Status: StatusFailed, Err: err})
			continue
		}
		tasks = append(tasks, newTask(id, target, opts))
	}
	return tasks
}

func (r *Runner) runTask(ctx context.Context, logger *log.Logger, task Task, report *Report) Item {
	item := Item{Extension: task.Extension, Target: task.Target}

	res, err := r.fetcher.Fetch(ctx, task.Request)
	if err != nil {
		logger.Error("Error occurred when downloading", "extension", task.Extension, "target", task.Target, "err", err)
		item.Status = StatusFailed
		item.Err = err
		report.add(item)
		return item
	}

	item.Version = res.Resolution.Version
	item.Fallback = res.Resolution.Fallback
	item.Path = res.Artifact.Path
	item.Bytes = res.Bytes
	item.Status = StatusDownloaded
	if res.Cached {
		item.Status = StatusCached
	}
	report.add(item)
	return item
}

func newTask(id extension.ID, target platform.Target, opts Options) Task {
	return Task{
		Extension: id.String(),
		Target:    target,
		Request: marketplace.FetchRequest{
			ResolveRequest: marketplace.ResolveRequest{
				ID:              id,
				EngineVersion:   opts.EngineVersion,
				AllowPreRelease: opts.AllowPreRelease,
				StrictEngine:    opts.StrictEngine,
			},
			Destination: opts.Destination,
			Force:       opts.Force,
			Target:      target,
		},
	}
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating destination %s: %w", marketplace.ErrFilesystem, dir, err)
	}
	return nil
}
