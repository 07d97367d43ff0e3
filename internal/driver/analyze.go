package driver

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"cppsema/internal/ast"
	"cppsema/internal/config"
	"cppsema/internal/diag"
	"cppsema/internal/observ"
	"cppsema/internal/sema"
	"cppsema/internal/source"
	"cppsema/internal/trace"
)

type Options struct {
	Config *config.Config
	// Jobs bounds concurrent units; zero means GOMAXPROCS.
	Jobs     int
	Cache    *DiskCache
	Progress ProgressSink
	Timer    *observ.Timer
	// KeepUnits keeps the engine of each unit for further queries and
	// bypasses the cache, which cannot restore one.
	KeepUnits bool
}

// FileResult is the outcome of one translation unit. Err is set when the
// file could not be read; the other fields are then nil.
type FileResult struct {
	Path    string
	FileSet *source.FileSet
	File    source.FileID
	Bag     *diag.Bag
	Report  *Report
	Builder *ast.Builder
	Unit    *sema.Unit
	Cached  bool
	Err     error
}

func (o *Options) config() *config.Config {
	if o.Config == nil {
		cfg := config.Default()
		o.Config = &cfg
	}
	return o.Config
}

// AnalyzeFile parses, resolves and checks one file.
func AnalyzeFile(ctx context.Context, path string, opts *Options) *FileResult {
	cfg := opts.config()
	ctx, span := trace.BeginContext(ctx, trace.ScopeFile, "analyze")
	span.WithExtra("path", path)
	defer span.End("")
	started := time.Now()
	res := &FileResult{Path: path}
	progress := func(stage Stage, status Status) {
		emit(opts.Progress, Event{File: path, Stage: stage, Status: status, Err: res.Err, Elapsed: time.Since(started)})
	}

	progress(StageLoad, StatusWorking)
	fs, id, err := loadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", path, err)
		progress(StageLoad, StatusError)
		return res
	}
	res.FileSet, res.File = fs, id

	useCache := opts.Cache != nil && !opts.KeepUnits
	var key uint64
	if useCache {
		key = CacheKey(fs.Get(id).Content, cfg.Fingerprint())
		var payload DiskPayload
		hit, err := opts.Cache.Get(key, &payload)
		if hit && err == nil {
			res.Bag = diag.NewBag(cfg.Engine.MaxDiagnostics)
			replay(payload.Diagnostics, id, res.Bag)
			res.Report = payload.Report
			res.Cached = true
			progress(StageCheck, StatusCached)
			return res
		}
	}

	progress(StageParse, StatusWorking)
	var parsed *ParseResult
	opts.time("parse", path, func() string {
		parsed, err = parseLoaded(fs, id, cfg)
		return ""
	})
	if err != nil {
		res.Err = err
		progress(StageParse, StatusError)
		return res
	}
	res.Bag, res.Builder = parsed.Bag, parsed.Builder

	progress(StageResolve, StatusWorking)
	var u *sema.Unit
	semaReporter := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})
	opts.time("sema_declare", path, func() string {
		u = sema.Analyze(parsed.Builder, parsed.Root, sema.Options{
			Reporter: semaReporter,
			Tracer:   trace.FromContext(ctx),
			Config:   cfg.Sema(),
		})
		return ""
	})
	progress(StageCheck, StatusWorking)
	opts.time("sema_check", path, func() string {
		u.Check()
		res.Report = BuildReport(u, fs, path)
		if n := semaReporter.Suppressed(); n > 0 {
			return fmt.Sprintf("%d duplicate diagnostics dropped", n)
		}
		return ""
	})
	res.Bag.Sort()
	if opts.KeepUnits {
		res.Unit = u
	}

	if useCache {
		payload := &DiskPayload{Schema: diskCacheSchema, Path: path, Diagnostics: toCached(res.Bag.Items()), Report: res.Report}
		if err := opts.Cache.Put(key, payload); err != nil {
			diag.ReportWarning(diag.BagReporter{Bag: res.Bag}, diag.IOCacheError, source.Span{File: id}, "result not cached: "+err.Error()).Emit()
		}
	}
	status := StatusDone
	if res.Bag.HasErrors() {
		status = StatusError
	}
	progress(StageCheck, status)
	return res
}

func (o *Options) time(phase, path string, fn func() string) {
	if o.Timer == nil {
		fn()
		return
	}
	o.Timer.Time(phase, path, fn)
}

// AnalyzeFiles runs AnalyzeFile over paths concurrently. Results keep the
// order of paths. Unreadable files are reported through FileResult.Err;
// the returned error is only the context's.
func AnalyzeFiles(ctx context.Context, paths []string, opts *Options) ([]*FileResult, error) {
	opts.config()
	results := make([]*FileResult, len(paths))
	if len(paths) == 0 {
		return results, nil
	}
	for _, p := range paths {
		emit(opts.Progress, Event{File: p, Stage: StageLoad, Status: StatusQueued})
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	ctx, span := trace.BeginContext(ctx, trace.ScopeDriver, "analyze_files")
	defer span.End(fmt.Sprintf("%d files", len(paths)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = AnalyzeFile(gctx, path, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
