package driver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// FormatPaths formats the given files and directories. Results come back in
// the collected (sorted) file order regardless of scheduling; the returned
// error reflects infrastructure failure, not per-file outcomes.
func FormatPaths(ctx context.Context, paths []string, opt Options) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	collectPhase := opt.Timer.Begin("collect")
	files, err := collectSourceFiles(ctx, paths, opt.Config.Files)
	opt.Timer.End(collectPhase, fmt.Sprintf("%d files", len(files)))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	jobs := opt.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if jobs > len(files) {
		jobs = len(files)
	}

	formatPhase := opt.Timer.Begin("format")
	results := make([]Result, len(files))
	var done int
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			results[i] = formatOneFile(gctx, path, opt)

			if opt.OnResult != nil {
				mu.Lock()
				done++
				opt.OnResult(results[i], done, len(files))
				mu.Unlock()
			}
			return nil
		})
	}

	err = g.Wait()
	opt.Timer.End(formatPhase, fmt.Sprintf("%d jobs", jobs))
	if err != nil {
		return results, err
	}
	return results, nil
}

// formatOneFile runs the pipeline over one file and applies the mode.
func formatOneFile(ctx context.Context, path string, opt Options) Result {
	res := Result{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
		return res
	}

	key := cacheKey(data, opt)
	if hit, formatted := opt.Cache.Lookup(key); hit {
		res.FromCache = true
		res.Changed = !bytes.Equal(data, formatted)
		applyMode(ctx, &res, data, formatted, opt)
		return res
	}

	formatted, bag, err := FormatSource(ctx, path, data, opt)
	res.Bag = bag
	if err != nil {
		res.Err = err
		return res
	}
	opt.Cache.Store(key, formatted)

	res.Changed = !bytes.Equal(data, formatted)
	applyMode(ctx, &res, data, formatted, opt)
	return res
}

func applyMode(_ context.Context, res *Result, original, formatted []byte, opt Options) {
	switch opt.Mode {
	case ModeCheck:
	case ModeStdout:
		res.Formatted = formatted
	case ModeDiff:
		if res.Changed {
			res.Diff = unifiedDiff(res.Path, string(original), string(formatted))
		}
	case ModeWrite:
		if !res.Changed {
			return
		}
		mode := os.FileMode(0o644)
		if info, statErr := os.Stat(res.Path); statErr == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(res.Path, formatted, mode.Perm()); err != nil {
			res.Err = err
		}
	}
}
