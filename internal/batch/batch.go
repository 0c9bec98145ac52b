// Package batch applies one property operation to many files with bounded
// parallelism.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Op is applied to a single file.
type Op func(ctx context.Context, path string) error

type Hooks struct {
	// OnProgress is called once per finished file, from the worker that ran it.
	OnProgress func(path string, err error)
}

// Stats summarizes a run. Files not started because the context was
// cancelled count toward Skipped.
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Errors    map[string]error
}

// Err returns every per-file failure as one error, in input order.
func (s Stats) Err(files []string) error {
	var result *multierror.Error
	for _, f := range files {
		if err, ok := s.Errors[f]; ok {
			result = multierror.Append(result, fmt.Errorf("%s: %w", f, err))
		}
	}
	return result.ErrorOrNil()
}

// Run applies op to every file using at most jobs workers. A failing file
// does not stop the others. The returned error is non-nil only when ctx was
// cancelled before every file was started.
func Run(ctx context.Context, files []string, jobs int, op Op, hooks Hooks) (Stats, error) {
	stats := Stats{Total: len(files), Errors: make(map[string]error)}
	if len(files) == 0 {
		return stats, nil
	}
	if jobs < 1 {
		jobs = 1
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(jobs)

	started := 0
	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		started++
		path := path
		g.Go(func() error {
			err := op(ctx, path)

			mu.Lock()
			if err != nil {
				stats.Failed++
				stats.Errors[path] = err
			} else {
				stats.Succeeded++
			}
			mu.Unlock()

			if hooks.OnProgress != nil {
				hooks.OnProgress(path, err)
			}
			return nil
		})
	}
	g.Wait()

	stats.Skipped = len(files) - started
	if stats.Skipped > 0 {
		return stats, ctx.Err()
	}
	return stats, nil
}
