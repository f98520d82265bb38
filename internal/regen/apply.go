package regen

import (
	"context"
	"runtime"
	"sync"

	"github.com/lazypower/notekeeper/internal/manifest"
)

// ApplyResult is the outcome of one manifest item.
type ApplyResult struct {
	Path    string   `json:"path"`
	Outcome *Outcome `json:"outcome,omitempty"`
	Err     error    `json:"-"`
	Error   string   `json:"error,omitempty"`
}

// Apply regenerates every item using up to workers goroutines and returns
// results in input order. A failing item does not stop the batch; once ctx
// is cancelled the remaining items fail with the context error.
func (r *Regenerator) Apply(ctx context.Context, items []manifest.Item, workers int) []ApplyResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, len(items))

	results := make([]ApplyResult, len(items))
	jobs := make(chan int, len(items))
	for i := range items {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				item := items[i]
				out, err := r.Regenerate(ctx, item.Path, item.Fresh)
				results[i] = ApplyResult{Path: item.Path, Outcome: out, Err: err}
				if err != nil {
					results[i].Error = err.Error()
				}
			}
		}()
	}
	wg.Wait()
	return results
}

// Summarize counts results by status, with failures under "failed".
func Summarize(results []ApplyResult) map[string]int {
	counts := make(map[string]int)
	for _, res := range results {
		if res.Err != nil {
			counts["failed"]++
			continue
		}
		counts[res.Outcome.Status]++
	}
	return counts
}
