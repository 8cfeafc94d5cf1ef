package asyncflow

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/jward/asyncflow/internal/cache"
	"github.com/jward/asyncflow/internal/syntax"
)

// workItem holds everything a worker needs for one file.
type workItem struct {
	index int
	path  string
}

// TransformFiles transforms paths using a three-phase pipeline:
//
//	Phase A (parallel): Read, hash, cache lookup, transform via worker pool.
//	Phase B (serial):   Collect results in input order.
//	Phase C (serial):   Commit new results to the cache in one transaction.
//
// Per-file failures are reported in FileResult.Err. The returned error is
// non-nil only when ctx is cancelled or the cache commit fails.
func (e *Engine) TransformFiles(ctx context.Context, paths []string) ([]FileResult, error) {
	results := make([]FileResult, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	numWorkers := min(e.workers, len(paths))
	if numWorkers < 1 {
		numWorkers = 1
	}

	workCh := make(chan workItem, len(paths))
	for i, p := range paths {
		workCh <- workItem{index: i, path: p}
	}
	close(workCh)

	type result struct {
		item  workItem
		res   FileResult
		entry *cache.Entry
	}
	resultCh := make(chan result, len(paths))

	// ---- Phase A: Parallel transformation ----
	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				if ctx.Err() != nil {
					resultCh <- result{item: item, res: FileResult{Path: item.path, Err: ctx.Err()}}
					continue
				}
				res, entry := e.transformFile(ctx, item.path)
				resultCh <- result{item: item, res: res, entry: entry}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase B: Collect ----
	var entries []*cache.Entry
	for r := range resultCh {
		results[r.item.index] = r.res
		if r.entry != nil {
			entries = append(entries, r.entry)
		}
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	// ---- Phase C: Serial commit ----
	if e.cache != nil && len(entries) > 0 {
		if err := e.cache.PutAll(entries); err != nil {
			return results, fmt.Errorf("asyncflow: commit cache: %w", err)
		}
		e.logger.Debug("committed cache entries", zap.Int("entries", len(entries)))
	}
	return results, nil
}

// transformFile handles one file. The returned entry is non-nil when the
// result should be written to the cache.
func (e *Engine) transformFile(ctx context.Context, path string) (FileResult, *cache.Entry) {
	log := e.logger.With(zap.String("path", path))
	res := FileResult{Path: path}

	src, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("asyncflow: read file: %w", err)
		log.Warn("read failed", zap.Error(err))
		return res, nil
	}
	res.Source = src

	var key cache.Key
	if e.cache != nil {
		key = cache.Key{
			Path:         path,
			SourceHash:   cache.HashSource(src),
			Transformer:  Name,
			Version:      Version,
			MarkerModule: e.transformerModule(),
		}
		hit, err := e.cache.Lookup(key)
		if err != nil {
			log.Warn("cache lookup failed", zap.Error(err))
		}
		if hit != nil {
			res.Cached = true
			res.Language, _ = syntax.LanguageForFile(path)
			res.Changed = hit.Changed
			res.Output = src
			if hit.Changed {
				res.Output = hit.Output
			}
			res.Sites = fromCacheSites(hit.Sites)
			log.Debug("cache hit", zap.Bool("changed", hit.Changed))
			return res, nil
		}
	}

	t := NewTransformer(Options{MarkerModule: e.markerModule})
	out, err := t.TransformSource(ctx, path, src)
	if err != nil {
		res.Err = err
		log.Warn("transform failed", zap.Error(err))
		return res, nil
	}
	res.Language = out.Language
	res.Output = out.Output
	res.Changed = out.Changed
	res.Sites = out.Sites
	log.Debug("transformed", zap.Bool("changed", out.Changed), zap.Int("sites", len(out.Sites)))

	if e.cache == nil {
		return res, nil
	}
	return res, &cache.Entry{
		Key:     key,
		Output:  out.Output,
		Changed: out.Changed,
		Sites:   toCacheSites(out.Sites),
	}
}

func (e *Engine) transformerModule() string {
	if e.markerModule == "" {
		return DefaultMarkerModule
	}
	return e.markerModule
}

func toCacheSites(sites []Site) []cache.Site {
	if len(sites) == 0 {
		return nil
	}
	out := make([]cache.Site, len(sites))
	for i, s := range sites {
		out[i] = cache.Site{Kind: s.Kind, Name: s.Name, Line: s.Line, Column: s.Column}
	}
	return out
}

func fromCacheSites(sites []cache.Site) []Site {
	if len(sites) == 0 {
		return nil
	}
	out := make([]Site, len(sites))
	for i, s := range sites {
		out[i] = Site{Kind: s.Kind, Name: s.Name, Line: s.Line, Column: s.Column}
	}
	return out
}
