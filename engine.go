package asyncflow

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/jward/asyncflow/internal/cache"
	"github.com/jward/asyncflow/internal/syntax"
)

// Engine transforms many files: discovery, change detection through the
// optional cache, and a worker pool that gives every file a fresh
// Transformer.
type Engine struct {
	markerModule string
	cachePath    string
	cache        *cache.Store
	logger       *zap.Logger
	workers      int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMarkerModule sets the module accepted as the marker source in addition
// to DefaultMarkerModule.
func WithMarkerModule(module string) Option {
	return func(e *Engine) {
		e.markerModule = module
	}
}

// WithCachePath enables the result cache backed by a SQLite database at path.
func WithCachePath(path string) Option {
	return func(e *Engine) {
		e.cachePath = path
	}
}

// WithLogger sets the logger. The default is the package logger, which
// discards everything unless SetLogger was called.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithWorkers sets the number of concurrent workers. Values below 1 mean
// one worker per CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// NewEngine creates an Engine. With WithCachePath, the cache database is
// opened and entries written by other transformer versions are pruned.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{logger: Logger()}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = runtime.NumCPU()
	}

	if e.cachePath != "" {
		s, err := cache.Open(e.cachePath)
		if err != nil {
			return nil, fmt.Errorf("asyncflow: open cache: %w", err)
		}
		pruned, err := s.Prune(Name, Version)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("asyncflow: prune cache: %w", err)
		}
		if pruned > 0 {
			e.logger.Info("pruned stale cache entries", zap.Int64("entries", pruned))
		}
		if err := s.SetMetadata("transformer", fmt.Sprintf("%s@%d", Name, Version)); err != nil {
			s.Close()
			return nil, fmt.Errorf("asyncflow: write cache metadata: %w", err)
		}
		e.cache = s
	}
	return e, nil
}

// Close releases the cache database, if any.
func (e *Engine) Close() error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Close()
}

// CacheStats summarizes the result cache.
type CacheStats struct {
	Entries int `json:"entries"`
	Changed int `json:"changed"`
}

// CacheStats reports the cache contents. It returns the zero value when the
// cache is disabled.
func (e *Engine) CacheStats() (CacheStats, error) {
	if e.cache == nil {
		return CacheStats{}, nil
	}
	st, err := e.cache.Stats()
	if err != nil {
		return CacheStats{}, fmt.Errorf("asyncflow: %w", err)
	}
	return CacheStats{Entries: st.Entries, Changed: st.Changed}, nil
}

// FileResult is the outcome for one file. A failed file carries Err and
// never affects the others.
type FileResult struct {
	Path     string
	Language string
	Source   []byte
	Output   []byte
	Changed  bool
	Sites    []Site
	Cached   bool
	Err      error
}

// TransformFile transforms a single file.
func (e *Engine) TransformFile(ctx context.Context, path string) FileResult {
	results, err := e.TransformFiles(ctx, []string{path})
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	return results[0]
}

// TransformDirectory discovers supported files under root and transforms
// them. Inside a git repository, git ls-files is used so that ignored files
// are skipped.
func (e *Engine) TransformDirectory(ctx context.Context, root string) ([]FileResult, error) {
	paths, err := DiscoverFiles(root)
	if err != nil {
		return nil, err
	}
	return e.TransformFiles(ctx, paths)
}

// skipDirs are never descended into by the filesystem walk.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
}

// DiscoverFiles lists the files under root that have a supported extension.
func DiscoverFiles(root string) ([]string, error) {
	paths, err := gitListFiles(root)
	if err != nil {
		// Not a git repo or git not available; fall back to walk.
		paths, err = walkListFiles(root)
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to supported languages.
func gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		path := filepath.Join(root, line)
		if _, ok := syntax.LanguageForFile(path); !ok {
			continue
		}
		// Deleted but still tracked files are listed too.
		if _, err := os.Stat(path); err != nil {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem. Skips hidden
// directories and skipDirs.
func walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := syntax.LanguageForFile(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}
