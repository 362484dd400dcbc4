package pathctx

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/willibrandon/gomigrator/cache"
	"github.com/willibrandon/gomigrator/observability"
)

// ErrUnavailable is returned when a file cannot be read.
var ErrUnavailable = errors.New("file unavailable")

// Reader reads project files named by placeholder-rooted or concrete paths.
type Reader interface {
	// ReadFile returns the content of path or an error wrapping ErrUnavailable.
	ReadFile(path string) ([]byte, error)
	// Exists reports whether path names an existing regular file.
	Exists(path string) bool
}

// Default cache bounds for FileReader
const (
	DefaultCacheEntries = 4096
	DefaultCacheBytes   = 64 << 20
)

// FileReader reads from the local file system through an LRU content cache.
// Trace lines repeat the same header many times, so each path is read at most once
// while it stays cached.
type FileReader struct {
	ctx    *Context
	cache  *cache.MemoryCache
	logger observability.Logger
}

// ReaderOption configures a FileReader.
type ReaderOption func(*FileReader)

// WithCache replaces the default content cache.
func WithCache(c *cache.MemoryCache) ReaderOption {
	return func(r *FileReader) {
		r.cache = c
	}
}

// WithLogger sets the logger used for read failures.
func WithLogger(logger observability.Logger) ReaderOption {
	return func(r *FileReader) {
		r.logger = logger
	}
}

// NewFileReader creates a reader that resolves placeholders against ctx.
func NewFileReader(ctx *Context, opts ...ReaderOption) *FileReader {
	r := &FileReader{
		ctx:    ctx,
		logger: observability.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = cache.NewMemoryCache(DefaultCacheEntries, DefaultCacheBytes)
	}
	return r
}

// ReadFile implements Reader.
func (r *FileReader) ReadFile(path string) ([]byte, error) {
	full := r.ctx.Resolve(path)

	if entry, ok := r.cache.Get(full); ok {
		if entry.Missing {
			observability.FileReadsTotal.WithLabelValues("unavailable").Inc()
			return nil, fmt.Errorf("%s: %w", path, ErrUnavailable)
		}
		observability.FileReadsTotal.WithLabelValues("hit").Inc()
		return entry.Value, nil
	}

	content, err := os.ReadFile(full)
	if err != nil {
		r.cache.SetMissing(full)
		observability.FileReadsTotal.WithLabelValues("unavailable").Inc()
		r.logger.Debug("Cannot read file {Path}: {Error}", path, err.Error())
		return nil, fmt.Errorf("%s: %w: %v", path, ErrUnavailable, err)
	}

	r.cache.Set(full, content)
	observability.FileReadsTotal.WithLabelValues("miss").Inc()
	r.logger.Verbose("Read content for {Path} ({Bytes} bytes)", path, len(content))
	return content, nil
}

// Exists implements Reader.
func (r *FileReader) Exists(path string) bool {
	info, err := os.Stat(r.ctx.Resolve(path))
	return err == nil && info.Mode().IsRegular()
}

// CacheStats reports the content cache statistics.
func (r *FileReader) CacheStats() cache.Stats {
	return r.cache.Stats()
}

// MapReader serves files from memory, keyed by the exact path passed to ReadFile.
type MapReader struct {
	mu    sync.Mutex
	files map[string][]byte
	reads map[string]int
}

// NewMapReader creates a reader over files.
func NewMapReader(files map[string]string) *MapReader {
	r := &MapReader{
		files: make(map[string][]byte, len(files)),
		reads: make(map[string]int),
	}
	for k, v := range files {
		r.files[k] = []byte(v)
	}
	return r
}

// ReadFile implements Reader.
func (r *MapReader) ReadFile(path string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reads[path]++
	content, ok := r.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrUnavailable)
	}
	return content, nil
}

// Exists implements Reader.
func (r *MapReader) Exists(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.files[path]
	return ok
}

// Reads returns how many times path was requested.
func (r *MapReader) Reads(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads[path]
}
