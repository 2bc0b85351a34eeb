// Package inbox watches a drop directory and ingests files that appear
// in it. It is the auto-ingestion path for businesses that upload
// knowledge by copying files into a synced folder.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
	"github.com/custodia-labs/frontdesk/internal/core/ports/driving"
	"github.com/custodia-labs/frontdesk/internal/logger"
)

// DefaultSettleDelay is how long a file must be quiet before ingestion.
// Copies into the inbox arrive as a burst of write events.
const DefaultSettleDelay = 200 * time.Millisecond

var defaultExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
	".md":  true,
}

// ResultHandler is called after each ingestion attempt.
type ResultHandler func(path string, result *driving.IndexResult, err error)

// Watcher ingests files dropped into a directory for one business.
type Watcher struct {
	indexer    driving.Indexer
	businessID string
	dir        string

	exts     map[string]bool
	settle   time.Duration
	onResult ResultHandler

	mu       sync.Mutex
	pending  map[string]*time.Timer
	ingested map[string]time.Time
}

// Option configures the watcher.
type Option func(*Watcher)

// WithExtensions replaces the default set of ingestible file extensions.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		w.exts = make(map[string]bool, len(exts))
		for _, ext := range exts {
			w.exts[strings.ToLower(ext)] = true
		}
	}
}

// WithSettleDelay sets how long a file must be quiet before ingestion.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithResultHandler sets the callback invoked after each ingestion.
func WithResultHandler(fn ResultHandler) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// New creates a watcher that ingests files from dir for businessID.
func New(indexer driving.Indexer, businessID, dir string, opts ...Option) *Watcher {
	w := &Watcher{
		indexer:    indexer,
		businessID: businessID,
		dir:        dir,
		exts:       defaultExtensions,
		settle:     DefaultSettleDelay,
		pending:    make(map[string]*time.Timer),
		ingested:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches the inbox directory until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("inbox path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("inbox path %s is not a directory", w.dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	logger.Info("watching inbox %s for business %s", w.dir, w.businessID)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.eligible(event.Name) {
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("inbox watch error: %v", err)
		}
	}
}

// eligible reports whether a path should be ingested: a regular,
// non-hidden file with an allowed extension.
func (w *Watcher) eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if !w.exts[strings.ToLower(filepath.Ext(path))] {
		return false
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return true
}

// schedule (re)arms the settle timer for a path. Each new event while
// the file is still being written pushes ingestion back.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settle)
		return
	}

	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		last, seen := w.ingested[path]
		if seen && time.Since(last) < w.settle {
			w.mu.Unlock()
			return
		}
		w.ingested[path] = time.Now()
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.ingest(ctx, path)
	})
}

// ingest reads the file and drives it through the indexing pipeline.
func (w *Watcher) ingest(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.report(path, nil, fmt.Errorf("reading %s: %w", path, err))
		return
	}

	name := filepath.Base(path)
	req := domain.IngestRequest{
		BusinessID: w.businessID,
		Title:      strings.TrimSuffix(name, filepath.Ext(name)),
		FileName:   name,
	}

	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		req.Type = domain.DocumentTypePDF
		req.FileData = data
	} else {
		req.Type = domain.DocumentTypeNote
		req.Content = string(data)
	}

	result, err := w.indexer.CreateAndIndex(ctx, req)
	w.report(path, result, err)
}

func (w *Watcher) report(path string, result *driving.IndexResult, err error) {
	switch {
	case err != nil:
		logger.Warn("inbox ingest %s: %v", path, err)
	case result != nil && !result.Success:
		logger.Warn("inbox ingest %s: %s", path, result.Message)
	default:
		logger.Info("inbox ingested %s", path)
	}

	if w.onResult != nil {
		w.onResult(path, result, err)
	}
}
