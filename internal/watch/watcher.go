// Package watch implements drop-folder mode: input files appearing in a
// directory are processed as batches one at a time and archived afterwards.
// Batches never overlap, because the transport session is exclusive.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ProcessFunc runs one batch for one input file. An error leaves the file in
// place for a retry after the operator intervenes; success archives it.
type ProcessFunc func(ctx context.Context, path string) error

// Config holds the drop-folder settings.
type Config struct {
	// InputDir is the directory watched for new input files.
	InputDir string

	// ArchiveDir receives processed files. Defaults to InputDir/archive.
	ArchiveDir string

	// Settle is how long to wait after a file appears before reading it,
	// so partially written drops are not picked up. Defaults to one second.
	Settle time.Duration
}

// Watcher processes input files as they appear.
type Watcher struct {
	cfg     Config
	process ProcessFunc
	logger  zerolog.Logger
}

// New creates a watcher. The process function is invoked sequentially, never
// concurrently.
func New(cfg Config, process ProcessFunc, logger zerolog.Logger) (*Watcher, error) {
	if cfg.InputDir == "" {
		return nil, fmt.Errorf("watch: input dir is required")
	}
	if process == nil {
		return nil, fmt.Errorf("watch: process func is required")
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = filepath.Join(cfg.InputDir, "archive")
	}
	if cfg.Settle <= 0 {
		cfg.Settle = time.Second
	}
	return &Watcher{cfg: cfg, process: process, logger: logger}, nil
}

// Run watches the input directory until the context is cancelled. Files
// already present at startup are processed first, in name order.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.cfg.InputDir, 0o755); err != nil {
		return fmt.Errorf("input dir: %w", err)
	}
	if err := os.MkdirAll(w.cfg.ArchiveDir, 0o755); err != nil {
		return fmt.Errorf("archive dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.cfg.InputDir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.InputDir, err)
	}

	if err := w.processExisting(ctx); err != nil {
		return err
	}

	w.logger.Info().Str("dir", w.cfg.InputDir).Msg("watching for input files")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !inputFile(event.Name) {
				continue
			}
			if err := w.settle(ctx); err != nil {
				return nil
			}
			w.handle(ctx, event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

// processExisting handles files already sitting in the input directory.
func (w *Watcher) processExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.cfg.InputDir)
	if err != nil {
		return fmt.Errorf("scan input dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !inputFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(w.cfg.InputDir, e.Name()))
	}
	sort.Strings(paths)
	for _, p := range paths {
		if ctx.Err() != nil {
			return nil
		}
		w.handle(ctx, p)
	}
	return nil
}

// handle processes one file and archives it on success.
func (w *Watcher) handle(ctx context.Context, path string) {
	if _, err := os.Stat(path); err != nil {
		// Already gone (moved away or processed by a previous event).
		return
	}

	w.logger.Info().Str("file", path).Msg("processing input file")
	if err := w.process(ctx, path); err != nil {
		w.logger.Error().Err(err).Str("file", path).Msg("processing failed, file left in place")
		return
	}

	dst := filepath.Join(w.cfg.ArchiveDir, archiveName(path))
	if err := os.Rename(path, dst); err != nil {
		w.logger.Error().Err(err).Str("file", path).Msg("failed to archive input file")
		return
	}
	w.logger.Info().Str("file", path).Str("archived", dst).Msg("input file archived")
}

func (w *Watcher) settle(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(w.cfg.Settle):
		return nil
	}
}

// inputFile reports whether the path looks like a batch input file.
func inputFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx", ".xls":
		return true
	}
	return false
}

// archiveName prefixes the file name with a timestamp so repeated drops of
// the same file never collide in the archive.
func archiveName(path string) string {
	return time.Now().Format("20060102_150405") + "_" + filepath.Base(path)
}
