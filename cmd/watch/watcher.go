package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/docmodelhq/corpus/cmd/graph/formatters"
	"github.com/docmodelhq/corpus/corpus"
	"github.com/docmodelhq/corpus/importgraph"
	"github.com/docmodelhq/corpus/internal/cliutil"
)

const debounceInterval = 300 * time.Millisecond

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"build":        true,
	"__pycache__":  true,
	".idea":        true,
	".vscode":      true,
}

// rebuilder refetches the watched document into a fresh corpus and renders
// its import graph as DOT. A fresh corpus per rebuild means edits on disk are
// never masked by the document cache.
type rebuilder struct {
	objectPath string
	opts       *watchOptions
	formatter  formatters.Formatter
}

func newRebuilder(objectPath string, opts *watchOptions) *rebuilder {
	return &rebuilder{
		objectPath: objectPath,
		opts:       opts,
		formatter:  &formatters.DOTFormatter{},
	}
}

func (r *rebuilder) build(ctx context.Context) (string, error) {
	c := corpus.New(nil)
	if _, err := cliutil.MountLocalRoots(c.Storage(), r.opts.mounts, r.opts.rootDir, r.opts.namespace); err != nil {
		return "", err
	}

	doc, err := c.FetchObject(ctx, r.objectPath)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", fmt.Errorf("failed to fetch %s", r.objectPath)
	}

	return r.formatter.Format(importgraph.NewDocumentGraph(doc), formatters.RenderOptions{
		Label: doc.CorpusPath,
	})
}

func (r *rebuilder) publish(ctx context.Context, b *broker) {
	dot, err := r.build(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "graph rebuild error: %v\n", err)
		b.reset()
		return
	}
	b.publish(dot)
}

func watchAndRebuild(ctx context.Context, roots map[string]string, rb *rebuilder, b *broker) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, root := range roots {
		if err := addWatchDirs(watcher, root); err != nil {
			return fmt.Errorf("failed to watch directories: %w", err)
		}
	}

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !isRelevantChange(event) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceInterval, func() {
				rb.publish(ctx, b)
			})

			if event.Has(fsnotify.Create) {
				addIfDirectory(watcher, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		}
	}
}

func isRelevantChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".json")
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

func addIfDirectory(watcher *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		_ = addWatchDirs(watcher, path)
	}
}
