// Package filesystem imports text files from a local directory as documents.
//
// It stands in for upstream text extraction: each .txt or .md file becomes a
// document whose summary is the file content, with Markdown syntax stripped. Documents are matched to files
// by their source path, so re-importing a changed file replaces its record.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
	"github.com/custodia-labs/docrag/internal/normalisers/markdown"
)

// supportedExtensions lists the file types imported as documents.
var supportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// ChangeType describes what happened to a file.
type ChangeType string

// Change types emitted by Watch.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is one applied filesystem event.
type Change struct {
	Type ChangeType
	Path string

	// Document is the stored record; nil for deletions.
	Document *domain.Document

	// Err is set when the event could not be applied.
	Err error
}

// SyncResult counts what a Sync did.
type SyncResult struct {
	Added     int
	Updated   int
	Unchanged int
	Removed   int
	Skipped   int
}

// Connector mirrors a directory into one user's documents.
type Connector struct {
	docs     driving.DocumentService
	userID   string
	rootPath string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// New creates a connector for rootPath owned by userID.
func New(docs driving.DocumentService, userID, rootPath string) *Connector {
	return &Connector{
		docs:     docs,
		userID:   userID,
		rootPath: rootPath,
	}
}

// Supported reports whether path has an importable extension.
func Supported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Sync imports every supported file under the root, replaces records whose
// file content changed, and deletes records whose file is gone.
func (c *Connector) Sync(ctx context.Context) (SyncResult, error) {
	var result SyncResult

	root, err := c.absRoot()
	if err != nil {
		return result, err
	}

	existing, err := c.indexBySource(ctx)
	if err != nil {
		return result, err
	}
	seen := make(map[string]bool)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if isHidden(d.Name()) && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Supported(path) {
			return nil
		}

		seen[path] = true
		summary, err := readSummary(path)
		if err != nil {
			return err
		}
		if summary == "" {
			result.Skipped++
			logger.Debug("Skipping empty file %s", path)
			return nil
		}

		old := existing[path]
		if len(old) == 1 && old[0].Summary == summary {
			result.Unchanged++
			return nil
		}
		if err := c.deleteAll(ctx, old); err != nil {
			return err
		}
		if _, err := c.add(ctx, path, summary); err != nil {
			return err
		}
		if len(old) > 0 {
			result.Updated++
		} else {
			result.Added++
		}
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("sync %s: %w", root, err)
	}

	for path, docs := range existing {
		if seen[path] || !within(root, path) {
			continue
		}
		if err := c.deleteAll(ctx, docs); err != nil {
			return result, err
		}
		result.Removed += len(docs)
	}

	logger.Info("Synced %s: %d added, %d updated, %d unchanged, %d removed, %d skipped",
		root, result.Added, result.Updated, result.Unchanged, result.Removed, result.Skipped)
	return result, nil
}

// Watch applies file events under the root until ctx is cancelled.
// The returned channel is closed when watching stops.
func (c *Connector) Watch(ctx context.Context) (<-chan Change, error) {
	root, err := c.absRoot()
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if isHidden(d.Name()) && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}

	c.mu.Lock()
	c.watcher = watcher
	c.mu.Unlock()

	changes := make(chan Change, 16)
	go func() {
		defer close(changes)
		defer c.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				change := c.handleFsEvent(ctx, event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

// Close stops any active watcher.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}

// handleFsEvent converts a filesystem event into an applied change.
// Returns nil for events that change nothing.
func (c *Connector) handleFsEvent(ctx context.Context, event fsnotify.Event) *Change {
	path := event.Name
	if isHidden(filepath.Base(path)) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if !Supported(path) {
			return nil
		}
		existing, err := c.indexBySource(ctx)
		if err != nil {
			return &Change{Type: ChangeDeleted, Path: path, Err: err}
		}
		if len(existing[path]) == 0 {
			return nil
		}
		return &Change{Type: ChangeDeleted, Path: path, Err: c.deleteAll(ctx, existing[path])}

	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if event.Has(fsnotify.Create) {
				c.addWatch(path)
			}
			return nil
		}
		if !Supported(path) {
			return nil
		}
		return c.upsert(ctx, path)
	}

	return nil
}

// upsert imports path, replacing any record for the same file.
func (c *Connector) upsert(ctx context.Context, path string) *Change {
	summary, err := readSummary(path)
	if err != nil {
		return &Change{Type: ChangeUpdated, Path: path, Err: err}
	}
	if summary == "" {
		return nil
	}

	existing, err := c.indexBySource(ctx)
	if err != nil {
		return &Change{Type: ChangeUpdated, Path: path, Err: err}
	}
	old := existing[path]
	if len(old) == 1 && old[0].Summary == summary {
		return nil
	}

	changeType := ChangeCreated
	if len(old) > 0 {
		changeType = ChangeUpdated
	}
	if err := c.deleteAll(ctx, old); err != nil {
		return &Change{Type: changeType, Path: path, Err: err}
	}
	doc, err := c.add(ctx, path, summary)
	return &Change{Type: changeType, Path: path, Document: doc, Err: err}
}

func (c *Connector) addWatch(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher == nil {
		return
	}
	if err := c.watcher.Add(path); err != nil {
		logger.Warn("Failed to watch %s: %v", path, err)
	}
}

func (c *Connector) add(ctx context.Context, path, summary string) (*domain.Document, error) {
	doc, err := c.docs.Add(ctx, driving.NewDocument{
		UserID:     c.userID,
		FileName:   filepath.Base(path),
		Summary:    summary,
		SourcePath: path,
	})
	if err != nil {
		return nil, fmt.Errorf("add %s: %w", path, err)
	}
	logger.Debug("Imported %s as %s", path, doc.ID)
	return doc, nil
}

func (c *Connector) deleteAll(ctx context.Context, docs []domain.Document) error {
	for _, doc := range docs {
		if err := c.docs.Delete(ctx, c.userID, doc.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete %s: %w", doc.ID, err)
		}
	}
	return nil
}

// indexBySource groups the user's documents by source path.
func (c *Connector) indexBySource(ctx context.Context) (map[string][]domain.Document, error) {
	docs, err := c.docs.List(ctx, c.userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	bySource := make(map[string][]domain.Document)
	for _, doc := range docs {
		if doc.SourcePath != "" {
			bySource[doc.SourcePath] = append(bySource[doc.SourcePath], doc)
		}
	}
	return bySource, nil
}

func (c *Connector) absRoot() (string, error) {
	if c.userID == "" {
		return "", fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	root, err := filepath.Abs(c.rootPath)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", c.rootPath, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, root)
	}
	return root, nil
}

func readSummary(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if markdown.IsMarkdown(path) {
		return markdown.Strip(string(data)), nil
	}
	return strings.TrimSpace(string(data)), nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
