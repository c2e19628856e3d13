// Package localdir provides a document feed adapter that reads Executive
// Orders from JSON files in a local directory, and can watch the
// directory for newly dropped files.
package localdir

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driven"
	"github.com/policypal/policypal/internal/logger"
)

// Ensure Feed implements the interfaces.
var (
	_ driven.DocumentFeed = (*Feed)(nil)
	_ driven.WatchingFeed = (*Feed)(nil)
)

// settleDelay is how long a freshly written file is left alone before it
// is read, so a partially copied file is not parsed mid-write.
const settleDelay = 200 * time.Millisecond

// Feed reads Executive Orders from *.json files in a directory. Each
// file holds one order.
type Feed struct {
	dir string
}

// documentFile is the on-disk order format.
type documentFile struct {
	OrderNumber    string `json:"order_number"`
	Title          string `json:"title"`
	President      string `json:"president"`
	Administration string `json:"administration"`
	URL            string `json:"url"`
	PublishedDate  string `json:"published_date"` // ISO date, optional
	FullText       string `json:"full_text"`
}

// NewFeed creates a feed over the given directory.
func NewFeed(dir string) (*Feed, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("localdir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("localdir: %s is not a directory", dir)
	}
	return &Feed{dir: dir}, nil
}

// Fetch returns the orders stored in the directory. A non-zero year
// keeps only orders published in that year; year 0 returns everything.
// Files that fail to parse are skipped with a warning.
func (f *Feed) Fetch(_ context.Context, year int) ([]domain.Document, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("localdir: reading %s: %w", f.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isOrderFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	//nolint:prealloc // unparseable files shrink the result
	var docs []domain.Document
	for _, name := range names {
		doc, err := f.readOrder(filepath.Join(f.dir, name))
		if err != nil {
			logger.Warn("Skipping %s: %v", name, err)
			continue
		}
		if year != 0 && doc.PublishedDate.Year() != year {
			continue
		}
		docs = append(docs, doc)
	}

	logger.Debug("Read %d orders from %s", len(docs), f.dir)
	return docs, nil
}

// Watch emits orders as their files appear in the directory. Both
// channels close when ctx is cancelled.
func (f *Feed) Watch(ctx context.Context) (<-chan domain.Document, <-chan error) {
	docs := make(chan domain.Document)
	errs := make(chan error, 1)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		errs <- fmt.Errorf("localdir: creating watcher: %w", err)
		close(docs)
		close(errs)
		return docs, errs
	}
	if err := watcher.Add(f.dir); err != nil {
		errs <- fmt.Errorf("localdir: watching %s: %w", f.dir, err)
		watcher.Close()
		close(docs)
		close(errs)
		return docs, errs
	}

	go f.watchLoop(ctx, watcher, docs, errs)
	return docs, errs
}

func (f *Feed) watchLoop(
	ctx context.Context,
	watcher *fsnotify.Watcher,
	docs chan<- domain.Document,
	errs chan<- error,
) {
	defer watcher.Close()
	defer close(docs)
	defer close(errs)

	logger.Info("Watching %s for new orders", f.dir)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !isOrderFile(filepath.Base(event.Name)) {
				continue
			}

			// Give the writer a moment to finish the file.
			select {
			case <-time.After(settleDelay):
			case <-ctx.Done():
				return
			}

			doc, err := f.readOrder(event.Name)
			if err != nil {
				select {
				case errs <- fmt.Errorf("localdir: %s: %w", filepath.Base(event.Name), err):
				case <-ctx.Done():
					return
				}
				continue
			}

			select {
			case docs <- doc:
				logger.Debug("Picked up order %s from %s", doc.OrderNumber, filepath.Base(event.Name))
			case <-ctx.Done():
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			select {
			case errs <- fmt.Errorf("localdir: watcher: %w", err):
			case <-ctx.Done():
				return
			}
		}
	}
}

// readOrder parses one order file.
func (f *Feed) readOrder(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}

	var file documentFile
	if err := json.Unmarshal(data, &file); err != nil {
		return domain.Document{}, fmt.Errorf("parsing: %w", err)
	}
	if strings.TrimSpace(file.OrderNumber) == "" {
		return domain.Document{}, fmt.Errorf("missing order_number")
	}
	if strings.TrimSpace(file.FullText) == "" {
		return domain.Document{}, fmt.Errorf("order %s: missing full_text", file.OrderNumber)
	}

	var published time.Time
	if file.PublishedDate != "" {
		published, err = time.Parse("2006-01-02", file.PublishedDate)
		if err != nil {
			return domain.Document{}, fmt.Errorf("order %s: bad published_date: %w", file.OrderNumber, err)
		}
	}

	return domain.Document{
		OrderNumber:    file.OrderNumber,
		Title:          file.Title,
		President:      file.President,
		Administration: file.Administration,
		URL:            file.URL,
		PublishedDate:  published,
		FullText:       file.FullText,
	}, nil
}

func isOrderFile(name string) bool {
	return strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".")
}
