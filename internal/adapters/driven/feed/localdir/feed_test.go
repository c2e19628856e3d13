package localdir

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policypal/policypal/internal/core/domain"
)

func writeOrder(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

const goodOrder = `{
	"order_number": "14008",
	"title": "Tackling the Climate Crisis",
	"president": "Joseph R. Biden Jr.",
	"administration": "Biden Administration (2021-2025)",
	"url": "https://example.com/14008",
	"published_date": "2021-01-27",
	"full_text": "Section 1. Policy. It is the policy of my Administration..."
}`

func TestNewFeedRequiresDirectory(t *testing.T) {
	_, err := NewFeed(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))
	_, err = NewFeed(file)
	assert.Error(t, err)
}

func TestFetchReadsOrderFiles(t *testing.T) {
	dir := t.TempDir()
	writeOrder(t, dir, "14008.json", goodOrder)
	writeOrder(t, dir, "notes.txt", "not an order")

	feed, err := NewFeed(dir)
	require.NoError(t, err)

	docs, err := feed.Fetch(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, docs, 1)
	doc := docs[0]
	assert.Equal(t, "14008", doc.OrderNumber)
	assert.Equal(t, "Tackling the Climate Crisis", doc.Title)
	assert.Equal(t, time.Date(2021, 1, 27, 0, 0, 0, 0, time.UTC), doc.PublishedDate)
	assert.Contains(t, doc.FullText, "Section 1. Policy.")
}

func TestFetchFiltersByYear(t *testing.T) {
	dir := t.TempDir()
	writeOrder(t, dir, "14008.json", goodOrder)
	writeOrder(t, dir, "13800.json", `{
		"order_number": "13800",
		"title": "Strengthening Cybersecurity",
		"published_date": "2017-05-11",
		"full_text": "some text"
	}`)

	feed, err := NewFeed(dir)
	require.NoError(t, err)

	docs, err := feed.Fetch(context.Background(), 2017)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "13800", docs[0].OrderNumber)

	docs, err = feed.Fetch(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestFetchSkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeOrder(t, dir, "14008.json", goodOrder)
	writeOrder(t, dir, "broken.json", "{ not json")
	writeOrder(t, dir, "empty.json", `{"order_number": "14009"}`) // no full_text

	feed, err := NewFeed(dir)
	require.NoError(t, err)

	docs, err := feed.Fetch(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "14008", docs[0].OrderNumber)
}

func TestWatchEmitsDroppedFiles(t *testing.T) {
	dir := t.TempDir()
	feed, err := NewFeed(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	docs, errs := feed.Watch(ctx)

	writeOrder(t, dir, "14008.json", goodOrder)

	select {
	case doc := <-docs:
		assert.Equal(t, "14008", doc.OrderNumber)
	case err := <-errs:
		t.Fatalf("unexpected watch error: %v", err)
	case <-ctx.Done():
		t.Fatal("timed out waiting for dropped order")
	}

	cancel()
	for range docs {
		// drain until close
	}
}

func TestWatchReportsUnparseableFiles(t *testing.T) {
	dir := t.TempDir()
	feed, err := NewFeed(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	docs, errs := feed.Watch(ctx)

	writeOrder(t, dir, "broken.json", "{ not json")

	select {
	case err := <-errs:
		assert.Contains(t, err.Error(), "broken.json")
	case doc := <-docs:
		t.Fatalf("unexpected document: %+v", doc)
	case <-ctx.Done():
		t.Fatal("timed out waiting for watch error")
	}
}

func TestWatchClosesOnCancel(t *testing.T) {
	feed, err := NewFeed(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	docs, errs := feed.Watch(ctx)
	cancel()

	var closedDoc domain.Document
	timeout := time.After(5 * time.Second)
	for docs != nil || errs != nil {
		select {
		case doc, ok := <-docs:
			if !ok {
				docs = nil
				continue
			}
			closedDoc = doc
		case _, ok := <-errs:
			if !ok {
				errs = nil
			}
		case <-timeout:
			t.Fatal("channels did not close after cancel")
		}
	}
	assert.Empty(t, closedDoc.OrderNumber)
}
