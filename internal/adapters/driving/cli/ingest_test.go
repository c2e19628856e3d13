package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driving"
)

func TestIngestFetchCmd_FetchesAndIngests(t *testing.T) {
	feed := &mockFeed{docs: []domain.Document{cliOrder("14008", "Climate")}}
	ingest := &mockIngestService{stats: driving.IngestStats{Ingested: 1}}
	cleanup := setServices(Services{Ingest: ingest, Feed: feed})
	defer cleanup()
	defer func() { ingestFetchYear = 0 }()

	out, err := execute("ingest", "fetch", "--year", "2021")
	require.NoError(t, err)

	assert.Equal(t, 2021, feed.lastYear)
	require.Len(t, ingest.lastDocs, 1)
	assert.Equal(t, "14008", ingest.lastDocs[0].OrderNumber)
	assert.Contains(t, out, "Ingested 1, skipped 0, failed 0.")
}

func TestIngestFetchCmd_EmptyYear(t *testing.T) {
	feed := &mockFeed{}
	ingest := &mockIngestService{}
	cleanup := setServices(Services{Ingest: ingest, Feed: feed})
	defer cleanup()
	defer func() { ingestFetchYear = 0 }()

	out, err := execute("ingest", "fetch", "--year", "1999")
	require.NoError(t, err)

	assert.Contains(t, out, "No Executive Orders found for 1999.")
	assert.Nil(t, ingest.lastDocs)
}

func TestIngestFetchCmd_ErrorsWithoutFeed(t *testing.T) {
	cleanup := setServices(Services{Ingest: &mockIngestService{}})
	defer cleanup()

	_, err := execute("ingest", "fetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no document feed configured")
}

func TestIngestDirCmd_ReadsDirectory(t *testing.T) {
	dir := t.TempDir()
	orderJSON := `{
		"order_number": "14008",
		"title": "Climate",
		"full_text": "Section 1. Policy."
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "14008.json"), []byte(orderJSON), 0o644))

	ingest := &mockIngestService{stats: driving.IngestStats{Ingested: 1}}
	cleanup := setServices(Services{Ingest: ingest})
	defer cleanup()

	out, err := execute("ingest", "dir", dir)
	require.NoError(t, err)

	require.Len(t, ingest.lastDocs, 1)
	assert.Equal(t, "14008", ingest.lastDocs[0].OrderNumber)
	assert.Contains(t, out, "Ingested 1")
}

func TestIngestDirCmd_MissingDirectory(t *testing.T) {
	cleanup := setServices(Services{Ingest: &mockIngestService{}})
	defer cleanup()

	_, err := execute("ingest", "dir", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestIngestWatchCmd_RequiresDirOrConfig(t *testing.T) {
	cleanup := setServices(Services{Ingest: &mockIngestService{}})
	defer cleanup()

	_, err := execute("ingest", "watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed.watch_dir")
}

func TestIngestWatchCmd_FallsBackToConfiguredDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "drop")
	cleanup := setServices(Services{Ingest: &mockIngestService{}, WatchDir: missing})
	defer cleanup()

	// The configured directory does not exist, so the command fails
	// while opening it. The path in the error proves the config value
	// was used as the fallback.
	_, err := execute("ingest", "watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
}

func TestIngestPendingCmd(t *testing.T) {
	ingest := &mockIngestService{stats: driving.IngestStats{Ingested: 2, Skipped: 1}}
	cleanup := setServices(Services{Ingest: ingest})
	defer cleanup()

	out, err := execute("ingest", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "Ingested 2, skipped 1, failed 0.")
}

func TestIngestRebuildCmd(t *testing.T) {
	ingest := &mockIngestService{rebuildCount: 42}
	cleanup := setServices(Services{Ingest: ingest})
	defer cleanup()

	out, err := execute("ingest", "rebuild-index")
	require.NoError(t, err)
	assert.Contains(t, out, "Rebuilt index with 42 vectors.")
}
