package driven

import (
	"context"

	"github.com/policypal/policypal/internal/core/domain"
)

// DocumentFeed supplies new Executive Orders from an upstream source.
// The feed is a thin collaborator: it produces documents, the ingest
// service decides what to do with them.
type DocumentFeed interface {
	// Fetch returns the orders published in the given year.
	// Documents carry no ID; the ingest service assigns one.
	Fetch(ctx context.Context, year int) ([]domain.Document, error)
}

// WatchingFeed is a DocumentFeed that can additionally push documents as
// they appear (e.g. files dropped into a watched directory).
type WatchingFeed interface {
	DocumentFeed

	// Watch emits documents until ctx is cancelled. The returned error
	// channel receives per-document failures; both channels close when
	// the watch ends.
	Watch(ctx context.Context) (<-chan domain.Document, <-chan error)
}
