// Package sqlite provides the durable storage adapter.
//
// A single SQLite database holds document metadata, full text, and chunk
// embeddings (stored as little-endian float32 blobs). The vector index is
// derived state: it can always be rebuilt from this store, which is why
// embeddings live here as well as in the index.
//
// Schema changes are embedded migrations under migrations/, applied in
// filename order on startup and tracked in schema_migrations.
package sqlite
