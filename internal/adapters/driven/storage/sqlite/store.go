package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/policypal/policypal/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/policypal/policypal/internal/core/domain"
	"github.com/policypal/policypal/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store persists executive order documents and chunks in SQLite.
// The database runs in WAL mode so concurrent readers do not block the
// single ingest writer.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.policypal/data/policypal.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".policypal", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "policypal.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// SaveDocument stores or updates a document without touching chunks.
// Inserting a new document with an order number another document already
// holds fails with domain.ErrAlreadyExists.
func (s *Store) SaveDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, order_number, title, president, administration, url, published_date, full_text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			order_number = excluded.order_number,
			title = excluded.title,
			president = excluded.president,
			administration = excluded.administration,
			url = excluded.url,
			published_date = excluded.published_date,
			full_text = excluded.full_text,
			updated_at = excluded.updated_at
	`, doc.ID, doc.OrderNumber, doc.Title, doc.President, doc.Administration,
		doc.URL, nullTime(doc.PublishedDate), doc.FullText, doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order %s: %w", doc.OrderNumber, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveDocumentWithChunks stores a document and its chunk set in a single
// transaction, replacing any chunks a superseded version had.
func (s *Store) SaveDocumentWithChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, order_number, title, president, administration, url, published_date, full_text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			order_number = excluded.order_number,
			title = excluded.title,
			president = excluded.president,
			administration = excluded.administration,
			url = excluded.url,
			published_date = excluded.published_date,
			full_text = excluded.full_text,
			updated_at = excluded.updated_at
	`, doc.ID, doc.OrderNumber, doc.Title, doc.President, doc.Administration,
		doc.URL, nullTime(doc.PublishedDate), doc.FullText, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("order %s: %w", doc.OrderNumber, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("saving document: %w", err)
	}

	// Replace the full chunk set so a superseded version leaves nothing
	// behind.
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("clearing old chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, position, content, char_start, char_end, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		embeddingBlob := float32SliceToBytes(chunk.Embedding)
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Position,
			chunk.Content, chunk.CharStart, chunk.CharEnd, embeddingBlob); err != nil {
			return fmt.Errorf("saving chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

const documentColumns = "id, order_number, title, president, administration, url, published_date, full_text, created_at, updated_at"

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

// GetDocumentByOrderNumber retrieves a document by its order number.
func (s *Store) GetDocumentByOrderNumber(ctx context.Context, orderNumber string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE order_number = ?", orderNumber)
	return scanDocument(row)
}

// GetChunk retrieves a specific chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, position, content, char_start, char_end, embedding
		FROM chunks WHERE id = ?
	`, id)

	var chunk domain.Chunk
	var embeddingBlob []byte
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position,
		&chunk.Content, &chunk.CharStart, &chunk.CharEnd, &embeddingBlob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
	return &chunk, nil
}

// GetChunks retrieves all chunks for a document, ordered by position.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, position, content, char_start, char_end, embedding
		FROM chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// ListDocuments returns all documents ordered by published date.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents ORDER BY published_date, order_number")
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// ListUnprocessed returns documents that have no chunks yet.
func (s *Store) ListUnprocessed(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents d
		WHERE NOT EXISTS (SELECT 1 FROM chunks c WHERE c.document_id = d.id)
		ORDER BY published_date, order_number
	`)
	if err != nil {
		return nil, fmt.Errorf("querying unprocessed documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// ListEmbeddedChunks returns every chunk that carries an embedding,
// ordered by document and position. Used to rebuild the vector index
// from durable state.
func (s *Store) ListEmbeddedChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, position, content, char_start, char_end, embedding
		FROM chunks
		WHERE embedding IS NOT NULL AND length(embedding) > 0
		ORDER BY document_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying embedded chunks: %w", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// DeleteDocument removes a document; chunks cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var published sql.NullTime

	if err := row.Scan(&doc.ID, &doc.OrderNumber, &doc.Title, &doc.President,
		&doc.Administration, &doc.URL, &published, &doc.FullText,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if published.Valid {
		doc.PublishedDate = published.Time
	}
	return &doc, nil
}

// scanDocuments scans documents from *sql.Rows.
func scanDocuments(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		var doc domain.Document
		var published sql.NullTime
		if err := rows.Scan(&doc.ID, &doc.OrderNumber, &doc.Title, &doc.President,
			&doc.Administration, &doc.URL, &published, &doc.FullText,
			&doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if published.Valid {
			doc.PublishedDate = published.Time
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// scanChunks scans chunks from *sql.Rows.
func scanChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position,
			&chunk.Content, &chunk.CharStart, &chunk.CharEnd, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// nullTime maps the zero time onto SQL NULL.
func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the documents.order_number column.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: documents.order_number")
}
