package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = fmt.Errorf("document not found")

// Store is the repository for documents and their chunks. All mutation of
// shared state goes through it; ReplaceChunks and DeleteDocument are the
// only multi-row writes and each runs in a single transaction.
type Store struct {
	db *DB
}

// New creates a store backed by the given database.
func New(db *DB) *Store {
	return &Store{db: db}
}

const documentColumns = `id, title, description, doc_type, scope, is_admin_managed, source_type, source_url,
	content, content_hash, status, processing_error, chunk_count, target_functions, target_platforms,
	tags, priority, is_active, usage_count, last_used_at, uploaded_by, created_at, updated_at`

// CreateDocument inserts a new document. An empty ID is assigned; status
// defaults to pending.
func (s *Store) CreateDocument(ctx context.Context, doc Document) (*Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.Status == "" {
		doc.Status = StatusPending
	}
	if doc.DocType == "" {
		doc.DocType = DocTypeCustom
	}
	if doc.Scope == "" {
		doc.Scope = ScopeUser
	}
	if doc.Priority == 0 {
		doc.Priority = 5
	}
	doc.IsActive = true

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.Description, doc.DocType, doc.Scope, doc.IsAdminManaged,
		doc.SourceType, doc.SourceURL, doc.Content, doc.ContentHash, doc.Status,
		doc.ProcessingError, doc.ChunkCount, marshalSet(doc.TargetFunctions),
		marshalSet(doc.TargetPlatforms), marshalSet(doc.Tags), doc.Priority,
		doc.IsActive, doc.UsageCount, doc.LastUsedAt, doc.UploadedBy, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}
	return &doc, nil
}

// GetDocument retrieves a document by id, or ErrNotFound.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns documents matching the filter, newest first.
func (s *Store) ListDocuments(ctx context.Context, filter DocumentFilter) ([]Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	args := []interface{}{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.DocType != "" {
		query += " AND doc_type = ?"
		args = append(args, filter.DocType)
	}
	if filter.UploadedBy != "" {
		query += " AND uploaded_by = ?"
		args = append(args, filter.UploadedBy)
	}
	if filter.ActiveOnly {
		query += " AND is_active = 1"
	}

	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return s.queryDocuments(ctx, query, args...)
}

// ListEligible returns the documents a search may score: READY, active,
// optionally narrowed by doc type, and visible under the given visibility
// rules. Function/platform set membership is checked by the caller since
// the restriction sets are JSON columns.
func (s *Store) ListEligible(ctx context.Context, docType DocType, vis Visibility) ([]Document, error) {
	if !vis.IncludeAdminManaged && !vis.IncludeUserManaged {
		return nil, nil
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE status = ? AND is_active = 1`
	args := []interface{}{StatusReady}

	if docType != "" {
		query += " AND doc_type = ?"
		args = append(args, docType)
	}

	var clauses []string
	if vis.IncludeAdminManaged {
		clauses = append(clauses, "is_admin_managed = 1")
	}
	if vis.IncludeUserManaged {
		clauses = append(clauses, "(is_admin_managed = 0 AND uploaded_by = ?)")
		args = append(args, vis.Owner)
	}
	query += " AND (" + strings.Join(clauses, " OR ") + ")"

	return s.queryDocuments(ctx, query, args...)
}

// FindByContentHash returns all documents carrying the given hash.
// Dedup policy (same-owner vs. canonical admin copy) is the gateway's call.
func (s *Store) FindByContentHash(ctx context.Context, hash string) ([]Document, error) {
	return s.queryDocuments(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE content_hash = ? ORDER BY created_at ASC`, hash)
}

// UpdateStatus sets a document's status and processing error.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status, processingError string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, processing_error = ?, updated_at = ? WHERE id = ?`,
		status, processingError, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CompareAndSwapStatus atomically moves a document from one of the given
// statuses to a new one. It reports false when the document was not in an
// accepted state, which serializes concurrent processing attempts.
func (s *Store) CompareAndSwapStatus(ctx context.Context, id string, from []Status, to Status) (bool, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	args := []interface{}{to, time.Now().UTC(), id}
	for _, st := range from {
		args = append(args, st)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, processing_error = '', updated_at = ?
		 WHERE id = ? AND status IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return false, fmt.Errorf("swapping status: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SetContent replaces a document's raw text and content hash, used when a
// URL document's extracted text arrives after creation.
func (s *Store) SetContent(ctx context.Context, id, content, contentHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET content = ?, content_hash = ?, updated_at = ? WHERE id = ?`,
		content, contentHash, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive toggles a document's visibility to search.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceChunks atomically replaces the full chunk set of a document and
// records the new chunk count. Prior chunks are deleted and the new set
// inserted in one transaction, so readers never observe a partial set.
func (s *Store) ReplaceChunks(ctx context.Context, documentID string, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("deleting prior chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, document_id, chunk_index, content, token_count, embedding, embedding_model, start_char, end_char)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx, c.ID, documentID, c.ChunkIndex, c.Content,
			c.TokenCount, encodeVector(c.Embedding), c.EmbeddingModel, c.StartChar, c.EndChar); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.ChunkIndex, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET chunk_count = ?, updated_at = ? WHERE id = ?`,
		len(chunks), time.Now().UTC(), documentID); err != nil {
		return fmt.Errorf("updating chunk count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunk replacement: %w", err)
	}
	return nil
}

// DeleteDocument removes a document and all its chunks in one transaction.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// ListChunksByDocuments loads all chunks of the given documents, ordered
// by document and chunk index.
func (s *Store) ListChunksByDocuments(ctx context.Context, documentIDs []string) ([]Chunk, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(documentIDs)), ",")
	args := make([]interface{}, len(documentIDs))
	for i, id := range documentIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, chunk_index, content, token_count, embedding, embedding_model, start_char, end_char
		 FROM chunks WHERE document_id IN (`+placeholders+`) ORDER BY document_id, chunk_index`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content, &c.TokenCount,
			&blob, &c.EmbeddingModel, &c.StartChar, &c.EndChar); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = decodeVector(blob)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// MarkUsed increments usage counters on the documents backing returned
// search results and stamps last_used_at.
func (s *Store) MarkUsed(ctx context.Context, documentIDs []string) error {
	if len(documentIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(documentIDs)), ",")
	args := []interface{}{time.Now().UTC()}
	for _, id := range documentIDs {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE documents SET usage_count = usage_count + 1, last_used_at = ?
		 WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("marking documents used: %w", err)
	}
	return nil
}

func (s *Store) queryDocuments(ctx context.Context, query string, args ...interface{}) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*Document, error) {
	var doc Document
	var functions, platforms, tags string
	var lastUsed sql.NullTime

	err := row.Scan(&doc.ID, &doc.Title, &doc.Description, &doc.DocType, &doc.Scope,
		&doc.IsAdminManaged, &doc.SourceType, &doc.SourceURL, &doc.Content, &doc.ContentHash,
		&doc.Status, &doc.ProcessingError, &doc.ChunkCount, &functions, &platforms, &tags,
		&doc.Priority, &doc.IsActive, &doc.UsageCount, &lastUsed, &doc.UploadedBy,
		&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}

	doc.TargetFunctions = unmarshalSet(functions)
	doc.TargetPlatforms = unmarshalSet(platforms)
	doc.Tags = unmarshalSet(tags)
	if lastUsed.Valid {
		doc.LastUsedAt = &lastUsed.Time
	}
	return &doc, nil
}

func marshalSet(set []string) string {
	if len(set) == 0 {
		return "[]"
	}
	data, err := json.Marshal(set)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalSet(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var set []string
	if err := json.Unmarshal([]byte(data), &set); err != nil {
		return nil
	}
	return set
}
