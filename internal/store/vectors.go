package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
)

// SQLiteIndex is a VectorIndex persisted in the documents table
type SQLiteIndex struct {
	db *DB
}

// NewSQLiteIndex creates a vector index backed by db
func NewSQLiteIndex(db *DB) *SQLiteIndex {
	return &SQLiteIndex{db: db}
}

const insertDocumentSQL = `
	INSERT INTO documents (
		id, text, vector, dimension, repo_id, repo_name,
		file_path, file_name, language, type, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Insert inserts or replaces a document. The first-insert position is kept.
func (s *SQLiteIndex) Insert(ctx context.Context, doc Document) error {
	query := insertDocumentSQL + `
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			vector = excluded.vector,
			dimension = excluded.dimension,
			repo_id = excluded.repo_id,
			repo_name = excluded.repo_name,
			file_path = excluded.file_path,
			file_name = excluded.file_name,
			language = excluded.language,
			type = excluded.type,
			created_at = excluded.created_at
	`
	return s.exec(ctx, query, doc)
}

// InsertUnique inserts a document or fails with ErrDuplicateID
func (s *SQLiteIndex) InsertUnique(ctx context.Context, doc Document) error {
	err := s.exec(ctx, insertDocumentSQL, doc)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", ErrDuplicateID, doc.ID)
	}
	return err
}

func (s *SQLiteIndex) exec(ctx context.Context, query string, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	if len(doc.Embedding) == 0 {
		return fmt.Errorf("cannot insert empty vector")
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	m := doc.Metadata
	_, err := s.db.sqlDB.ExecContext(ctx, query,
		doc.ID, doc.Text, vectorToBlob(doc.Embedding), len(doc.Embedding),
		m.RepoID, m.RepoName, m.FilePath, m.FileName, m.Language, m.Type,
		formatTime(doc.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// Clear removes every document
func (s *SQLiteIndex) Clear(ctx context.Context) error {
	if _, err := s.db.sqlDB.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}
	return nil
}

// Scan streams every document in first-insert order
func (s *SQLiteIndex) Scan(ctx context.Context, fn func(Document) error) error {
	rows, err := s.db.sqlDB.QueryContext(ctx, `
		SELECT id, text, vector, dimension, repo_id, repo_name,
			file_path, file_name, language, type, created_at
		FROM documents ORDER BY seq
	`)
	if err != nil {
		return fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return err
		}
		if err := fn(*doc); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}
	return nil
}

// Count returns the number of documents stored
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var blob []byte
	var dimension int
	var createdAtValue any

	if err := row.Scan(
		&doc.ID, &doc.Text, &blob, &dimension,
		&doc.Metadata.RepoID, &doc.Metadata.RepoName,
		&doc.Metadata.FilePath, &doc.Metadata.FileName,
		&doc.Metadata.Language, &doc.Metadata.Type,
		&createdAtValue,
	); err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	vector, err := blobToVector(blob)
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", doc.ID, err)
	}
	if len(vector) != dimension {
		return nil, fmt.Errorf("document %s: dimension mismatch: expected %d, got %d", doc.ID, dimension, len(vector))
	}
	doc.Embedding = vector

	createdAt, err := parseTimeValue(createdAtValue)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	doc.CreatedAt = createdAt

	return &doc, nil
}

// vectorToBlob encodes a vector as little-endian float32
func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// blobToVector decodes a little-endian float32 blob
func blobToVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("blob size %d is not a multiple of 4", len(blob))
	}

	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vector, nil
}
