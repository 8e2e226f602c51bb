package store

import (
	"context"
	"errors"
)

// ErrDuplicateID is returned by InsertUnique when the document ID is taken.
var ErrDuplicateID = errors.New("duplicate document id")

// VectorIndex holds embedded documents for similarity search.
//
// Implementations are flat: Scan walks every document. An approximate
// nearest-neighbour index can replace them without touching the ranker.
type VectorIndex interface {
	// Insert stores doc, replacing any document with the same ID.
	Insert(ctx context.Context, doc Document) error
	// InsertUnique stores doc or fails with ErrDuplicateID.
	InsertUnique(ctx context.Context, doc Document) error
	// Clear removes every document.
	Clear(ctx context.Context) error
	// Scan calls fn for each document in first-insert order.
	// Returning an error from fn stops the scan and is passed through.
	Scan(ctx context.Context, fn func(Document) error) error
	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
}
