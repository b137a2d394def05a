// Package docstore is a small document-database abstraction over
// Firestore, SQLite and an in-memory map. Documents are structs tagged
// with matching json and firestore names; every backend stores them
// under (collection, id).
package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("docstore: document not found")
	ErrAlreadyExists    = errors.New("docstore: document already exists")
	ErrVersionMismatch  = errors.New("docstore: version mismatch")
	ErrUnsupportedQuery = errors.New("docstore: unsupported query")
)

// VersionField is the document field used by UpdateIfVersion.
const VersionField = "version"

type Op string

const OpEqual Op = "=="

type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

// Query selects documents of one collection. Filters are ANDed.
// Limit <= 0 means no limit.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Snapshot is a fetched document.
type Snapshot interface {
	ID() string
	DataTo(dst any) error
}

type WriteKind int

const (
	WriteSet WriteKind = iota + 1
	WriteUpdate
	WriteDelete
)

// Write is one operation of an atomic batch.
type Write struct {
	Kind       WriteKind
	Collection string
	ID         string
	Doc        any
	Fields     map[string]any
}

func SetWrite(collection, id string, doc any) Write {
	return Write{Kind: WriteSet, Collection: collection, ID: id, Doc: doc}
}

func UpdateWrite(collection, id string, fields map[string]any) Write {
	return Write{Kind: WriteUpdate, Collection: collection, ID: id, Fields: fields}
}

func DeleteWrite(collection, id string) Write {
	return Write{Kind: WriteDelete, Collection: collection, ID: id}
}

// Store is implemented by every backend.
//
// Update merges fields into an existing document; a nil value removes the
// field. UpdateIfVersion does the same only when the stored version field
// equals version, and increments it.
type Store interface {
	Get(ctx context.Context, collection, id string) (Snapshot, error)
	Create(ctx context.Context, collection, id string, doc any) error
	Set(ctx context.Context, collection, id string, doc any) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	UpdateIfVersion(ctx context.Context, collection, id string, version int64, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Find(ctx context.Context, collection string, q Query) ([]Snapshot, error)
	Count(ctx context.Context, collection string, filters ...Filter) (int, error)
	Batch(ctx context.Context, writes []Write) error
	Ping(ctx context.Context) error
	Close() error
}

func validateQuery(q Query) error {
	for _, f := range q.Filters {
		if f.Field == "" {
			return errors.Join(ErrUnsupportedQuery, errors.New("empty filter field"))
		}
		if f.Op != OpEqual {
			return errors.Join(ErrUnsupportedQuery, errors.New("operator "+string(f.Op)))
		}
	}
	return nil
}
