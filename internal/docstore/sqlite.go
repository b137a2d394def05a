package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// SQLiteStore keeps every collection in one table of JSON documents.
type SQLiteStore struct {
	db     *sql.DB
	logger *zerolog.Logger
}

func NewSQLiteStore(path string, logger *zerolog.Logger) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("sqlite document store initialized")
	return &SQLiteStore{db: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS documents (
            collection TEXT NOT NULL,
            id TEXT NOT NULL,
            data TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (collection, id)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return &jsonSnapshot{id: id, raw: []byte(raw)}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)`, collection, id, string(raw))
	if isConstraintError(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *SQLiteStore) Set(ctx context.Context, collection, id string, doc any) error {
	return s.set(ctx, s.db, collection, id, doc)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) set(ctx context.Context, ex execer, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	_, err = ex.ExecContext(ctx, `
        INSERT INTO documents (collection, id, data) VALUES (?, ?, ?)
        ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		collection, id, string(raw))
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *SQLiteStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.update(ctx, tx, collection, id, fields, nil)
	})
}

func (s *SQLiteStore) UpdateIfVersion(ctx context.Context, collection, id string, version int64, fields map[string]any) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.update(ctx, tx, collection, id, fields, &version)
	})
}

func (s *SQLiteStore) update(ctx context.Context, ex execer, collection, id string, fields map[string]any, expected *int64) error {
	var raw string
	err := ex.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load %s/%s: %w", collection, id, err)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	if expected != nil && versionOf(data) != *expected {
		return ErrVersionMismatch
	}
	if err := applyFields(data, fields); err != nil {
		return err
	}
	if expected != nil {
		data[VersionField] = float64(*expected + 1)
	}

	next, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	_, err = ex.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE collection = ? AND id = ?`,
		string(next), collection, id)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Find narrows candidates with json_extract and re-checks filters in Go so
// every backend shares one comparison rule.
func (s *SQLiteStore) Find(ctx context.Context, collection string, q Query) ([]Snapshot, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	docs, err := s.filter(ctx, collection, q.Filters)
	if err != nil {
		return nil, err
	}
	return finalize(docs, q)
}

func (s *SQLiteStore) Count(ctx context.Context, collection string, filters ...Filter) (int, error) {
	if err := validateQuery(Query{Filters: filters}); err != nil {
		return 0, err
	}
	docs, err := s.filter(ctx, collection, filters)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *SQLiteStore) filter(ctx context.Context, collection string, filters []Filter) ([]document, error) {
	var (
		where = []string{"collection = ?"}
		args  = []any{collection}
	)
	for _, f := range filters {
		v, err := normalize(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode filter %s: %w", f.Field, err)
		}
		switch v.(type) {
		case nil:
			where = append(where, "json_extract(data, ?) IS NULL")
			args = append(args, "$."+f.Field)
		case string, float64, bool:
			where = append(where, "json_extract(data, ?) = ?")
			args = append(args, "$."+f.Field, v)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		ok, err := matches(data, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			docs = append(docs, document{id: id, data: data})
		}
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) Batch(ctx context.Context, writes []Write) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i, w := range writes {
			var err error
			switch w.Kind {
			case WriteSet:
				err = s.set(ctx, tx, w.Collection, w.ID, w.Doc)
			case WriteUpdate:
				err = s.update(ctx, tx, w.Collection, w.ID, w.Fields, nil)
			case WriteDelete:
				_, err = tx.ExecContext(ctx,
					`DELETE FROM documents WHERE collection = ? AND id = ?`, w.Collection, w.ID)
			default:
				err = fmt.Errorf("unknown kind %d", w.Kind)
			}
			if err != nil {
				return fmt.Errorf("batch write %d (%s/%s): %w", i, w.Collection, w.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
