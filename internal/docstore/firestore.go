package docstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore is the production backend.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

type firestoreSnapshot struct {
	doc *firestore.DocumentSnapshot
}

func (s firestoreSnapshot) ID() string { return s.doc.Ref.ID }

func (s firestoreSnapshot) DataTo(dst any) error { return s.doc.DataTo(dst) }

func mapFirestoreError(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrAlreadyExists
	}
	return err
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	doc, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return nil, mapFirestoreError(err)
	}
	return firestoreSnapshot{doc: doc}, nil
}

func (s *FirestoreStore) Create(ctx context.Context, collection, id string, doc any) error {
	_, err := s.client.Collection(collection).Doc(id).Create(ctx, doc)
	return mapFirestoreError(err)
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, doc any) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, doc)
	return err
}

func toUpdates(fields map[string]any) []firestore.Update {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		if isNil(v) {
			updates = append(updates, firestore.Update{Path: k, Value: firestore.Delete})
			continue
		}
		updates = append(updates, firestore.Update{Path: k, Value: plainValue(v)})
	}
	return updates
}

// plainValue unwraps named string and bool types, which Firestore filters
// would otherwise reject.
func plainValue(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return v
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, toUpdates(fields))
	return mapFirestoreError(err)
}

func (s *FirestoreStore) UpdateIfVersion(ctx context.Context, collection, id string, version int64, fields map[string]any) error {
	ref := s.client.Collection(collection).Doc(id)
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return mapFirestoreError(err)
		}
		var current int64
		if v, err := snap.DataAt(VersionField); err == nil {
			if n, ok := v.(int64); ok {
				current = n
			}
		}
		if current != version {
			return ErrVersionMismatch
		}
		updates := append(toUpdates(fields), firestore.Update{Path: VersionField, Value: version + 1})
		return tx.Update(ref, updates)
	})
	return mapFirestoreError(err)
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return err
}

func (s *FirestoreStore) query(collection string, filters []Filter) firestore.Query {
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, string(f.Op), plainValue(f.Value))
	}
	return q
}

func (s *FirestoreStore) Find(ctx context.Context, collection string, q Query) ([]Snapshot, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	fq := s.query(collection, q.Filters)
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	iter := fq.Documents(ctx)
	defer iter.Stop()

	var out []Snapshot
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
		out = append(out, firestoreSnapshot{doc: doc})
	}
	return out, nil
}

func (s *FirestoreStore) Count(ctx context.Context, collection string, filters ...Filter) (int, error) {
	if err := validateQuery(Query{Filters: filters}); err != nil {
		return 0, err
	}

	iter := s.query(collection, filters).Select().Documents(ctx)
	defer iter.Stop()

	n := 0
	for {
		_, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return n, nil
		}
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", collection, err)
		}
		n++
	}
}

// Batch applies writes in one transaction. Firestore caps a transaction at
// 500 writes.
func (s *FirestoreStore) Batch(ctx context.Context, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for i, w := range writes {
			ref := s.client.Collection(w.Collection).Doc(w.ID)
			var err error
			switch w.Kind {
			case WriteSet:
				err = tx.Set(ref, w.Doc)
			case WriteUpdate:
				err = tx.Update(ref, toUpdates(w.Fields))
			case WriteDelete:
				err = tx.Delete(ref)
			default:
				err = fmt.Errorf("unknown kind %d", w.Kind)
			}
			if err != nil {
				return fmt.Errorf("batch write %d (%s/%s): %w", i, w.Collection, w.ID, err)
			}
		}
		return nil
	})
	return mapFirestoreError(err)
}

func (s *FirestoreStore) Ping(ctx context.Context) error {
	iter := s.client.Collections(ctx)
	_, err := iter.Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
