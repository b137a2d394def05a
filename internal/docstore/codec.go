package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// document is the decoded JSON form used by the memory and SQLite backends.
type document struct {
	id   string
	data map[string]any
}

type jsonSnapshot struct {
	id  string
	raw []byte
}

func (s *jsonSnapshot) ID() string { return s.id }

func (s *jsonSnapshot) DataTo(dst any) error {
	return json.Unmarshal(s.raw, dst)
}

func newSnapshot(d document) (*jsonSnapshot, error) {
	raw, err := json.Marshal(d.data)
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", d.id, err)
	}
	return &jsonSnapshot{id: d.id, raw: raw}, nil
}

func encode(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("document must encode to an object: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// normalize converts a Go value into the shape it has after a JSON round trip.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func applyFields(data map[string]any, fields map[string]any) error {
	for k, v := range fields {
		if isNil(v) {
			delete(data, k)
			continue
		}
		nv, err := normalize(v)
		if err != nil {
			return fmt.Errorf("encode field %s: %w", k, err)
		}
		data[k] = nv
	}
	return nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func lookup(data map[string]any, path string) (any, bool) {
	var cur any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func versionOf(data map[string]any) int64 {
	v, ok := data[VersionField].(float64)
	if !ok {
		return 0
	}
	return int64(v)
}

func matches(data map[string]any, filters []Filter) (bool, error) {
	for _, f := range filters {
		want, err := normalize(f.Value)
		if err != nil {
			return false, fmt.Errorf("encode filter %s: %w", f.Field, err)
		}
		got, _ := lookup(data, f.Field)
		if !equalValues(got, want) {
			return false, nil
		}
	}
	return true, nil
}

func equalValues(a, b any) bool {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return false
	}
	if ra == rankOther {
		return reflect.DeepEqual(a, b)
	}
	return compareValues(a, b) == 0
}

const (
	rankNull = iota
	rankBool
	rankNumber
	rankString
	rankOther
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case bool:
		return rankBool
	case float64:
		return rankNumber
	case string:
		return rankString
	default:
		return rankOther
	}
}

// compareValues orders JSON values: null < bool < number < string < other.
// Strings that both parse as RFC 3339 timestamps compare chronologically.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case nil:
		return 0
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		bv := b.(string)
		ta, errA := time.Parse(time.RFC3339Nano, av)
		tb, errB := time.Parse(time.RFC3339Nano, bv)
		if errA == nil && errB == nil {
			return ta.Compare(tb)
		}
		return strings.Compare(av, bv)
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

// sortDocuments orders docs by field, breaking ties by id so results are stable.
func sortDocuments(docs []document, field string, desc bool) {
	sort.SliceStable(docs, func(i, j int) bool {
		if field != "" {
			vi, _ := lookup(docs[i].data, field)
			vj, _ := lookup(docs[j].data, field)
			if c := compareValues(vi, vj); c != 0 {
				if desc {
					return c > 0
				}
				return c < 0
			}
		}
		return docs[i].id < docs[j].id
	})
}

func finalize(docs []document, q Query) ([]Snapshot, error) {
	sortDocuments(docs, q.OrderBy, q.Desc)
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	out := make([]Snapshot, 0, len(docs))
	for _, d := range docs {
		snap, err := newSnapshot(d)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}
