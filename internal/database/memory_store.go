// internal/database/memory_store.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	fieldID        = "id"
	fieldCreatedAt = "createdAt"
)

type record struct {
	id      string
	created time.Time
	seq     int64
	fields  map[string]interface{}
}

func (r *record) value(field string) (interface{}, bool) {
	switch field {
	case fieldID:
		return r.id, true
	case fieldCreatedAt:
		return r.created, true
	}
	v, ok := r.fields[field]
	return v, ok
}

func (r *record) document() map[string]interface{} {
	doc := make(map[string]interface{}, len(r.fields)+2)
	for k, v := range r.fields {
		doc[k] = v
	}
	doc[fieldID] = r.id
	doc[fieldCreatedAt] = r.created
	return doc
}

// MemoryStore keeps documents in process memory as JSON field maps. It evaluates the same
// predicate set as the hosted stores and is used for local development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*record
	seq         int64
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*record),
		now:         time.Now,
	}
}

// WithClock replaces the creation-time source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Create(ctx context.Context, collection string, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	created := s.now().UTC()
	doc.SetID(id)
	doc.SetCreatedAt(created)

	fields, err := toFields(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	delete(fields, fieldID)
	delete(fields, fieldCreatedAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]*record)
	}
	s.collections[collection][id] = &record{id: id, created: created, seq: s.seq, fields: fields}

	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string, dst Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	r, ok := s.collections[collection][id]
	var doc map[string]interface{}
	if ok {
		doc = r.document()
	}
	s.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	return decode(doc, dst)
}

func (s *MemoryStore) Query(ctx context.Context, q Query, dst interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	preds := make([]Predicate, len(q.Predicates))
	for i, p := range q.Predicates {
		preds[i] = Predicate{Field: p.Field, Operator: p.Operator, Value: normalize(p.Value)}
	}

	s.mu.RLock()
	var matched []*record
	for _, r := range s.collections[q.Collection] {
		if matchesAll(r, preds) {
			matched = append(matched, r)
		}
	}

	sortRecords(matched, q.Sort)

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[q.Offset:]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	docs := make([]map[string]interface{}, 0, len(matched))
	for _, r := range matched {
		docs = append(docs, r.document())
	}
	s.mu.RUnlock()

	return decode(docs, dst)
}

// Count returns the number of documents in a collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func (s *MemoryStore) Close() error {
	return nil
}

func matchesAll(r *record, preds []Predicate) bool {
	for _, p := range preds {
		if !matches(r, p) {
			return false
		}
	}
	return true
}

func matches(r *record, p Predicate) bool {
	v, ok := r.value(p.Field)
	if !ok {
		return false
	}

	switch p.Operator {
	case OpEqual:
		if v == nil || p.Value == nil {
			return v == nil && p.Value == nil
		}
		c, ok := compareValues(v, p.Value)
		return ok && c == 0
	case OpGreaterEqual:
		c, ok := compareValues(v, p.Value)
		return ok && c >= 0
	case OpLessEqual:
		c, ok := compareValues(v, p.Value)
		return ok && c <= 0
	case OpArrayContains:
		items, ok := v.([]interface{})
		if !ok {
			return false
		}
		for _, item := range items {
			if c, ok := compareValues(item, p.Value); ok && c == 0 {
				return true
			}
		}
		return false
	}
	return false
}

func sortRecords(records []*record, s Sort) {
	desc := s.Direction == Desc
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if s.Field != "" {
			av, _ := a.value(s.Field)
			bv, _ := b.value(s.Field)
			if c, ok := compareValues(av, bv); ok && c != 0 {
				if desc {
					return c > 0
				}
				return c < 0
			}
		}
		if desc {
			return a.seq > b.seq
		}
		return a.seq < b.seq
	})
}

// compareValues orders two decoded JSON values of the same kind. The second result is false
// when the values are not comparable.
func compareValues(a, b interface{}) (int, bool) {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	case time.Time:
		var bt time.Time
		switch bv := b.(type) {
		case time.Time:
			bt = bv
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, bv)
			if err != nil {
				return 0, false
			}
			bt = parsed
		default:
			return 0, false
		}
		return av.Compare(bt), true
	}
	return 0, false
}

// normalize converts a predicate value to the shape it has inside a decoded document.
func normalize(v interface{}) interface{} {
	if t, ok := v.(time.Time); ok {
		return t
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func toFields(doc interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]interface{})
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func decode(src, dst interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}
