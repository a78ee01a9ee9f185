// internal/database/store.go
package database

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("document not found")

type Operator string

const (
	OpEqual         Operator = "=="
	OpGreaterEqual  Operator = ">="
	OpLessEqual     Operator = "<="
	OpArrayContains Operator = "array-contains"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Predicate filters documents on a single field. Field names are the document's
// JSON/Firestore field names (camelCase).
type Predicate struct {
	Field    string      `json:"field"`
	Operator Operator    `json:"op"`
	Value    interface{} `json:"value"`
}

type Sort struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// Query is a conjunction of predicates over one collection with a single-field sort.
type Query struct {
	Collection string      `json:"collection"`
	Predicates []Predicate `json:"predicates"`
	Sort       Sort        `json:"sort"`
	Limit      int         `json:"limit,omitempty"`
	Offset     int         `json:"offset,omitempty"`
}

func NewQuery(collection string) Query {
	return Query{Collection: collection}
}

func (q Query) Where(field string, op Operator, value interface{}) Query {
	preds := make([]Predicate, len(q.Predicates), len(q.Predicates)+1)
	copy(preds, q.Predicates)
	q.Predicates = append(preds, Predicate{Field: field, Operator: op, Value: value})
	return q
}

func (q Query) OrderBy(field string, dir Direction) Query {
	q.Sort = Sort{Field: field, Direction: dir}
	return q
}

func (q Query) Paginate(limit, offset int) Query {
	q.Limit = limit
	q.Offset = offset
	return q
}

// Document is implemented by records the store assigns an id and creation time to.
type Document interface {
	SetID(id string)
	SetCreatedAt(t time.Time)
}

// DocumentStore is the persistence collaborator shared by ingestion and discovery.
// Writes are atomic per document; there is no cross-document transaction.
type DocumentStore interface {
	// Create persists doc as a new document and returns the assigned id.
	Create(ctx context.Context, collection string, doc Document) (string, error)
	// Get loads a document into dst, or returns ErrNotFound.
	Get(ctx context.Context, collection, id string, dst Document) error
	// Query decodes the matching documents into dst, a pointer to a slice.
	Query(ctx context.Context, q Query, dst interface{}) error
	Close() error
}
