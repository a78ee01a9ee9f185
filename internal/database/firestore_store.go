// internal/database/firestore_store.go
package database

import (
	"context"
	"fmt"
	"reflect"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore talks to Cloud Firestore, the document store the web client reads from.
// Queries combining a range filter with a sort on another field need a composite index.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Create(ctx context.Context, collection string, doc Document) (string, error) {
	ref, wr, err := s.client.Collection(collection).Add(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to add document to %s: %w", collection, err)
	}

	doc.SetID(ref.ID)
	// createdAt is written as a server timestamp; the write time is the closest local value.
	doc.SetCreatedAt(wr.UpdateTime)
	return ref.ID, nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string, dst Document) error {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}

	if err := snap.DataTo(dst); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}
	dst.SetID(snap.Ref.ID)
	return nil
}

func (s *FirestoreStore) Query(ctx context.Context, q Query, dst interface{}) error {
	slice := reflect.ValueOf(dst)
	if slice.Kind() != reflect.Ptr || slice.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("query destination must be a pointer to a slice, got %T", dst)
	}
	slice = slice.Elem()

	query := s.client.Collection(q.Collection).Query
	for _, p := range q.Predicates {
		query = query.Where(p.Field, string(p.Operator), p.Value)
	}
	if q.Sort.Field != "" {
		dir := firestore.Asc
		if q.Sort.Direction == Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(q.Sort.Field, dir)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}

	elemType := slice.Type().Elem()
	isPtr := elemType.Kind() == reflect.Ptr
	if isPtr {
		elemType = elemType.Elem()
	}

	out := reflect.MakeSlice(slice.Type(), 0, len(snaps))
	for _, snap := range snaps {
		item := reflect.New(elemType)
		if err := snap.DataTo(item.Interface()); err != nil {
			return fmt.Errorf("failed to decode %s/%s: %w", q.Collection, snap.Ref.ID, err)
		}
		if doc, ok := item.Interface().(Document); ok {
			doc.SetID(snap.Ref.ID)
		}
		if isPtr {
			out = reflect.Append(out, item)
		} else {
			out = reflect.Append(out, item.Elem())
		}
	}
	slice.Set(out)
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
