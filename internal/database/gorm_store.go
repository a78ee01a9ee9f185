// internal/database/gorm_store.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore maps collections to PostgreSQL tables. Array fields are text[] columns, so
// array-contains becomes "value = ANY(column)".
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	doc.SetID(id)
	doc.SetCreatedAt(time.Now().UTC())

	if err := s.db.WithContext(ctx).Table(collection).Create(doc).Error; err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return id, nil
}

func (s *GormStore) Get(ctx context.Context, collection, id string, dst Document) error {
	err := s.db.WithContext(ctx).Table(collection).Where("id = ?", id).First(dst).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

func (s *GormStore) Query(ctx context.Context, q Query, dst interface{}) error {
	query := s.db.WithContext(ctx).Table(q.Collection)

	for _, p := range q.Predicates {
		column := s.column(q.Collection, p.Field)
		switch p.Operator {
		case OpEqual:
			if p.Value == nil {
				query = query.Where(fmt.Sprintf("%s IS NULL", column))
			} else {
				query = query.Where(fmt.Sprintf("%s = ?", column), p.Value)
			}
		case OpGreaterEqual:
			query = query.Where(fmt.Sprintf("%s >= ?", column), p.Value)
		case OpLessEqual:
			query = query.Where(fmt.Sprintf("%s <= ?", column), p.Value)
		case OpArrayContains:
			query = query.Where(fmt.Sprintf("? = ANY(%s)", column), p.Value)
		default:
			return fmt.Errorf("unsupported operator %q", p.Operator)
		}
	}

	if q.Sort.Field != "" {
		dir := "ASC"
		if q.Sort.Direction == Desc {
			dir = "DESC"
		}
		query = query.Order(fmt.Sprintf("%s %s", s.column(q.Collection, q.Sort.Field), dir))
	}

	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	if err := query.Find(dst).Error; err != nil {
		return fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}
	return nil
}

func (s *GormStore) Close() error {
	Close(s.db)
	return nil
}

// column converts a document field name (offerRental) to its column (offer_rental) using the
// same naming strategy gorm used to create the table.
func (s *GormStore) column(table, field string) string {
	return s.db.NamingStrategy.ColumnName(table, field)
}
