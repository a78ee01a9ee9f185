// internal/models/common.go
package models

import (
	"time"
)

// BaseDocument carries the fields the document store assigns on creation.
type BaseDocument struct {
	ID        string    `json:"id" firestore:"-" gorm:"size:64;primaryKey"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp" gorm:"index"`
}

func (d *BaseDocument) SetID(id string) {
	d.ID = id
}

func (d *BaseDocument) SetCreatedAt(t time.Time) {
	d.CreatedAt = t
}

// Collections
const (
	ListingsCollection = "products"
	OrdersCollection   = "orders"
	AuditCollection    = "auditLogs"
)

// Enums
type ListingStatus string

const (
	ListingStatusAvailable ListingStatus = "available"
	ListingStatusSold      ListingStatus = "sold"
	ListingStatusRented    ListingStatus = "rented"
)

type PurchaseType string

const (
	PurchaseTypeBuy  PurchaseType = "buy"
	PurchaseTypeRent PurchaseType = "rent"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
)
