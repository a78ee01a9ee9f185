// internal/models/order.go
package models

type OrderItem struct {
	ListingID    string       `json:"listingId" firestore:"listingId"`
	Title        string       `json:"title" firestore:"title"`
	Price        float64      `json:"price" firestore:"price"`
	PurchaseType PurchaseType `json:"purchaseType" firestore:"purchaseType"`
}

type Order struct {
	BaseDocument
	UserID           string      `json:"userId" firestore:"userId" gorm:"size:128;not null;index"`
	Items            []OrderItem `json:"items" firestore:"items" gorm:"type:jsonb;serializer:json"`
	Total            float64     `json:"total" firestore:"total" gorm:"type:decimal(10,2);not null"`
	Currency         string      `json:"currency" firestore:"currency" gorm:"size:3"`
	PaymentMethod    string      `json:"paymentMethod" firestore:"paymentMethod" gorm:"size:255"`
	PaymentReference string      `json:"paymentReference" firestore:"paymentReference" gorm:"size:255"`
	Status           OrderStatus `json:"status" firestore:"status" gorm:"type:varchar(20);default:'pending';index"`
}

func (Order) TableName() string {
	return OrdersCollection
}
