// internal/models/listing.go
package models

import (
	"github.com/lib/pq"
)

type Listing struct {
	BaseDocument
	Title          string         `json:"title" firestore:"title" gorm:"size:255;not null"`
	Description    string         `json:"description" firestore:"description" gorm:"type:text;not null"`
	Category       string         `json:"category" firestore:"category" gorm:"size:50;index"`
	Theme          string         `json:"theme" firestore:"theme" gorm:"size:50;index"`
	Condition      string         `json:"condition" firestore:"condition" gorm:"size:20"`
	Price          float64        `json:"price" firestore:"price" gorm:"type:decimal(10,2);not null;index"`
	OfferRental    bool           `json:"offerRental" firestore:"offerRental" gorm:"default:false;index"`
	RentalPrice    *float64       `json:"rentalPrice" firestore:"rentalPrice" gorm:"type:decimal(10,2)"`
	RentalDuration *string        `json:"rentalDuration" firestore:"rentalDuration" gorm:"size:20"`
	Images         pq.StringArray `json:"images" firestore:"images" gorm:"type:text[]"`
	Keywords       pq.StringArray `json:"keywords" firestore:"keywords" gorm:"type:text[]"`
	UserID         string         `json:"userId" firestore:"userId" gorm:"size:128;index"`
	SellerName     string         `json:"sellerName" firestore:"sellerName" gorm:"size:255"`
	SellerPhotoURL string         `json:"sellerPhotoURL" firestore:"sellerPhotoURL" gorm:"size:1024"`
	Status         ListingStatus  `json:"status" firestore:"status" gorm:"type:varchar(20);default:'available';index"`
}

func (Listing) TableName() string {
	return ListingsCollection
}

// CoverImage is the first uploaded image, or "" for a listing without images.
func (l *Listing) CoverImage() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0]
}
