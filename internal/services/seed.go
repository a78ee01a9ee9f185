// internal/services/seed.go
package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/party-props-backend/internal/database"
	"github.com/javajoker/party-props-backend/internal/models"
)

type demoListing struct {
	title       string
	description string
	category    string
	theme       string
	condition   string
	price       float64
	rentalPrice float64
	image       string
}

var demoListings = []demoListing{
	{"Cowboy Hat", "Authentic-looking cowboy hat, perfect for western themed parties", "props", "western/cowboy", "Like New", 25, 10,
		"https://images.unsplash.com/photo-1561730916-2f8e6f3d0e01?q=80&auto=format"},
	{"Superhero Cape", "Red cape for your superhero costume needs", "costumes", "superhero", "Good", 15, 5,
		"https://images.unsplash.com/photo-1502163140606-888448ae8cfe?q=80&auto=format"},
	{"Disco Ball", "Light up your 70s disco party with this authentic disco ball", "decorations", "disco", "Excellent", 35, 15,
		"https://images.unsplash.com/photo-1558180702-95f1c3ae2ca3?q=80&auto=format"},
	{"Pirate Costume Set", "Complete pirate costume including hat, eye patch, and sword", "costumes", "pirate", "Like New", 45, 20,
		"https://images.unsplash.com/photo-1635013993232-59aeca3effaa?q=80&auto=format"},
}

// SeedDemoListings writes a few listings into an empty store so the home page has content.
func SeedDemoListings(ctx context.Context, store database.DocumentStore, seller models.Identity) error {
	var existing []models.Listing
	if err := store.Query(ctx, database.NewQuery(models.ListingsCollection).Paginate(1, 0), &existing); err != nil {
		return fmt.Errorf("failed to check for existing listings: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	duration := models.DefaultRentalDuration
	for _, demo := range demoListings {
		rentalPrice := demo.rentalPrice
		listing := &models.Listing{
			Title:          demo.title,
			Description:    demo.description,
			Category:       demo.category,
			Theme:          demo.theme,
			Condition:      demo.condition,
			Price:          demo.price,
			OfferRental:    true,
			RentalPrice:    &rentalPrice,
			RentalDuration: &duration,
			Images:         []string{demo.image},
			Keywords:       DeriveKeywords(demo.title, demo.description, demo.category, demo.theme),
			UserID:         seller.UserID,
			SellerName:     seller.DisplayName,
			SellerPhotoURL: seller.PhotoURL,
			Status:         models.ListingStatusAvailable,
		}
		if _, err := store.Create(ctx, models.ListingsCollection, listing); err != nil {
			return fmt.Errorf("failed to seed listing %q: %w", demo.title, err)
		}
	}

	logrus.WithField("count", len(demoListings)).Info("Seeded demo listings")
	return nil
}
