// internal/models/catalog.go
package models

import "strings"

var Categories = []string{
	"Costumes",
	"Props",
	"Accessories",
	"Decorations",
	"Makeup",
	"Other",
}

var Themes = []string{
	"Western/Cowboy",
	"Hollywood/Glamour",
	"Superhero",
	"80s/Retro",
	"Halloween",
	"Masquerade",
	"Hawaiian/Tropical",
	"Christmas",
	"Sports",
	"Medieval/Renaissance",
	"Pirate",
	"Sci-Fi",
	"Roaring 20s",
	"Hippie/70s",
	"Disco",
	"Fantasy",
	"Other",
}

var Conditions = []string{
	"Like New",
	"Excellent",
	"Good",
	"Fair",
	"Poor",
}

var RentalDurations = []string{
	"1 day",
	"3 days",
	"1 week",
	"2 weeks",
}

const (
	DefaultCondition      = "Like New"
	DefaultRentalDuration = "3 days"
)

// Catalog is the read-only set of enumerations a listing form offers.
type Catalog struct {
	Categories      []string `json:"categories"`
	Themes          []string `json:"themes"`
	Conditions      []string `json:"conditions"`
	RentalDurations []string `json:"rentalDurations"`
}

func GetCatalog() Catalog {
	return Catalog{
		Categories:      Categories,
		Themes:          Themes,
		Conditions:      Conditions,
		RentalDurations: RentalDurations,
	}
}

// Categories and themes are stored lowercased, matching the option values the listing form submits.
func IsCategory(value string) bool {
	return containsFold(Categories, value)
}

func IsTheme(value string) bool {
	return containsFold(Themes, value)
}

func IsCondition(value string) bool {
	return contains(Conditions, value)
}

func IsRentalDuration(value string) bool {
	return contains(RentalDurations, value)
}

func containsFold(values []string, value string) bool {
	for _, v := range values {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
