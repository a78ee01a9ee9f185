// internal/models/search.go
package models

import "strings"

type SortField string

const (
	SortFieldCreatedAt SortField = "createdAt"
	SortFieldPrice     SortField = "price"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type SortOption struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

var DefaultSort = SortOption{Field: SortFieldCreatedAt, Direction: SortDesc}

// ParseSortOption accepts "createdAt_desc" style values. Unknown fields or directions fall back
// to DefaultSort.
func ParseSortOption(value string) SortOption {
	field, direction, _ := strings.Cut(value, "_")
	return NewSortOption(field, direction)
}

func NewSortOption(field, direction string) SortOption {
	opt := DefaultSort
	switch SortField(field) {
	case SortFieldCreatedAt, SortFieldPrice:
		opt.Field = SortField(field)
	default:
		return DefaultSort
	}
	switch SortDirection(strings.ToLower(direction)) {
	case SortAsc:
		opt.Direction = SortAsc
	case SortDesc:
		opt.Direction = SortDesc
	}
	return opt
}

func (s SortOption) String() string {
	return string(s.Field) + "_" + string(s.Direction)
}

// SearchFilters is the structured half of a discovery request. Zero values mean "not set".
type SearchFilters struct {
	Category        string     `json:"category,omitempty"`
	Theme           string     `json:"theme,omitempty"`
	MinPrice        *float64   `json:"minPrice,omitempty"`
	MaxPrice        *float64   `json:"maxPrice,omitempty"`
	OfferRentalOnly bool       `json:"offerRental,omitempty"`
	SortBy          SortOption `json:"sortBy"`
	SellerID        string     `json:"sellerId,omitempty"`
	Page            int        `json:"page,omitempty"`
	Limit           int        `json:"limit,omitempty"`
}

func DefaultSearchFilters() SearchFilters {
	return SearchFilters{SortBy: DefaultSort}
}
