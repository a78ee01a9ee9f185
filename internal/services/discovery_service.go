// internal/services/discovery_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/party-props-backend/internal/config"
	"github.com/javajoker/party-props-backend/internal/database"
	"github.com/javajoker/party-props-backend/internal/models"
)

// Searcher runs one discovery query.
type Searcher interface {
	Search(ctx context.Context, term string, filters models.SearchFilters) ([]models.Listing, error)
}

// DiscoveryService composes search terms and filters into one document store query.
type DiscoveryService struct {
	store database.DocumentStore
	cache SearchCache
	opts  config.SearchConfig
}

func NewDiscoveryService(store database.DocumentStore, cache SearchCache, opts config.SearchConfig) *DiscoveryService {
	if cache == nil {
		cache = NoopSearchCache{}
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	return &DiscoveryService{store: store, cache: cache, opts: opts}
}

// BuildQuery ANDs together every filter that is set, in a fixed order, then applies the sort
// and the page window.
func (s *DiscoveryService) BuildQuery(term string, filters models.SearchFilters) database.Query {
	q := database.NewQuery(models.ListingsCollection)

	if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
		q = q.Where("keywords", database.OpArrayContains, term)
	}
	if category := strings.ToLower(strings.TrimSpace(filters.Category)); category != "" {
		q = q.Where("category", database.OpEqual, category)
	}
	if theme := strings.ToLower(strings.TrimSpace(filters.Theme)); theme != "" {
		q = q.Where("theme", database.OpEqual, theme)
	}
	if filters.MinPrice != nil {
		q = q.Where("price", database.OpGreaterEqual, *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		q = q.Where("price", database.OpLessEqual, *filters.MaxPrice)
	}
	if filters.OfferRentalOnly {
		q = q.Where("offerRental", database.OpEqual, true)
	}
	if filters.SellerID != "" {
		q = q.Where("userId", database.OpEqual, filters.SellerID)
	}

	sort := models.NewSortOption(string(filters.SortBy.Field), string(filters.SortBy.Direction))
	q = q.OrderBy(string(sort.Field), database.Direction(sort.Direction))

	limit := filters.Limit
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	if limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}
	offset := 0
	if filters.Page > 1 {
		offset = (filters.Page - 1) * limit
	}

	return q.Paginate(limit, offset)
}

// Search returns the matching listings. No matches is an empty slice, not an error.
func (s *DiscoveryService) Search(ctx context.Context, term string, filters models.SearchFilters) ([]models.Listing, error) {
	return s.run(ctx, s.BuildQuery(term, filters))
}

// Recent returns the newest available listings.
func (s *DiscoveryService) Recent(ctx context.Context, limit int) ([]models.Listing, error) {
	filters := models.DefaultSearchFilters()
	filters.Limit = limit
	q := s.BuildQuery("", filters).Where("status", database.OpEqual, string(models.ListingStatusAvailable))
	return s.run(ctx, q)
}

// Similar returns other listings in the same category as id, newest first.
func (s *DiscoveryService) Similar(ctx context.Context, id string, limit int) ([]models.Listing, error) {
	var listing models.Listing
	if err := s.store.Get(ctx, models.ListingsCollection, id, &listing); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &QueryError{Err: err}
	}

	filters := models.DefaultSearchFilters()
	filters.Category = listing.Category
	filters.Limit = limit
	q := s.BuildQuery("", filters)
	want := q.Limit
	// One extra row in case the listing itself is in the window.
	q.Limit++

	results, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}

	similar := make([]models.Listing, 0, len(results))
	for _, candidate := range results {
		if candidate.ID == listing.ID {
			continue
		}
		similar = append(similar, candidate)
	}
	if len(similar) > want {
		similar = similar[:want]
	}
	return similar, nil
}

// SellerListings returns the signed-in user's own listings.
func (s *DiscoveryService) SellerListings(ctx context.Context, identity *models.Identity, filters models.SearchFilters) ([]models.Listing, error) {
	if identity == nil || identity.UserID == "" {
		return nil, ErrAuthRequired
	}
	filters.SellerID = identity.UserID
	return s.Search(ctx, "", filters)
}

func (s *DiscoveryService) run(ctx context.Context, q database.Query) ([]models.Listing, error) {
	key, cacheable := s.cache.Key(ctx, q)
	if cacheable {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	var listings []models.Listing
	if err := s.store.Query(ctx, q, &listings); err != nil {
		if ctx.Err() == nil {
			logrus.WithError(err).WithField("predicates", len(q.Predicates)).Error("Listing query failed")
		}
		return nil, &QueryError{Err: fmt.Errorf("query %s: %w", q.Collection, err)}
	}
	if listings == nil {
		listings = []models.Listing{}
	}

	if cacheable {
		s.cache.Set(ctx, key, listings)
	}
	return listings, nil
}
