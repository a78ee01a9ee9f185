// internal/services/listing_service.go
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/party-props-backend/internal/config"
	"github.com/javajoker/party-props-backend/internal/database"
	"github.com/javajoker/party-props-backend/internal/models"
	"github.com/javajoker/party-props-backend/internal/utils"
)

// ListingService owns listing ingestion: validate, upload images, persist the record.
type ListingService struct {
	store database.DocumentStore
	blobs BlobStore
	cache SearchCache
	opts  config.StorageConfig
	now   func() time.Time
}

// CreateListingRequest is the draft a seller submits. Numeric fields arrive as form strings.
type CreateListingRequest struct {
	Title          string `json:"title" form:"title" validate:"required,max=255"`
	Description    string `json:"description" form:"description" validate:"required"`
	Category       string `json:"category" form:"category" validate:"required,listing_category"`
	Theme          string `json:"theme" form:"theme" validate:"listing_theme"`
	Condition      string `json:"condition" form:"condition" validate:"omitempty,listing_condition"`
	Price          string `json:"price" form:"price" validate:"required,numeric"`
	OfferRental    bool   `json:"offerRental" form:"offerRental"`
	RentalPrice    string `json:"rentalPrice" form:"rentalPrice" validate:"required_if=OfferRental true,omitempty,numeric"`
	RentalDuration string `json:"rentalDuration" form:"rentalDuration" validate:"omitempty,rental_duration"`
}

// UploadProgress describes one image's transfer. Index is the position in the selection.
type UploadProgress struct {
	Index       int   `json:"index"`
	Count       int   `json:"count"`
	Transferred int64 `json:"transferred"`
	Size        int64 `json:"size"`
}

func (p UploadProgress) Percent() float64 {
	if p.Size <= 0 {
		return 0
	}
	return float64(p.Transferred) / float64(p.Size) * 100
}

type UploadProgressFunc func(UploadProgress)

func NewListingService(store database.DocumentStore, blobs BlobStore, cache SearchCache, opts config.StorageConfig) *ListingService {
	if cache == nil {
		cache = NoopSearchCache{}
	}
	return &ListingService{
		store: store,
		blobs: blobs,
		cache: cache,
		opts:  opts,
		now:   time.Now,
	}
}

// WithClock replaces the clock used for blob paths.
func (s *ListingService) WithClock(now func() time.Time) *ListingService {
	s.now = now
	return s
}

func (s *ListingService) CreateListing(ctx context.Context, identity *models.Identity, req *CreateListingRequest, images []ImageUpload, progress UploadProgressFunc) (*models.Listing, error) {
	if identity == nil || identity.UserID == "" {
		return nil, ErrAuthRequired
	}

	draft, err := s.validate(req, images)
	if err != nil {
		return nil, err
	}

	logger := logrus.WithFields(logrus.Fields{
		"user_id": identity.UserID,
		"images":  len(images),
	})

	// Sequential on purpose: images[0] must be the first selected file.
	urls := make([]string, 0, len(images))
	paths := make([]string, 0, len(images))
	for i, img := range images {
		path := s.blobPath(identity.UserID, i, img.Extension())

		var onProgress ProgressFunc
		if progress != nil {
			index := i
			onProgress = func(transferred, total int64) {
				progress(UploadProgress{Index: index, Count: len(images), Transferred: transferred, Size: total})
			}
		}

		url, err := s.blobs.Put(ctx, path, bytes.NewReader(img.Data), img.Size(), contentTypeOf(img), onProgress)
		if err != nil {
			logger.WithError(err).WithField("path", path).Warn("Image upload failed, listing aborted")
			return nil, &UploadError{Index: i, Path: path, Err: err}
		}
		urls = append(urls, url)
		paths = append(paths, path)
	}

	listing := &models.Listing{
		Title:          draft.title,
		Description:    draft.description,
		Category:       draft.category,
		Theme:          draft.theme,
		Condition:      draft.condition,
		Price:          draft.price,
		OfferRental:    draft.offerRental,
		RentalPrice:    draft.rentalPrice,
		RentalDuration: draft.rentalDuration,
		Images:         urls,
		Keywords:       DeriveKeywords(draft.title, draft.description, draft.category, draft.theme),
		UserID:         identity.UserID,
		SellerName:     identity.DisplayName,
		SellerPhotoURL: identity.PhotoURL,
		Status:         models.ListingStatusAvailable,
	}

	id, err := s.store.Create(ctx, models.ListingsCollection, listing)
	if err != nil {
		logger.WithError(err).WithField("orphaned", paths).Error("Failed to save listing after upload")
		return nil, &PersistenceError{Err: err, Orphaned: paths}
	}
	listing.ID = id

	if err := s.cache.Invalidate(ctx); err != nil {
		logger.WithError(err).Warn("Failed to invalidate search cache")
	}

	logger.WithField("listing_id", id).Info("Listing created")
	return listing, nil
}

func (s *ListingService) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	if err := s.store.Get(ctx, models.ListingsCollection, id, &listing); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load listing %s: %w", id, err)
	}
	return &listing, nil
}

// DeriveKeywords lowercases and splits title and description on whitespace, appends category
// and theme, and keeps tokens longer than two characters. Duplicates are kept.
func DeriveKeywords(title, description, category, theme string) []string {
	tokens := strings.Fields(strings.ToLower(title))
	tokens = append(tokens, strings.Fields(strings.ToLower(description))...)
	tokens = append(tokens, strings.ToLower(category), strings.ToLower(theme))

	keywords := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if utf8.RuneCountInString(token) > 2 {
			keywords = append(keywords, token)
		}
	}
	return keywords
}

type validatedDraft struct {
	title          string
	description    string
	category       string
	theme          string
	condition      string
	price          float64
	offerRental    bool
	rentalPrice    *float64
	rentalDuration *string
}

// validate runs every check that does not need the network.
func (s *ListingService) validate(req *CreateListingRequest, images []ImageUpload) (*validatedDraft, error) {
	if req == nil {
		return nil, NewValidationError("request", "required", "request is required")
	}

	normalized := *req
	normalized.Title = strings.TrimSpace(normalized.Title)
	normalized.Description = strings.TrimSpace(normalized.Description)
	normalized.Category = strings.ToLower(strings.TrimSpace(normalized.Category))
	normalized.Theme = strings.ToLower(strings.TrimSpace(normalized.Theme))
	normalized.Condition = strings.TrimSpace(normalized.Condition)
	normalized.Price = strings.TrimSpace(normalized.Price)
	normalized.RentalPrice = strings.TrimSpace(normalized.RentalPrice)
	normalized.RentalDuration = strings.TrimSpace(normalized.RentalDuration)
	if !normalized.OfferRental {
		normalized.RentalPrice = ""
		normalized.RentalDuration = ""
	}

	verr := &ValidationError{}
	if err := utils.ValidateStruct(&normalized); err != nil {
		verr = validationFailed(err)
	}

	draft := &validatedDraft{
		title:       normalized.Title,
		description: normalized.Description,
		category:    normalized.Category,
		theme:       normalized.Theme,
		condition:   normalized.Condition,
		offerRental: normalized.OfferRental,
	}
	if draft.condition == "" {
		draft.condition = models.DefaultCondition
	}

	if price, ok := parsePositive(normalized.Price); ok {
		draft.price = price
	} else if !verr.has("price") {
		verr.add("price", "gt", "price must be greater than 0")
	}

	if normalized.OfferRental {
		if rentalPrice, ok := parsePositive(normalized.RentalPrice); ok {
			draft.rentalPrice = &rentalPrice
		} else if !verr.has("rentalPrice") {
			verr.add("rentalPrice", "gt", "rentalPrice must be greater than 0")
		}
		duration := normalized.RentalDuration
		if duration == "" {
			duration = models.DefaultRentalDuration
		}
		draft.rentalDuration = &duration
	}

	switch {
	case len(images) == 0:
		verr.add("images", "required", "at least one image is required")
	case len(images) > s.opts.MaxImages:
		verr.add("images", "max", fmt.Sprintf("at most %d images are allowed", s.opts.MaxImages))
	default:
		for i, img := range images {
			if err := ValidateImage(img, s.opts); err != nil {
				verr.add(fmt.Sprintf("images[%d]", i), "image", err.Error())
			}
		}
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return draft, nil
}

func (s *ListingService) blobPath(userID string, index int, ext string) string {
	return fmt.Sprintf("%s/%s-%d-%d.%s", s.opts.ImageFolder, userID, s.now().UnixMilli(), index, ext)
}

// parsePositive accepts plain decimal amounts only. ParseFloat alone would also
// take NaN and hex floats.
func parsePositive(value string) (float64, bool) {
	if strings.ContainsAny(value, "xXpPeEnNiI") {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}

func contentTypeOf(img ImageUpload) string {
	if img.ContentType != "" && img.ContentType != "application/octet-stream" {
		return img.ContentType
	}
	return http.DetectContentType(img.Data)
}
