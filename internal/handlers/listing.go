// internal/handlers/listing.go
package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/party-props-backend/internal/config"
	"github.com/javajoker/party-props-backend/internal/i18n"
	"github.com/javajoker/party-props-backend/internal/models"
	"github.com/javajoker/party-props-backend/internal/services"
	"github.com/javajoker/party-props-backend/internal/utils"
)

const listingResource = "listing"

type ListingHandler struct {
	listingService   *services.ListingService
	discoveryService *services.DiscoveryService
	storage          config.StorageConfig
	search           config.SearchConfig
}

func NewListingHandler(listingService *services.ListingService, discoveryService *services.DiscoveryService, storage config.StorageConfig, search config.SearchConfig) *ListingHandler {
	return &ListingHandler{
		listingService:   listingService,
		discoveryService: discoveryService,
		storage:          storage,
		search:           search,
	}
}

// POST /listings (multipart/form-data, images in "images")
func (h *ListingHandler) CreateListing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	identity, ok := utils.GetIdentityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateListingRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	var headers []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		headers = form.File["images"]
	}
	// Reject oversized selections before reading any file.
	if len(headers) > h.storage.MaxImages {
		utils.ValidationErrorResponse(c, []utils.FieldError{{
			Field: "images", Tag: "max", Message: i18n.T(lang, i18n.KeyTooManyImages, h.storage.MaxImages),
		}})
		return
	}

	images := make([]services.ImageUpload, 0, len(headers))
	for i, header := range headers {
		img, err := readImage(header, h.storage.MaxImageSize)
		if err != nil {
			utils.ValidationErrorResponse(c, []utils.FieldError{{
				Field: fmt.Sprintf("images[%d]", i), Tag: "image", Message: err.Error(),
			}})
			return
		}
		images = append(images, img)
	}

	progress := func(p services.UploadProgress) {
		logrus.WithFields(logrus.Fields{
			"user_id": identity.UserID,
			"index":   p.Index,
			"percent": int(p.Percent()),
		}).Debug("Image upload progress")
	}

	listing, err := h.listingService.CreateListing(c.Request.Context(), identity, &req, images, progress)
	if err != nil {
		respondError(c, err, listingResource)
		return
	}

	c.Set("resource_id", listing.ID)
	utils.CreatedResponse(c, listing)
}

// GET /listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, err := h.listingService.GetListing(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, listingResource)
		return
	}

	utils.SuccessResponse(c, listing)
}

// GET /listings/:id/similar
func (h *ListingHandler) GetSimilarListings(c *gin.Context) {
	listings, err := h.discoveryService.Similar(c.Request.Context(), c.Param("id"), h.limitParam(c, 4))
	if err != nil {
		respondError(c, err, listingResource)
		return
	}

	utils.SuccessResponse(c, listings)
}

// GET /listings/recent
func (h *ListingHandler) GetRecentListings(c *gin.Context) {
	listings, err := h.discoveryService.Recent(c.Request.Context(), h.limitParam(c, 8))
	if err != nil {
		respondError(c, err, listingResource)
		return
	}

	utils.SuccessResponse(c, listings)
}

// GET /me/listings
func (h *ListingHandler) GetMyListings(c *gin.Context) {
	identity, ok := utils.GetIdentityFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c, h.search.DefaultLimit, h.search.MaxLimit)
	filters := models.DefaultSearchFilters()
	filters.Page = params.Page
	filters.Limit = params.Limit

	listings, err := h.discoveryService.SellerListings(c.Request.Context(), identity, filters)
	if err != nil {
		respondError(c, err, listingResource)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(listings, len(listings), params))
}

// GET /catalog
func (h *ListingHandler) GetCatalog(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"catalog":         models.GetCatalog(),
		"maxImages":       h.storage.MaxImages,
		"maxImageBytes":   h.storage.MaxImageSize,
		"allowedImages":   h.storage.AllowedImages,
		"defaultSort":     models.DefaultSort.String(),
		"defaultPageSize": h.search.DefaultLimit,
	})
}

func (h *ListingHandler) limitParam(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		return fallback
	}
	if limit > h.search.MaxLimit {
		return h.search.MaxLimit
	}
	return limit
}

// readImage reads at most maxSize+1 bytes so an oversized file is detected without
// buffering all of it.
func readImage(header *multipart.FileHeader, maxSize int64) (services.ImageUpload, error) {
	file, err := header.Open()
	if err != nil {
		return services.ImageUpload{}, fmt.Errorf("failed to read %s: %w", header.Filename, err)
	}
	defer file.Close()

	reader := io.Reader(file)
	if maxSize > 0 {
		reader = io.LimitReader(file, maxSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return services.ImageUpload{}, fmt.Errorf("failed to read %s: %w", header.Filename, err)
	}

	return services.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
