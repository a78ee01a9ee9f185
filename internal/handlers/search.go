// internal/handlers/search.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/party-props-backend/internal/config"
	"github.com/javajoker/party-props-backend/internal/i18n"
	"github.com/javajoker/party-props-backend/internal/models"
	"github.com/javajoker/party-props-backend/internal/services"
	"github.com/javajoker/party-props-backend/internal/utils"
)

const (
	liveSearchReadLimit    = 4096
	liveSearchReadDeadline = 60 * time.Second
	liveSearchWriteTimeout = 10 * time.Second
	liveSearchPingInterval = 30 * time.Second
)

// SearchQuery is a discovery request as sent by the search page, either as URL query
// parameters or as a live search message.
type SearchQuery struct {
	ID          string   `form:"-" json:"id,omitempty"`
	Term        string   `form:"q" json:"term"`
	Category    string   `form:"category" json:"category,omitempty"`
	Theme       string   `form:"theme" json:"theme,omitempty"`
	MinPrice    *float64 `form:"minPrice" json:"minPrice,omitempty"`
	MaxPrice    *float64 `form:"maxPrice" json:"maxPrice,omitempty"`
	OfferRental bool     `form:"offerRental" json:"offerRental,omitempty"`
	SortBy      string   `form:"sortBy" json:"sortBy,omitempty"`
	Sort        string   `form:"sort" json:"sort,omitempty"`
	Order       string   `form:"order" json:"order,omitempty"`
	Page        int      `form:"page" json:"page,omitempty"`
	Limit       int      `form:"limit" json:"limit,omitempty"`
}

// Filters accepts either sortBy=createdAt_desc or sort=price&order=asc.
func (q SearchQuery) Filters() models.SearchFilters {
	filters := models.SearchFilters{
		Category:        q.Category,
		Theme:           q.Theme,
		MinPrice:        q.MinPrice,
		MaxPrice:        q.MaxPrice,
		OfferRentalOnly: q.OfferRental,
		SortBy:          models.ParseSortOption(q.SortBy),
		Page:            q.Page,
		Limit:           q.Limit,
	}
	if q.SortBy == "" && q.Sort != "" {
		filters.SortBy = models.NewSortOption(q.Sort, q.Order)
	}
	return filters
}

type liveSearchResponse struct {
	Type     string           `json:"type"`
	ID       string           `json:"id,omitempty"`
	Seq      uint64           `json:"seq,omitempty"`
	Listings []models.Listing `json:"listings"`
	Error    *utils.APIError  `json:"error,omitempty"`
}

type SearchHandler struct {
	discoveryService *services.DiscoveryService
	search           config.SearchConfig
	upgrader         websocket.Upgrader
}

func NewSearchHandler(discoveryService *services.DiscoveryService, search config.SearchConfig, frontend config.FrontendConfig) *SearchHandler {
	allowed := make(map[string]bool, len(frontend.AllowedOrigins))
	allowAll := false
	for _, origin := range frontend.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[strings.TrimSuffix(origin, "/")] = true
	}

	return &SearchHandler{
		discoveryService: discoveryService,
		search:           search,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowAll || allowed[origin]
			},
		},
	}
}

// GET /search
func (h *SearchHandler) Search(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var query SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "search"), err.Error())
		return
	}

	params := utils.GetPaginationParams(c, h.search.DefaultLimit, h.search.MaxLimit)
	filters := query.Filters()
	filters.Page = params.Page
	filters.Limit = params.Limit

	listings, err := h.discoveryService.Search(c.Request.Context(), query.Term, filters)
	if err != nil {
		respondError(c, err, listingResource)
		return
	}

	result := utils.CreatePaginationResult(listings, len(listings), params)
	utils.SetPaginationHeaders(c, result)
	utils.SuccessResponseWithMeta(c, listings, gin.H{
		"pagination": gin.H{
			"page":     result.Page,
			"limit":    result.Limit,
			"count":    result.Count,
			"has_more": result.HasMore,
		},
		"sort": filters.SortBy.String(),
	})
}

// GET /search/live upgrades to a websocket. Every message is a SearchQuery; a newer message
// supersedes older ones, whose results are never sent.
func (h *SearchHandler) LiveSearch(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("Live search upgrade failed")
		return
	}
	defer conn.Close()

	lang := utils.GetLangFromContext(c)
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	session := services.NewSearchSession(h.discoveryService, h.search.Debounce)
	defer session.Close()

	var writeMu sync.Mutex
	write := func(resp liveSearchResponse) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(liveSearchWriteTimeout))
		return conn.WriteJSON(resp)
	}

	conn.SetReadLimit(liveSearchReadLimit)
	conn.SetReadDeadline(time.Now().Add(liveSearchReadDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(liveSearchReadDeadline))
		return nil
	})

	// In-flight searches must finish before the connection is closed.
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()
	go h.pingLoop(ctx, conn, &writeMu)

	for {
		var query SearchQuery
		if err := conn.ReadJSON(&query); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).Debug("Live search connection closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(liveSearchReadDeadline))

		filters := query.Filters()
		if filters.Limit <= 0 || filters.Limit > h.search.MaxLimit {
			filters.Limit = h.search.DefaultLimit
		}

		wg.Add(1)
		go func(query SearchQuery, filters models.SearchFilters) {
			defer wg.Done()

			result, err := session.Search(ctx, query.Term, filters)
			switch {
			case err == nil:
				err = write(liveSearchResponse{Type: "results", ID: query.ID, Seq: result.Seq, Listings: result.Listings})
			case errors.Is(err, services.ErrSuperseded), ctx.Err() != nil:
				return
			default:
				err = write(liveSearchResponse{
					Type:     "error",
					ID:       query.ID,
					Listings: []models.Listing{},
					Error:    &utils.APIError{Code: "QUERY_FAILED", Message: i18n.T(lang, i18n.KeySearchFailed)},
				})
			}
			if err != nil {
				logrus.WithError(err).Debug("Live search write failed")
				cancel()
			}
		}(query, filters)
	}
}

func (h *SearchHandler) pingLoop(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex) {
	ticker := time.NewTicker(liveSearchPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveSearchWriteTimeout))
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
