// internal/utils/pagination.go
package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

type PaginationParams struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// PaginationResult describes one page of a query. Document stores do not count matches, so
// HasMore is inferred from a full page.
type PaginationResult struct {
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
	Count   int         `json:"count"`
	HasMore bool        `json:"has_more"`
	Data    interface{} `json:"data"`
}

func GetPaginationParams(c *gin.Context, defaultLimit, maxLimit int) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}

	return PaginationParams{
		Page:  page,
		Limit: limit,
	}
}

func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

func CreatePaginationResult(data interface{}, count int, params PaginationParams) PaginationResult {
	return PaginationResult{
		Page:    params.Page,
		Limit:   params.Limit,
		Count:   count,
		HasMore: params.Limit > 0 && count == params.Limit,
		Data:    data,
	}
}

func SetPaginationHeaders(c *gin.Context, result PaginationResult) {
	c.Header("X-Page", strconv.Itoa(result.Page))
	c.Header("X-Per-Page", strconv.Itoa(result.Limit))
	c.Header("X-Has-More", strconv.FormatBool(result.HasMore))
}
