// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/javajoker/party-props-backend/internal/i18n"
	"github.com/javajoker/party-props-backend/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ContextKeyLang     = "lang"
	ContextKeyIdentity = "identity"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAuthRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func NotFoundResponse(c *gin.Context, resource string) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, resource+".not_found")
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyInternalError)
	}
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

func ValidationErrorResponse(c *gin.Context, errors []FieldError) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", message, errors)
}

// UploadFailedResponse reports an aborted ingestion; index is 1-based in the message.
func UploadFailedResponse(c *gin.Context, index int, details interface{}) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyListingUploadFailed, index+1)
	ErrorResponse(c, http.StatusBadGateway, "UPLOAD_FAILED", message, details)
}

func PersistenceFailedResponse(c *gin.Context, details interface{}) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyListingPersistenceFailed)
	ErrorResponse(c, http.StatusInternalServerError, "PERSISTENCE_FAILED", message, details)
}

// QueryFailedResponse keeps an empty result list in data so clients can render "no results".
func QueryFailedResponse(c *gin.Context) {
	lang := GetLangFromContext(c)
	c.JSON(http.StatusServiceUnavailable, APIResponse{
		Success: false,
		Data:    []models.Listing{},
		Error: &APIError{
			Code:    "QUERY_FAILED",
			Message: i18n.T(lang, i18n.KeySearchFailed),
		},
	})
}

func PaymentFailedResponse(c *gin.Context, details interface{}) {
	lang := GetLangFromContext(c)
	ErrorResponse(c, http.StatusPaymentRequired, "PAYMENT_FAILED", i18n.T(lang, i18n.KeyPaymentFailed), details)
}

func ServiceUnavailableResponse(c *gin.Context, key string) {
	lang := GetLangFromContext(c)
	ErrorResponse(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", i18n.T(lang, key), nil)
}

func TooManyRequestsResponse(c *gin.Context) {
	lang := GetLangFromContext(c)
	ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", i18n.T(lang, i18n.KeyRateLimited), nil)
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":     result.Page,
			"limit":    result.Limit,
			"count":    result.Count,
			"has_more": result.HasMore,
		},
	})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get(ContextKeyLang); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

func GetIdentityFromContext(c *gin.Context) (*models.Identity, bool) {
	if identity, exists := c.Get(ContextKeyIdentity); exists {
		if ident, ok := identity.(*models.Identity); ok && ident != nil {
			return ident, true
		}
	}
	return nil, false
}
