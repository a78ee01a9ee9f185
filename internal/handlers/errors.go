// internal/handlers/errors.go
package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/party-props-backend/internal/i18n"
	"github.com/javajoker/party-props-backend/internal/services"
	"github.com/javajoker/party-props-backend/internal/utils"
)

// respondError maps a service error onto the response envelope. resource names the i18n
// prefix used for not-found messages.
func respondError(c *gin.Context, err error, resource string) {
	var (
		validationErr  *services.ValidationError
		uploadErr      *services.UploadError
		persistenceErr *services.PersistenceError
		queryErr       *services.QueryError
		paymentErr     *services.PaymentError
	)

	switch {
	case errors.As(err, &validationErr):
		utils.ValidationErrorResponse(c, validationErr.Fields)
	case errors.Is(err, services.ErrAuthRequired):
		utils.UnauthorizedResponse(c, "")
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, resource)
	case errors.As(err, &uploadErr):
		utils.UploadFailedResponse(c, uploadErr.Index, gin.H{"index": uploadErr.Index})
	case errors.As(err, &persistenceErr):
		utils.PersistenceFailedResponse(c, nil)
	case errors.As(err, &paymentErr):
		utils.PaymentFailedResponse(c, gin.H{"reference": paymentErr.Reference})
	case errors.Is(err, services.ErrPaymentsUnavailable):
		utils.ServiceUnavailableResponse(c, i18n.KeyPaymentsUnavailable)
	case errors.As(err, &queryErr):
		utils.QueryFailedResponse(c)
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
		c.Abort()
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled service error")
		utils.InternalErrorResponse(c, "")
	}
}
