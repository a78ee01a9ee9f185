// internal/middleware/audit.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/party-props-backend/internal/database"
	"github.com/javajoker/party-props-backend/internal/models"
)

const auditWriteTimeout = 5 * time.Second

// AuditLog stores an AuditEntry for every state-changing request once it has been handled.
// Request bodies are not recorded; listing uploads carry image data.
func AuditLog(store database.DocumentStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		c.Next()

		entry := &models.AuditEntry{
			Action:       c.Request.Method + " " + c.FullPath(),
			ResourceType: extractResourceType(c.Request.URL.Path),
			ResourceID:   c.Param("id"),
			Status:       c.Writer.Status(),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
		}
		if resourceID, ok := c.Get("resource_id"); ok {
			entry.ResourceID, _ = resourceID.(string)
		}
		if userID, ok := c.Get("user_id"); ok {
			entry.UserID, _ = userID.(string)
		}
		if requestID, ok := c.Get("request_id"); ok {
			entry.RequestID, _ = requestID.(string)
		}

		// The request context is done once the handler returns.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
			defer cancel()
			if _, err := store.Create(ctx, models.AuditCollection, entry); err != nil {
				logrus.WithError(err).WithField("action", entry.Action).Error("Failed to create audit log")
			}
		}()
	}
}

// extractResourceType returns the first path segment after the API version.
func extractResourceType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if part == "v1" && i+1 < len(parts) {
			if parts[i+1] == "me" && i+2 < len(parts) {
				return parts[i+2]
			}
			return parts[i+1]
		}
	}
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}
