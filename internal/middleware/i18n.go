// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/party-props-backend/internal/utils"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(utils.ContextKeyLang, ParseLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// ParseLanguage maps an Accept-Language header onto a supported locale, walking the
// preferences in order. Anything unsupported is English.
func ParseLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		switch strings.ToLower(tag) {
		case "zh-tw", "zh-hant", "zh_tw", "zh-hk":
			return "zh_TW"
		case "en", "en-us", "en-gb":
			return "en"
		}
	}
	return "en"
}
