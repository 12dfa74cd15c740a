package api

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/Srophos/Cloud-Native-Banking-API/pkg/logger"
	"github.com/Srophos/Cloud-Native-Banking-API/pkg/xresponse"
)

// InternalSecretHeader carries the shared secret that identifies internal
// callers (the API gateway in front of this service).
const InternalSecretHeader = "X-Internal-Secret"

// InternalAuth validates the internal shared-secret header. Requests with a
// missing or wrong secret are rejected before any business logic runs.
func InternalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(InternalSecretHeader)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			logger.Warn("Internal auth failed",
				logger.String("path", c.Request.URL.Path),
				logger.String("client_ip", c.ClientIP()),
				logger.Bool("has_secret", provided != ""),
			)
			xresponse.Forbidden(c, "Forbidden")
			c.Abort()
			return
		}

		c.Next()
	}
}
