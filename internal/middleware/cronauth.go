package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plantona/plantona-api/internal/handler"
)

// HeaderCronSecret carries the capability token of the scheduled trigger and
// of internal per-user dispatch calls. No user session exists during a run.
const HeaderCronSecret = "X-Cron-Secret"

// CronAuth rejects requests whose shared secret does not match before any work
// begins. An empty configured secret fails closed.
func CronAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(HeaderCronSecret)
		if secret == "" || presented == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing cron secret"))
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid cron secret"))
			c.Abort()
			return
		}

		c.Next()
	}
}
