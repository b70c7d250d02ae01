package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
)

// NoticeErrors reports errors attached to the gin context to the New Relic
// transaction started by nrgin. It must run after nrgin.Middleware.
func NoticeErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		txn := nrgin.Transaction(c)
		if txn == nil {
			return
		}
		for _, err := range c.Errors {
			txn.NoticeError(err.Err)
		}
	}
}
