package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID reads the inbound X-Request-ID header, minting one when absent,
// and echoes it on the response so claim submissions can be traced end to end.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger writes one access-log line per request: method, path, response
// status, and elapsed time, prefixed with the request id.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		requestID, _ := c.Get("request_id")
		log.Printf("[%s] %s %s status=%d took=%s",
			requestID,
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			elapsed,
		)
	}
}

// Recovery turns panics in downstream handlers into 500 responses.
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}
