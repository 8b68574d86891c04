package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS allows any origin when origins is empty (development) and only the
// listed origins otherwise.
func CORS(origins ...string) gin.HandlerFunc {
	permitidos := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			permitidos[o] = true
		}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case len(permitidos) == 0:
			c.Header("Access-Control-Allow-Origin", "*")
		case permitidos[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
