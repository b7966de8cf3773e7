package session

import "github.com/gin-gonic/gin"

// NoCache forbids browsers and intermediaries from storing or reusing the
// response. Headers are set before the handler chain runs so redirects and
// aborted requests carry them too.
func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Writer.Header()
		header.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		header.Set("Pragma", "no-cache")
		header.Set("Expires", "0")
		c.Next()
	}
}
