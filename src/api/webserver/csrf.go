package webserver

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const csrfField = "csrf"

// CSRFMiddleware checks the form token of a page POST against the session.
func CSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		got := c.PostForm(csrfField)
		if sess == nil || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(sess.CSRF)) != 1 {
			renderError(c, http.StatusForbidden, "Your form expired. Reload the page and try again.")
			c.Abort()
			return
		}
		c.Next()
	}
}
