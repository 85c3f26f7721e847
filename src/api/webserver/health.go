package webserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func Health(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "err": hc.Name + ": " + err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
