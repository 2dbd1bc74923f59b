package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidememo/sidememo/internal/shell"
)

// RegisterShellRoutes exposes the host shell preference and entry-point action.
func RegisterShellRoutes(r gin.IRouter, sh *shell.Shell) {
	r.GET("/api/shell/behavior", func(c *gin.Context) {
		b, err := sh.Behavior(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, b)
	})

	r.PUT("/api/shell/behavior", func(c *gin.Context) {
		var b shell.Behavior
		if err := c.ShouldBindJSON(&b); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := sh.SetBehavior(c.Request.Context(), b); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, b)
	})

	r.POST("/api/shell/action", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"open": sh.OnAction(c.Request.Context())})
	})
}
