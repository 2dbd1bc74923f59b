package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sidememo/sidememo/internal/panel"
)

type panelResponse struct {
	panel.View
	Items []panel.ListItem `json:"items"`
}

func respondView(c *gin.Context, ctrl *panel.Controller) {
	v := ctrl.Snapshot()
	c.JSON(http.StatusOK, panelResponse{View: v, Items: v.Items(time.Local)})
}

func transitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, panel.ErrWrongView):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, panel.ErrUnknownMemo):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		// store failures are already logged by the controller; the view is unchanged
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	}
}

// RegisterPanelRoutes exposes the list/detail controller to the side-panel front end.
func RegisterPanelRoutes(r gin.IRouter, ctrl *panel.Controller) {
	g := r.Group("/api/panel")

	g.GET("", func(c *gin.Context) { respondView(c, ctrl) })

	g.GET("/render", func(c *gin.Context) {
		c.String(http.StatusOK, ctrl.Snapshot().Render(time.Local))
	})

	g.POST("/create", func(c *gin.Context) {
		if err := ctrl.Create(); err != nil {
			transitionError(c, err)
			return
		}
		respondView(c, ctrl)
	})

	g.POST("/open/:id", func(c *gin.Context) {
		if err := ctrl.OpenByID(c.Param("id")); err != nil {
			transitionError(c, err)
			return
		}
		respondView(c, ctrl)
	})

	g.PATCH("/edit", func(c *gin.Context) {
		var req struct {
			Title   *string `json:"title"`
			Content *string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := ctrl.Edit(req.Title, req.Content); err != nil {
			transitionError(c, err)
			return
		}
		respondView(c, ctrl)
	})

	g.POST("/flush", func(c *gin.Context) {
		if err := ctrl.Flush(c.Request.Context()); err != nil {
			transitionError(c, err)
			return
		}
		respondView(c, ctrl)
	})

	g.POST("/delete", func(c *gin.Context) {
		if err := ctrl.Delete(c.Request.Context()); err != nil {
			transitionError(c, err)
			return
		}
		respondView(c, ctrl)
	})

	g.POST("/back", func(c *gin.Context) {
		ctrl.Back()
		respondView(c, ctrl)
	})
}
