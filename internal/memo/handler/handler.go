package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sidememo/sidememo/internal/memo"
	"github.com/sidememo/sidememo/internal/memo/service"
)

func storageError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, service.ErrStorageRead) || errors.Is(err, service.ErrStorageWrite) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// RegisterMemoRoutes exposes the memo store under /api/memos.
func RegisterMemoRoutes(r gin.IRouter, svc service.Service) {
	r.GET("/api/memos", func(c *gin.Context) {
		list, err := svc.ListAll(c.Request.Context())
		if err != nil {
			storageError(c, err)
			return
		}
		memo.SortByRecency(list)
		c.JSON(http.StatusOK, list)
	})

	r.POST("/api/memos", func(c *gin.Context) {
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		m, err := svc.Create(c.Request.Context(), req.Title, req.Content)
		if err != nil {
			storageError(c, err)
			return
		}
		c.JSON(http.StatusCreated, m)
	})

	r.GET("/api/memos/:id", func(c *gin.Context) {
		m, ok, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			storageError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, m)
	})

	r.PATCH("/api/memos/:id", func(c *gin.Context) {
		var f memo.Fields
		if err := c.ShouldBindJSON(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		m, ok, err := svc.Update(c.Request.Context(), c.Param("id"), f)
		if err != nil {
			storageError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, m)
	})

	r.DELETE("/api/memos/:id", func(c *gin.Context) {
		ok, err := svc.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			storageError(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.Status(http.StatusNoContent)
	})
}
