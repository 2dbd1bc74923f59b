package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the panel server.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>sidememo - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "sidememo", "version": "v0.1.0" },
  "paths": {
    "/api/memos": {
      "get": { "summary": "List memos, newest first", "responses": { "200": { "description": "memo list" } } },
      "post": { "summary": "Create a memo", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"content":{"type":"string"}}}}}}, "responses": { "201": { "description": "created memo" } } }
    },
    "/api/memos/{id}": {
      "get": { "summary": "Get a memo", "responses": { "200": { "description": "memo" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Update title and/or content", "responses": { "200": { "description": "updated memo" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a memo", "responses": { "204": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/api/panel": { "get": { "summary": "Current panel view", "responses": { "200": { "description": "view" } } } },
    "/api/panel/render": { "get": { "summary": "Panel view as plain text", "responses": { "200": { "description": "text" } } } },
    "/api/panel/create": { "post": { "summary": "Open an unsaved draft", "responses": { "200": { "description": "view" }, "409": { "description": "not in list view" } } } },
    "/api/panel/open/{id}": { "post": { "summary": "Open a memo", "responses": { "200": { "description": "view" }, "404": { "description": "unknown memo" } } } },
    "/api/panel/edit": { "patch": { "summary": "Edit the draft; auto-saves after the debounce window", "responses": { "200": { "description": "view" } } } },
    "/api/panel/flush": { "post": { "summary": "Save pending edits now", "responses": { "200": { "description": "view" } } } },
    "/api/panel/delete": { "post": { "summary": "Delete the current memo", "responses": { "200": { "description": "view" } } } },
    "/api/panel/back": { "post": { "summary": "Return to the list", "responses": { "200": { "description": "view" } } } },
    "/api/shell/behavior": {
      "get": { "summary": "Panel behaviour preference", "responses": { "200": { "description": "behavior" } } },
      "put": { "summary": "Set panel behaviour preference", "responses": { "200": { "description": "behavior" } } }
    },
    "/api/shell/action": { "post": { "summary": "Entry-point action click", "responses": { "200": { "description": "open state" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
