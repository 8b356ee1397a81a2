package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures the JSON API and, when staticDir is set, the UI files.
func SetupRoutes(router *gin.Engine, h *Handler, staticDir string) {
	router.Use(CORSMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(gin.Recovery())

	router.GET("/health", h.Health)
	router.GET("/search", h.Search)

	api := router.Group("/api")
	{
		api.GET("/stocks", h.ListStocks)
		api.GET("/stocks/:symbol", h.GetStock)
		api.POST("/refresh", h.Refresh)
		api.PUT("/selection/:symbol", h.Select)
		api.GET("/chart/:symbol", h.Chart)

		bookmarks := api.Group("/bookmarks")
		{
			bookmarks.GET("", h.ListBookmarks)
			bookmarks.POST("", h.AddBookmark)
			bookmarks.DELETE("/:symbol", h.RemoveBookmark)
			bookmarks.POST("/:symbol/toggle", h.ToggleBookmark)
		}
	}

	if staticDir != "" {
		ui := router.Group("/", NoCache())
		ui.StaticFile("/", staticDir+"/index.html")
		ui.Static("/static", staticDir)
	}
}

// NewRouter returns a gin engine with logging and every route installed.
func NewRouter(h *Handler, staticDir string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	SetupRoutes(router, h, staticDir)
	return router
}
