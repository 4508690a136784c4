package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, srv *Server) {
	if srv.cfg.AllowedOrigin != "" {
		r.Use(corsMiddleware(srv.cfg.AllowedOrigin))
	}

	docs := r.Group("/api/documents")
	{
		docs.GET("", srv.HandleListDocuments)
		docs.POST("", srv.HandleUpload)
		docs.GET("/:id", srv.HandleGetDocument)
		docs.DELETE("/:id", srv.HandleDeleteDocument)
		docs.GET("/:id/pages/:page/thumbnail", srv.HandleThumbnail)

		docs.GET("/:id/selection", srv.HandleGetSelection)
		docs.PUT("/:id/selection", srv.HandleCommitSelection)
		docs.DELETE("/:id/selection", srv.HandleResetSelection)
		docs.POST("/:id/selection/toggle", srv.HandleToggle)
		docs.POST("/:id/selection/draft", srv.HandleDraft)
		docs.POST("/:id/selection/blur", srv.HandleBlur)

		docs.POST("/:id/extract", srv.HandleExtract)
	}

	r.GET("/api/downloads/:name", srv.HandleDownload)

	// Single request operations, no document state kept
	pdfGroup := r.Group("/api/pdf")
	{
		pdfGroup.POST("/extract", srv.HandleExtractPages)
		pdfGroup.POST("/remove-pages", srv.HandleRemovePages)
		pdfGroup.POST("/normalize", srv.HandleNormalize)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   ServiceName,
			"documents": srv.store.Len(),
		})
	})

	if srv.cfg.StaticDir != "" {
		r.Static("/static", srv.cfg.StaticDir)
	}
}

func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
