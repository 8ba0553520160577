package http

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/akulov/elib/internal/auth"
	"github.com/akulov/elib/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	if cfg.MaxUploadBytes > 0 {
		router.Use(limitRequestBody(cfg.MaxUploadBytes))
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	router.Use(cfg.SessionManager.SessionLoadSave())
	router.Use(cfg.AuthMiddleware.LoadUser())

	// Define custom template functions
	funcMap := template.FuncMap{
		"pageNumbers": pageNumbers,
	}

	// Load HTML templates with custom functions
	tmpl := template.Must(template.New("").Funcs(funcMap).ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)

	// Serve static files and stored cover images
	router.Static("/static", cfg.StaticPath)
	router.Static("/covers", cfg.CoversDir)

	authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager)
	authController.RegisterRoutes(router)

	booksController := NewBooksController(cfg)
	reviewsController := NewReviewsController(cfg)
	mw := cfg.AuthMiddleware

	// Public catalog pages
	router.GET("/", booksController.Index)
	router.GET("/books/:id", booksController.View)

	// Catalog management
	admin := router.Group("", mw.RequireRoles(entities.RoleAdmin))
	admin.GET("/books/new", booksController.NewForm)
	admin.POST("/books", booksController.Create)
	admin.POST("/books/:id/delete", booksController.Delete)

	editors := router.Group("", mw.RequireRoles(entities.RoleAdmin, entities.RoleModerator))
	editors.GET("/books/:id/edit", booksController.EditForm)
	editors.POST("/books/:id", booksController.Update)

	// Review submission and the visitor's own listing
	authenticated := router.Group("", mw.RequireAuthenticated())
	authenticated.GET("/books/:id/reviews/new", reviewsController.NewForm)
	authenticated.POST("/books/:id/reviews", reviewsController.Create)
	authenticated.GET("/my/reviews", reviewsController.MyReviews)

	// Moderation workflow
	moderation := router.Group("/moderation", mw.RequireRoles(entities.RoleModerator, entities.RoleAdmin))
	moderation.GET("/reviews", reviewsController.ModerationQueue)
	moderation.GET("/reviews/:id", reviewsController.ModerationShow)
	moderation.POST("/reviews/:id/approve", reviewsController.Approve)
	moderation.POST("/reviews/:id/reject", reviewsController.Reject)

	// Rendered 404 page, except for asset paths which stay plain
	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/favicon.ico" || strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/covers/") {
			c.Data(http.StatusNotFound, "text/plain", nil)
			return
		}
		c.HTML(http.StatusNotFound, "404", templateData(c, cfg.SessionManager, "Page not found", nil))
	})

	return router
}

// limitRequestBody caps request bodies at the configured upload limit.
func limitRequestBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// pageNumbers lists the page numbers for pager controls.
func pageNumbers(p Pagination) []int {
	pages := make([]int, 0, p.TotalPages)
	for i := 1; i <= p.TotalPages; i++ {
		pages = append(pages, i)
	}
	return pages
}
