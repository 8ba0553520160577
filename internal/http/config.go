package http

import (
	"github.com/akulov/elib/internal/auth"
	"github.com/akulov/elib/internal/covers"
	"github.com/akulov/elib/internal/database"
	"github.com/akulov/elib/internal/database/books"
	"github.com/akulov/elib/internal/database/genres"
	"github.com/akulov/elib/internal/database/reviews"
	"github.com/akulov/elib/internal/render"
)

// RouterConfig contains all dependencies and configuration needed to create
// the HTTP router. This replaces a long parameter list in NewRouter.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Books    *books.Repository
	Genres   *genres.Repository
	Reviews  *reviews.Repository
	Covers   *covers.Store
	Renderer *render.Renderer

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	CSRFSecret     []byte
	SecureCookies  bool

	// Listing and uploads
	PageSize       int
	MaxUploadBytes int64

	// UI paths
	TemplatesPath string
	StaticPath    string
	CoversDir     string
}
