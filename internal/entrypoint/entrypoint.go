package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akulov/elib/internal/auth"
	"github.com/akulov/elib/internal/config"
	"github.com/akulov/elib/internal/covers"
	"github.com/akulov/elib/internal/database"
	"github.com/akulov/elib/internal/database/books"
	"github.com/akulov/elib/internal/database/genres"
	"github.com/akulov/elib/internal/database/reviews"
	"github.com/akulov/elib/internal/database/users"
	http_controllers "github.com/akulov/elib/internal/http"
	"github.com/akulov/elib/internal/render"
)

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts it down
// gracefully within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires configuration, storage, authentication and the router together
// and serves the application.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting elib v%s", version)

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	coverStore, err := covers.NewStore(cfg.Covers.Dir, cfg.Covers.MaxUploadBytes, cfg.Covers.AllowedMIME)
	if err != nil {
		log.Fatalf("Failed to initialize cover store: %v", err)
	}
	log.Printf("Cover store initialized at %s", cfg.Covers.Dir)

	usersRepo := users.NewRepository(db.DB)
	booksRepo := books.NewRepository(db.DB)
	genresRepo := genres.NewRepository(db.DB)
	reviewsRepo := reviews.NewRepository(db.DB)

	authService := auth.NewService(usersRepo, cfg.App)

	// Underlying SQL DB for the session store
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}

	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Database.Driver, cfg.App)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	authMiddleware := auth.NewMiddleware(authService, sessionManager)

	csrfSecret := csrfSecretFromConfig(cfg.App.SecretKey)

	hasUsers, _ := authService.HasUsers()
	if !hasUsers {
		log.Printf("No users found. Run '%s createuser' to create an administrator account.", os.Args[0])
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Books:          booksRepo,
		Genres:         genresRepo,
		Reviews:        reviewsRepo,
		Covers:         coverStore,
		Renderer:       render.NewRenderer(cfg.Render),
		AuthService:    authService,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.App.SecureCookies,
		PageSize:       cfg.App.PageSize,
		MaxUploadBytes: cfg.Covers.MaxUploadBytes,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		CoversDir:      cfg.Covers.Dir,
	}

	router := http_controllers.NewRouter(routerCfg)

	Serve(router, cfg)
}

// csrfSecretFromConfig decodes the configured secret, falling back to a
// generated one when it is unset.
func csrfSecretFromConfig(secretKey string) []byte {
	if secretKey != "" {
		if decoded, err := hex.DecodeString(secretKey); err == nil {
			return decoded
		}
		// Not hex, use as raw bytes
		return []byte(secretKey)
	}

	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		log.Fatalf("Failed to generate CSRF secret: %v", err)
	}
	log.Printf("Generated session secret (set SECRET_KEY to persist)")
	decoded, _ := hex.DecodeString(secret)
	return decoded
}
