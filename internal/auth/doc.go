// Package auth provides authentication and authorization for the catalog.
//
// Authentication is session-based: credentials are verified against the user
// table and a server-side session (scs) carries the user id between requests.
// Authorization is an explicit role check; handlers are wrapped with
// middleware that requires either any authenticated user or one of a set of
// roles.
//
// # Usage
//
//	service := auth.NewService(userRepo, cfg.App)
//	sessions, _ := auth.NewSessionManager(sqlDB, driver, cfg.App)
//	mw := auth.NewMiddleware(service, sessions)
//
//	router.Use(sessions.SessionLoadSave(), mw.LoadUser())
//	admin := router.Group("/", mw.RequireRoles(entities.RoleAdmin))
//
// Extract the caller in handlers:
//
//	user := auth.CurrentUser(c) // nil when unauthenticated
package auth
