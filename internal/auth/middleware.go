package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/akulov/elib/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUser   = "auth_user"
	ContextKeyUserID = "auth_user_id"
	ContextKeyRole   = "auth_role"
)

// Authorized reports whether the role is in the allowed set. Routes that
// admins may reach list Admin explicitly; there is no implicit override.
func Authorized(role entities.RoleName, allowed ...entities.RoleName) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// Middleware resolves the session user and enforces access rules on routes.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
	}
}

// LoadUser resolves the session to a full user record and stores it in the
// request context. Requests without a valid session pass through anonymously;
// a session pointing at a deleted account is destroyed.
func (m *Middleware) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := m.sessionManager.UserID(c.Request)
		if userID == 0 {
			c.Next()
			return
		}

		user, err := m.service.GetUserByID(userID)
		if err != nil {
			_ = m.sessionManager.SignOut(c.Request)
			c.Next()
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyRole, user.Role.Name)
		c.Next()
	}
}

// RequireAuthenticated aborts anonymous requests with a redirect to the login
// page, preserving the requested path in the next parameter.
func (m *Middleware) RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsAuthenticated(c) {
			c.Next()
			return
		}
		m.redirectToLogin(c)
	}
}

// RequireRoles aborts requests whose user is not authorized for any of the
// given roles. Anonymous users get the login challenge; authenticated users
// with the wrong role get a flash notice and land back on the index page.
func (m *Middleware) RequireRoles(roles ...entities.RoleName) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			m.redirectToLogin(c)
			return
		}

		if !Authorized(user.Role.Name, roles...) {
			m.sessionManager.AddFlash(c.Request, "danger", "You do not have permission to access this page.")
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *Middleware) redirectToLogin(c *gin.Context) {
	m.sessionManager.AddFlash(c.Request, "warning", "Please log in to access this page.")
	c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
	c.Abort()
}

// isLocalPath validates that a redirect path is local to prevent open
// redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}

	// Must start with /
	if !strings.HasPrefix(path, "/") {
		return false
	}

	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}

	// Reject URLs with schemes
	if strings.Contains(path, "://") {
		return false
	}

	// Reject paths with backslashes (potential bypass attempts)
	if strings.Contains(path, "\\") {
		return false
	}

	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if
// invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// sameOriginPath extracts a local redirect path from a Referer header when it
// points back at this host, "/" otherwise.
func sameOriginPath(r *http.Request, referer string) string {
	if referer == "" {
		return "/"
	}
	u, err := url.Parse(referer)
	if err != nil {
		return "/"
	}
	if u.Host != "" && u.Host != r.Host {
		return "/"
	}
	return sanitizeRedirectPath(u.RequestURI())
}

// Helper functions to extract auth data from the Gin context

// CurrentUser retrieves the authenticated user from the context, nil for
// anonymous requests.
func CurrentUser(c *gin.Context) *entities.User {
	if v, exists := c.Get(ContextKeyUser); exists {
		if user, ok := v.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// GetUserID retrieves the authenticated user's ID from the context, 0 for
// anonymous requests.
func GetUserID(c *gin.Context) uint {
	if v, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := v.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUserRole retrieves the authenticated user's role from the context.
func GetUserRole(c *gin.Context) entities.RoleName {
	if v, exists := c.Get(ContextKeyRole); exists {
		if role, ok := v.(entities.RoleName); ok {
			return role
		}
	}
	return ""
}

// IsAuthenticated returns true if the request carries a signed-in user.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != 0
}
