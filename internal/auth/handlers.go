package auth

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthController handles login and logout endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, sessionManager *SessionManager) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/logout", ac.Logout)
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	ac.renderLogin(c, http.StatusOK, sanitizeRedirectPath(c.Query("next")), "", "")
}

// Login verifies the submitted credentials and starts a session. Failed
// attempts re-render the form with a 401 so the user can retry in place.
func (ac *AuthController) Login(c *gin.Context) {
	if IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/")
		return
	}

	username := c.PostForm("username")
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))

	user, err := ac.service.Authenticate(username, password)
	if err != nil {
		ac.renderLogin(c, http.StatusUnauthorized, next, username,
			"Cannot authenticate with the provided username and password.")
		return
	}

	if err := ac.sessionManager.SignIn(c.Request, user.ID); err != nil {
		ac.renderLogin(c, http.StatusInternalServerError, next, username,
			"Failed to start a session. Please try again.")
		return
	}

	c.Redirect(http.StatusFound, next)
}

// Logout ends the session and sends the user back to the page they came
// from, falling back to the index for cross-origin referers.
func (ac *AuthController) Logout(c *gin.Context) {
	target := "/"
	if IsAuthenticated(c) {
		_ = ac.sessionManager.SignOut(c.Request)
		target = sameOriginPath(c.Request, c.Request.Referer())
	}
	c.Redirect(http.StatusFound, target)
}

func (ac *AuthController) renderLogin(c *gin.Context, status int, next, username, errorMessage string) {
	c.HTML(status, "login", gin.H{
		"Title":     "Log in",
		"Next":      next,
		"Username":  username,
		"Error":     errorMessage,
		"User":      CurrentUser(c),
		"Flashes":   ac.sessionManager.PopFlashes(c.Request),
		"CSRFField": template.HTML(CSRFTokenField(c)),
	})
}
