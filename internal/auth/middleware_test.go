package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akulov/elib/internal/entities"
)

func TestAuthorized(t *testing.T) {
	assert.True(t, Authorized(entities.RoleAdmin, entities.RoleAdmin))
	assert.True(t, Authorized(entities.RoleModerator, entities.RoleModerator, entities.RoleAdmin))

	// Membership is exact, admins get no implicit pass on routes that do
	// not list them.
	assert.False(t, Authorized(entities.RoleAdmin, entities.RoleModerator))
	assert.False(t, Authorized(entities.RoleUser, entities.RoleAdmin, entities.RoleModerator))
	assert.False(t, Authorized(entities.RoleUser))
}

func TestIsLocalPath(t *testing.T) {
	valid := []string{"/", "/books/12", "/login?next=%2Fbooks"}
	for _, path := range valid {
		assert.True(t, isLocalPath(path), "path %q", path)
	}

	invalid := []string{
		"",
		"books/12",
		"//evil.example.com",
		"https://evil.example.com/",
		"/\\evil.example.com",
	}
	for _, path := range invalid {
		assert.False(t, isLocalPath(path), "path %q", path)
	}
}

func TestSanitizeRedirectPath(t *testing.T) {
	assert.Equal(t, "/books/3", sanitizeRedirectPath("/books/3"))
	assert.Equal(t, "/", sanitizeRedirectPath("https://evil.example.com/"))
	assert.Equal(t, "/", sanitizeRedirectPath(""))
}

func TestSameOriginPath(t *testing.T) {
	r := httptest.NewRequest("GET", "http://library.local/logout", nil)

	assert.Equal(t, "/books/5", sameOriginPath(r, "http://library.local/books/5"))
	assert.Equal(t, "/books?page=2", sameOriginPath(r, "http://library.local/books?page=2"))
	assert.Equal(t, "/my/reviews", sameOriginPath(r, "/my/reviews"))

	assert.Equal(t, "/", sameOriginPath(r, ""))
	assert.Equal(t, "/", sameOriginPath(r, "http://evil.example.com/books/5"))
	assert.Equal(t, "/", sameOriginPath(r, "://bad"))
}
