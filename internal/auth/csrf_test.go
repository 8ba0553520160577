package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCSRFErrorHandlerRedirectsToSameOriginReferer(t *testing.T) {
	req := httptest.NewRequest("POST", "http://library.local/books", nil)
	req.Header.Set("Referer", "http://library.local/books/new")

	w := httptest.NewRecorder()
	csrfErrorHandler(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/books/new?error=Session+expired.+Please+try+again.", w.Header().Get("Location"))
}

func TestCSRFErrorHandlerIgnoresForeignReferer(t *testing.T) {
	req := httptest.NewRequest("POST", "http://library.local/books", nil)
	req.Header.Set("Referer", "http://evil.example.com/books/new")

	w := httptest.NewRecorder()
	csrfErrorHandler(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?error=Session+expired.+Please+try+again.", w.Header().Get("Location"))
}

func TestCSRFErrorHandlerWithoutReferer(t *testing.T) {
	req := httptest.NewRequest("POST", "http://library.local/books", nil)

	w := httptest.NewRecorder()
	csrfErrorHandler(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Session Expired")
}
