package http

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/akulov/elib/internal/auth"
)

// parsePage interprets a page query parameter. Non-numeric, missing and
// non-positive values all mean the first page.
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Pagination carries everything a listing template needs to render pager
// controls.
type Pagination struct {
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

// NewPagination computes the page count for a listing.
func NewPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p Pagination) HasNext() bool { return p.Page < p.TotalPages }

// PrevPage returns the previous page number, clamped to 1.
func (p Pagination) PrevPage() int {
	if p.Page <= 1 {
		return 1
	}
	return p.Page - 1
}

// NextPage returns the following page number, clamped to the last page.
func (p Pagination) NextPage() int {
	if p.Page >= p.TotalPages {
		return p.TotalPages
	}
	return p.Page + 1
}

// parseID interprets a numeric path parameter, 0 when invalid.
func parseID(raw string) uint {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// templateData assembles the fields every page template expects: the signed-in
// user, queued flash notices and the CSRF form field. Handler-specific values
// are merged on top.
func templateData(c *gin.Context, sessions *auth.SessionManager, title string, extra gin.H) gin.H {
	data := gin.H{
		"Title":     title,
		"User":      auth.CurrentUser(c),
		"Flashes":   sessions.PopFlashes(c.Request),
		"CSRFField": template.HTML(auth.CSRFTokenField(c)),
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// flashAndRedirect queues a notice and sends the user to a local target.
func flashAndRedirect(c *gin.Context, sessions *auth.SessionManager, level, message, target string) {
	sessions.AddFlash(c.Request, level, message)
	c.Redirect(http.StatusFound, target)
}
