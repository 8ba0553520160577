package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/akulov/elib/internal/auth"
	"github.com/akulov/elib/internal/database"
	"github.com/akulov/elib/internal/database/books"
	"github.com/akulov/elib/internal/database/reviews"
	"github.com/akulov/elib/internal/entities"
	"github.com/akulov/elib/internal/render"
)

const moderationQueuePath = "/moderation/reviews"

// ReviewsController handles review submission, the visitor's own review
// listing and the moderation workflow.
type ReviewsController struct {
	db       *database.Database
	books    *books.Repository
	reviews  *reviews.Repository
	renderer *render.Renderer
	sessions *auth.SessionManager
	pageSize int
}

// NewReviewsController creates a new reviews controller.
func NewReviewsController(cfg RouterConfig) *ReviewsController {
	return &ReviewsController{
		db:       cfg.Database,
		books:    cfg.Books,
		reviews:  cfg.Reviews,
		renderer: cfg.Renderer,
		sessions: cfg.SessionManager,
		pageSize: cfg.PageSize,
	}
}

// NewForm renders the review form for a book. Visitors who already reviewed
// the book are sent back to it with a notice.
func (rc *ReviewsController) NewForm(c *gin.Context) {
	book, ok := rc.lookupBook(c)
	if !ok {
		return
	}
	if rc.alreadyReviewed(c, book.ID) {
		return
	}

	rc.renderReviewForm(c, http.StatusOK, book, 5, "")
}

// Create stores a new review in the Pending state.
func (rc *ReviewsController) Create(c *gin.Context) {
	book, ok := rc.lookupBook(c)
	if !ok {
		return
	}
	if rc.alreadyReviewed(c, book.ID) {
		return
	}

	rating, err := strconv.Atoi(c.DefaultPostForm("rating", "5"))
	if err != nil || rating < 0 || rating > 5 {
		rc.sessions.AddFlash(c.Request, "danger", "Invalid rating. Allowed values are 0 to 5.")
		rc.renderReviewForm(c, http.StatusBadRequest, book, 5, "")
		return
	}

	text := strings.TrimSpace(c.PostForm("text"))
	if text == "" {
		rc.sessions.AddFlash(c.Request, "danger", "Enter the review text.")
		rc.renderReviewForm(c, http.StatusBadRequest, book, rating, "")
		return
	}

	userID := auth.GetUserID(c)
	err = rc.db.DB.Transaction(func(tx *gorm.DB) error {
		_, err := rc.reviews.Submit(tx, book.ID, userID, rating, text)
		return err
	})
	switch {
	case err == nil:
		flashAndRedirect(c, rc.sessions, "success", "The review was submitted for moderation.", bookPath(book.ID))
	case errors.Is(err, reviews.ErrDuplicateReview):
		flashAndRedirect(c, rc.sessions, "info", "You have already reviewed this book.", bookPath(book.ID))
	case errors.Is(err, reviews.ErrStatusNotSeeded):
		log.Printf("Review statuses missing while submitting for book %d: %v", book.ID, err)
		rc.sessions.AddFlash(c.Request, "danger", "System error: review statuses are not initialized.")
		rc.renderReviewForm(c, http.StatusInternalServerError, book, rating, text)
	default:
		log.Printf("Failed to save review for book %d: %v", book.ID, err)
		rc.sessions.AddFlash(c.Request, "danger", "Failed to save the review. Check the submitted values.")
		rc.renderReviewForm(c, http.StatusBadRequest, book, rating, text)
	}
}

// MyReviews lists the visitor's reviews with their moderation status.
func (rc *ReviewsController) MyReviews(c *gin.Context) {
	page := parsePage(c.Query("page"))

	items, total, err := rc.reviews.ListForUser(auth.GetUserID(c), page, rc.pageSize)
	if err != nil {
		log.Printf("Failed to list user reviews: %v", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	c.HTML(http.StatusOK, "my_reviews", templateData(c, rc.sessions, "My reviews", gin.H{
		"Reviews":    items,
		"Pagination": NewPagination(page, rc.pageSize, total),
	}))
}

// ModerationQueue lists pending reviews for moderators.
func (rc *ReviewsController) ModerationQueue(c *gin.Context) {
	page := parsePage(c.Query("page"))

	items, total, err := rc.reviews.ListPending(page, rc.pageSize)
	if err != nil {
		if errors.Is(err, reviews.ErrStatusNotSeeded) {
			flashAndRedirect(c, rc.sessions, "danger", "Review statuses are not initialized.", "/")
			return
		}
		log.Printf("Failed to list pending reviews: %v", err)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}

	c.HTML(http.StatusOK, "moderation_list", templateData(c, rc.sessions, "Moderation queue", gin.H{
		"Reviews":    items,
		"Pagination": NewPagination(page, rc.pageSize, total),
	}))
}

// ModerationShow renders a single review for a moderation decision, with the
// review text rendered as sanitized markdown.
func (rc *ReviewsController) ModerationShow(c *gin.Context) {
	review, ok := rc.lookupReview(c)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, "moderation_review", templateData(c, rc.sessions, "Review moderation", gin.H{
		"Review":   review,
		"TextHTML": rc.renderer.Markdown(review.Text),
	}))
}

// Approve marks the review approved.
func (rc *ReviewsController) Approve(c *gin.Context) {
	rc.moderate(c, entities.ReviewApproved, "success", "The review was approved.")
}

// Reject marks the review rejected.
func (rc *ReviewsController) Reject(c *gin.Context) {
	rc.moderate(c, entities.ReviewRejected, "warning", "The review was rejected.")
}

func (rc *ReviewsController) moderate(c *gin.Context, status entities.ReviewStatusName, level, message string) {
	reviewID := parseID(c.Param("id"))

	err := rc.db.DB.Transaction(func(tx *gorm.DB) error {
		return rc.reviews.SetStatus(tx, reviewID, status)
	})
	switch {
	case err == nil:
		flashAndRedirect(c, rc.sessions, level, message, moderationQueuePath)
	case errors.Is(err, gorm.ErrRecordNotFound):
		flashAndRedirect(c, rc.sessions, "warning", "Review not found.", moderationQueuePath)
	case errors.Is(err, reviews.ErrStatusNotSeeded):
		log.Printf("Review statuses missing while moderating review %d: %v", reviewID, err)
		flashAndRedirect(c, rc.sessions, "danger", "Review statuses are not initialized.", moderationQueuePath)
	default:
		log.Printf("Failed to moderate review %d: %v", reviewID, err)
		flashAndRedirect(c, rc.sessions, "danger", "Failed to update the review. Try again later.", moderationQueuePath)
	}
}

func (rc *ReviewsController) lookupBook(c *gin.Context) (*entities.Book, bool) {
	book, err := rc.books.GetByID(parseID(c.Param("id")))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Failed to load book: %v", err)
		}
		flashAndRedirect(c, rc.sessions, "warning", "Book not found.", "/")
		return nil, false
	}
	return book, true
}

func (rc *ReviewsController) lookupReview(c *gin.Context) (*entities.Review, bool) {
	review, err := rc.reviews.GetByID(parseID(c.Param("id")))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Failed to load review: %v", err)
		}
		flashAndRedirect(c, rc.sessions, "warning", "Review not found.", moderationQueuePath)
		return nil, false
	}
	return review, true
}

// alreadyReviewed redirects visitors who already have a review for the book.
func (rc *ReviewsController) alreadyReviewed(c *gin.Context, bookID uint) bool {
	reviewed, err := rc.reviews.HasReviewed(bookID, auth.GetUserID(c))
	if err != nil {
		log.Printf("Failed to check for an existing review: %v", err)
		return false
	}
	if reviewed {
		flashAndRedirect(c, rc.sessions, "info", "You have already reviewed this book.", bookPath(bookID))
		return true
	}
	return false
}

func (rc *ReviewsController) renderReviewForm(c *gin.Context, status int, book *entities.Book, rating int, text string) {
	c.HTML(status, "review_form", templateData(c, rc.sessions, "New review", gin.H{
		"Book":   book,
		"Rating": rating,
		"Text":   text,
	}))
}
