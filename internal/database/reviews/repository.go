// Package reviews implements the review lifecycle: submission with the
// one-review-per-user-per-book guarantee, and the Pending -> Approved/Rejected
// moderation flow.
//
// Submission always lands in Pending. Approve and Reject set the status
// unconditionally, so a moderator may flip an already-decided review; the
// moderation queue only lists Pending reviews, which keeps re-decisions rare
// in practice.
package reviews

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/akulov/elib/internal/entities"
)

var (
	// ErrDuplicateReview means this user already reviewed this book. The
	// unique (book_id, user_id) index is the canonical guard; the pre-check
	// in HasReviewed only exists for friendlier form handling.
	ErrDuplicateReview = errors.New("review already exists for this book and user")
	ErrInvalidRating   = errors.New("rating must be an integer between 0 and 5")
	ErrEmptyText       = errors.New("review text must not be empty")
	// ErrStatusNotSeeded indicates the review_statuses lookup rows are
	// missing. A deployment problem, not a user error.
	ErrStatusNotSeeded = errors.New("review statuses are not initialized")
)

// Repository handles review database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reviews repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) statusID(tx *gorm.DB, name entities.ReviewStatusName) (uint, error) {
	var status entities.ReviewStatus
	err := tx.Where("name = ?", name).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrStatusNotSeeded
	}
	if err != nil {
		return 0, err
	}
	return status.ID, nil
}

// Submit validates and inserts a new review in Pending status.
func (r *Repository) Submit(tx *gorm.DB, bookID, userID uint, rating int, text string) (*entities.Review, error) {
	if rating < 0 || rating > 5 {
		return nil, ErrInvalidRating
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	pendingID, err := r.statusID(tx, entities.ReviewPending)
	if err != nil {
		return nil, err
	}

	review := &entities.Review{
		BookID:   bookID,
		UserID:   userID,
		Rating:   rating,
		Text:     text,
		StatusID: pendingID,
	}
	if err := tx.Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	return review, nil
}

// HasReviewed reports whether the user already reviewed the book. Advisory
// only; Submit still relies on the unique constraint.
func (r *Repository) HasReviewed(bookID, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Review{}).
		Where("book_id = ? AND user_id = ?", bookID, userID).
		Count(&count).Error
	return count > 0, err
}

// FindForBookAndUser returns the user's review of a book, or nil if none.
func (r *Repository) FindForBookAndUser(bookID, userID uint) (*entities.Review, error) {
	var review entities.Review
	err := r.db.Preload("Status").
		Where("book_id = ? AND user_id = ?", bookID, userID).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// GetByID loads a single review with its book, author and status.
func (r *Repository) GetByID(id uint) (*entities.Review, error) {
	var review entities.Review
	err := r.db.
		Preload("Book").
		Preload("User").
		Preload("Status").
		First(&review, id).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// SetStatus moves a review to the given status. Fires from any current
// state; only the targeted review changes.
func (r *Repository) SetStatus(tx *gorm.DB, reviewID uint, name entities.ReviewStatusName) error {
	statusID, err := r.statusID(tx, name)
	if err != nil {
		return err
	}

	result := tx.Model(&entities.Review{}).Where("id = ?", reviewID).Update("status_id", statusID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Approve marks the review approved.
func (r *Repository) Approve(tx *gorm.DB, reviewID uint) error {
	return r.SetStatus(tx, reviewID, entities.ReviewApproved)
}

// Reject marks the review rejected.
func (r *Repository) Reject(tx *gorm.DB, reviewID uint) error {
	return r.SetStatus(tx, reviewID, entities.ReviewRejected)
}

// ListPending returns one page of the moderation queue, most recent first.
func (r *Repository) ListPending(page, pageSize int) ([]entities.Review, int64, error) {
	pendingID, err := r.statusID(r.db, entities.ReviewPending)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	err = r.db.Model(&entities.Review{}).Where("status_id = ?", pendingID).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var items []entities.Review
	err = r.db.
		Preload("Book").
		Preload("User").
		Where("status_id = ?", pendingID).
		Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListForUser returns one page of the user's reviews in every status, most
// recent first.
func (r *Repository) ListForUser(userID uint, page, pageSize int) ([]entities.Review, int64, error) {
	var total int64
	err := r.db.Model(&entities.Review{}).Where("user_id = ?", userID).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var items []entities.Review
	err = r.db.
		Preload("Book").
		Preload("Status").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
