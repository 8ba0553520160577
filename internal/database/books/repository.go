// Package books provides database operations for the catalog: paginated
// listings, detail loads with genre and review preloads, and the write paths
// used by the admin handlers.
//
// All write operations take an explicit transaction handle. The HTTP boundary
// opens the transaction and commits or rolls back exactly once per request;
// repository code never commits on its own.
package books

import (
	"gorm.io/gorm"

	"github.com/akulov/elib/internal/entities"
)

// Aggregates holds the derived per-book review figures. Computed with
// aggregate queries, never stored.
type Aggregates struct {
	AvgRating            float64
	ReviewsCount         int64
	AvgRatingApproved    float64
	ReviewsCountApproved int64
}

// Repository handles book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns one page of books, newest publication year first, with covers
// and genres preloaded, plus the total number of books.
func (r *Repository) List(page, pageSize int) ([]entities.Book, int64, error) {
	var total int64
	if err := r.db.Model(&entities.Book{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []entities.Book
	err := r.db.
		Preload("Cover").
		Preload("Genres.Genre").
		Order("year DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&books).Error
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// GetByID loads a book with its cover, genres and reviews (newest first,
// reviewers and statuses included).
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.
		Preload("Cover").
		Preload("Genres.Genre").
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		Preload("Reviews.User").
		Preload("Reviews.Status").
		First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Create inserts a book row.
func (r *Repository) Create(tx *gorm.DB, book *entities.Book) error {
	return tx.Create(book).Error
}

// Update persists the editable book fields.
func (r *Repository) Update(tx *gorm.DB, book *entities.Book) error {
	return tx.Model(&entities.Book{ID: book.ID}).Updates(map[string]any{
		"title":             book.Title,
		"short_description": book.ShortDescription,
		"year":              book.Year,
		"publisher":         book.Publisher,
		"author":            book.Author,
		"pages":             book.Pages,
	}).Error
}

// Delete removes a book together with its reviews and genre links. The cover
// is handled separately by the cover store release.
func (r *Repository) Delete(tx *gorm.DB, id uint) error {
	if err := tx.Where("book_id = ?", id).Delete(&entities.Review{}).Error; err != nil {
		return err
	}
	if err := tx.Where("book_id = ?", id).Delete(&entities.BookGenre{}).Error; err != nil {
		return err
	}
	return tx.Delete(&entities.Book{}, id).Error
}

// ReplaceGenres swaps the book's genre set for the given ids. Unknown ids are
// silently dropped the way the listing form would never produce them.
func (r *Repository) ReplaceGenres(tx *gorm.DB, bookID uint, genreIDs []uint) error {
	if err := tx.Where("book_id = ?", bookID).Delete(&entities.BookGenre{}).Error; err != nil {
		return err
	}
	if len(genreIDs) == 0 {
		return nil
	}

	var validIDs []uint
	if err := tx.Model(&entities.Genre{}).Where("id IN ?", genreIDs).Pluck("id", &validIDs).Error; err != nil {
		return err
	}
	for _, gid := range validIDs {
		if err := tx.Create(&entities.BookGenre{BookID: bookID, GenreID: gid}).Error; err != nil {
			return err
		}
	}
	return nil
}

// CountByCover returns how many books reference the given cover.
func (r *Repository) CountByCover(tx *gorm.DB, coverID uint) (int64, error) {
	var count int64
	err := tx.Model(&entities.Book{}).Where("cover_id = ?", coverID).Count(&count).Error
	return count, err
}

// AggregatesFor computes review aggregates for a set of books in two grouped
// queries (overall and approved-only).
func (r *Repository) AggregatesFor(bookIDs []uint) (map[uint]Aggregates, error) {
	out := make(map[uint]Aggregates, len(bookIDs))
	if len(bookIDs) == 0 {
		return out, nil
	}

	type row struct {
		BookID uint
		Avg    float64
		Cnt    int64
	}

	var overall []row
	err := r.db.Model(&entities.Review{}).
		Select("book_id, AVG(rating) AS avg, COUNT(id) AS cnt").
		Where("book_id IN ?", bookIDs).
		Group("book_id").
		Scan(&overall).Error
	if err != nil {
		return nil, err
	}
	for _, v := range overall {
		agg := out[v.BookID]
		agg.AvgRating = v.Avg
		agg.ReviewsCount = v.Cnt
		out[v.BookID] = agg
	}

	var approved []row
	err = r.db.Model(&entities.Review{}).
		Select("reviews.book_id, AVG(reviews.rating) AS avg, COUNT(reviews.id) AS cnt").
		Joins("JOIN review_statuses ON review_statuses.id = reviews.status_id").
		Where("reviews.book_id IN ? AND review_statuses.name = ?", bookIDs, entities.ReviewApproved).
		Group("reviews.book_id").
		Scan(&approved).Error
	if err != nil {
		return nil, err
	}
	for _, v := range approved {
		agg := out[v.BookID]
		agg.AvgRatingApproved = v.Avg
		agg.ReviewsCountApproved = v.Cnt
		out[v.BookID] = agg
	}

	return out, nil
}
