// Package genres provides database operations for the genre lookup table.
package genres

import (
	"gorm.io/gorm"

	"github.com/akulov/elib/internal/entities"
)

// Repository handles genre database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new genres repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns all genres ordered by name.
func (r *Repository) List() ([]entities.Genre, error) {
	var genres []entities.Genre
	err := r.db.Order("name ASC").Find(&genres).Error
	return genres, err
}

// Create inserts a genre. Deleting a genre that books still reference is
// blocked by the RESTRICT constraint on book_genres.
func (r *Repository) Create(tx *gorm.DB, genre *entities.Genre) error {
	return tx.Create(genre).Error
}
