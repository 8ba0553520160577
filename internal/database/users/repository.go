// Package users provides database operations for accounts and roles.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByUsername("reader42")
package users

import (
	"errors"

	"gorm.io/gorm"

	"github.com/akulov/elib/internal/entities"
)

var ErrUsernameTaken = errors.New("username already taken")

// Repository handles all user and role database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a user row. The password must already be hashed. The unique
// index on username is the authoritative duplicate guard.
func (r *Repository) Create(tx *gorm.DB, user *entities.User) error {
	if err := tx.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

// GetByID retrieves a user with the role preloaded.
func (r *Repository) GetByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("Role").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user with the role preloaded.
func (r *Repository) GetByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Preload("Role").Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetRoleByName resolves a role lookup row.
func (r *Repository) GetRoleByName(name entities.RoleName) (*entities.Role, error) {
	var role entities.Role
	err := r.db.Where("name = ?", name).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// HasUsers reports whether any account exists.
func (r *Repository) HasUsers() (bool, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
