package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/akulov/elib/internal/config"
	"github.com/akulov/elib/internal/database/users"
	"github.com/akulov/elib/internal/entities"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameInvalid    = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrUnknownRole        = errors.New("unknown role")
)

// Service handles credential verification and account creation.
type Service struct {
	users  *users.Repository
	config config.App
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, cfg config.App) *Service {
	return &Service{
		users:  repo,
		config: cfg,
	}
}

// Authenticate verifies the credentials and returns the user with the role
// preloaded. Unknown usernames and wrong passwords both come back as
// ErrInvalidCredentials.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	user, err := s.users.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return user, nil
}

// CreateUser validates the input, hashes the password and inserts the account
// with the given role.
func (s *Service) CreateUser(tx *gorm.DB, username, password string, roleName entities.RoleName, lastName, firstName, middleName string) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}

	role, err := s.users.GetRoleByName(roleName)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownRole
		}
		return nil, err
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		PasswordHash: hash,
		LastName:     strings.TrimSpace(lastName),
		FirstName:    strings.TrimSpace(firstName),
		MiddleName:   strings.TrimSpace(middleName),
		RoleID:       role.ID,
	}
	if err := s.users.Create(tx, user); err != nil {
		return nil, err
	}
	user.Role = *role
	return user, nil
}

// GetUserByID resolves a session user id to a full user record.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	return s.users.GetByID(id)
}

// HasUsers reports whether any account exists.
func (s *Service) HasUsers() (bool, error) {
	return s.users.HasUsers()
}
