package auth

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/akulov/elib/internal/config"
	"github.com/akulov/elib/internal/database/users"
	"github.com/akulov/elib/internal/entities"
)

func setupService(t *testing.T) (*Service, *gorm.DB, func()) {
	t.Helper()

	dbPath := "./test_auth_" + t.Name() + ".db"
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&entities.Role{}, &entities.User{}))
	for _, name := range []entities.RoleName{entities.RoleAdmin, entities.RoleModerator, entities.RoleUser} {
		require.NoError(t, db.Create(&entities.Role{Name: name}).Error)
	}

	service := NewService(users.NewRepository(db), config.App{BcryptCost: bcrypt.MinCost})

	cleanup := func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())
		require.NoError(t, os.Remove(dbPath))
	}
	return service, db, cleanup
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	var user *entities.User
	err := db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		user, txErr = service.CreateUser(tx, "reader", "bookworm42", entities.RoleUser, "Petrov", "Ivan", "")
		return txErr
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, entities.RoleUser, user.Role.Name)
	assert.NotEqual(t, "bookworm42", user.PasswordHash)

	authed, err := service.Authenticate("reader", "bookworm42")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
	assert.Equal(t, entities.RoleUser, authed.Role.Name)
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	err := db.Transaction(func(tx *gorm.DB) error {
		_, txErr := service.CreateUser(tx, "reader", "bookworm42", entities.RoleUser, "", "", "")
		return txErr
	})
	require.NoError(t, err)

	_, err = service.Authenticate("reader", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Authenticate("nobody", "bookworm42")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserInvalidUsername(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	for _, username := range []string{"ab", "has space", "wrong!chars", ""} {
		err := db.Transaction(func(tx *gorm.DB) error {
			_, txErr := service.CreateUser(tx, username, "bookworm42", entities.RoleUser, "", "", "")
			return txErr
		})
		assert.ErrorIs(t, err, ErrUsernameInvalid, "username %q", username)
	}
}

func TestCreateUserUnknownRole(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	err := db.Transaction(func(tx *gorm.DB) error {
		_, txErr := service.CreateUser(tx, "reader", "bookworm42", entities.RoleName("Superuser"), "", "", "")
		return txErr
	})
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	service, db, cleanup := setupService(t)
	defer cleanup()

	err := db.Transaction(func(tx *gorm.DB) error {
		_, txErr := service.CreateUser(tx, "reader", "bookworm42", entities.RoleUser, "", "", "")
		return txErr
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, txErr := service.CreateUser(tx, "reader", "different1", entities.RoleModerator, "", "", "")
		return txErr
	})
	assert.ErrorIs(t, err, users.ErrUsernameTaken)
}
