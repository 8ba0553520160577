package users

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/akulov/elib/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, func()) {
	dbPath := "./test_users_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Role{}, &entities.User{})
	require.NoError(t, err)

	for _, name := range []entities.RoleName{entities.RoleAdmin, entities.RoleModerator, entities.RoleUser} {
		role := entities.Role{Name: name}
		require.NoError(t, db.Create(&role).Error)
	}

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, db, cleanup
}

func mustCreateUser(t *testing.T, repo *Repository, db *gorm.DB, username string, roleName entities.RoleName) *entities.User {
	role, err := repo.GetRoleByName(roleName)
	require.NoError(t, err)

	user := &entities.User{
		Username:     username,
		PasswordHash: "$2a$04$irrelevant",
		LastName:     "Doe",
		FirstName:    "Jane",
		RoleID:       role.ID,
	}
	require.NoError(t, repo.Create(db, user))
	return user
}

func TestRepository_Create(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	user := mustCreateUser(t, repo, db, "reader", entities.RoleUser)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "reader", user.Username)
}

func TestRepository_CreateDuplicateUsername(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	mustCreateUser(t, repo, db, "reader", entities.RoleUser)

	role, err := repo.GetRoleByName(entities.RoleUser)
	require.NoError(t, err)

	err = repo.Create(db, &entities.User{
		Username:     "reader",
		PasswordHash: "$2a$04$other",
		RoleID:       role.ID,
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRepository_GetByUsername(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	mustCreateUser(t, repo, db, "moderator", entities.RoleModerator)

	user, err := repo.GetByUsername("moderator")
	require.NoError(t, err)
	assert.Equal(t, "moderator", user.Username)
	assert.Equal(t, entities.RoleModerator, user.Role.Name)
}

func TestRepository_GetByUsernameNotFound(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetByUsername("ghost")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_GetByID(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	created := mustCreateUser(t, repo, db, "admin", entities.RoleAdmin)

	user, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.Equal(t, entities.RoleAdmin, user.Role.Name)
}

func TestRepository_GetRoleByNameUnknown(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetRoleByName("Librarian")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_HasUsers(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	hasUsers, err := repo.HasUsers()
	require.NoError(t, err)
	assert.False(t, hasUsers)

	mustCreateUser(t, repo, db, "first", entities.RoleAdmin)

	hasUsers, err = repo.HasUsers()
	require.NoError(t, err)
	assert.True(t, hasUsers)
}
