package genres

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
	t.Helper()

	dbPath := "./test_genres_" + t.Name() + ".db"
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&entities.Genre{}))

	cleanup := func() {
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())
		require.NoError(t, os.Remove(dbPath))
	}
	return NewRepository(db), db, cleanup
}

func TestListOrdersByName(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	for _, name := range []string{"Science Fiction", "Biography", "Poetry"} {
		require.NoError(t, repo.Create(db, &entities.Genre{Name: name}))
	}

	genres, err := repo.List()
	require.NoError(t, err)
	require.Len(t, genres, 3)
	assert.Equal(t, "Biography", genres[0].Name)
	assert.Equal(t, "Poetry", genres[1].Name)
	assert.Equal(t, "Science Fiction", genres[2].Name)
}

func TestCreateDuplicateName(t *testing.T) {
	repo, db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(db, &entities.Genre{Name: "Poetry"}))
	err := repo.Create(db, &entities.Genre{Name: "Poetry"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
