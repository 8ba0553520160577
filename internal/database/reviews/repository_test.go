package reviews

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

func setupTestDB(t *testing.T, seedStatuses bool) (*Repository, *gorm.DB, func()) {
	dbPath := "./test_reviews_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Role{},
		&entities.User{},
		&entities.Cover{},
		&entities.Book{},
		&entities.ReviewStatus{},
		&entities.Review{},
	)
	require.NoError(t, err)

	if seedStatuses {
		for _, name := range []entities.ReviewStatusName{entities.ReviewPending, entities.ReviewApproved, entities.ReviewRejected} {
			status := entities.ReviewStatus{Name: name}
			require.NoError(t, db.Create(&status).Error)
		}
	}

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, db, cleanup
}

func seedBookAndUser(t *testing.T, db *gorm.DB) (bookID, userID uint) {
	role := entities.Role{Name: entities.RoleUser}
	require.NoError(t, db.Create(&role).Error)

	user := entities.User{Username: "reader", PasswordHash: "x", RoleID: role.ID}
	require.NoError(t, db.Create(&user).Error)

	cover := entities.Cover{Filename: "1.jpg", MimeType: "image/jpeg", ContentHash: "0123456789abcdef0123456789abcdef"}
	require.NoError(t, db.Create(&cover).Error)

	book := entities.Book{Title: "Dune", Author: "Herbert", Publisher: "Ace", Year: 1965, Pages: 412, CoverID: cover.ID}
	require.NoError(t, db.Create(&book).Error)

	return book.ID, user.ID
}

func currentStatus(t *testing.T, repo *Repository, reviewID uint) entities.ReviewStatusName {
	review, err := repo.GetByID(reviewID)
	require.NoError(t, err)
	return review.Status.Name
}

func TestSubmitCreatesPendingReview(t *testing.T) {
	repo, db, cleanup := setupTestDB(t, true)
	defer cleanup()

	bookID, userID := seedBookAndUser(t, db)

	review, err := repo.Submit(db, bookID, userID, 5, "  Great book.  ")
	require.NoError(t, err)

	assert.NotZero(t, review.ID)
	assert.Equal(t, "Great book.", review.Text)
	assert.Equal(t, entities.ReviewPending, currentStatus(t, repo, review.ID))
}

func TestSubmitDuplicate(t *testing.T) {
	repo, db, cleanup := setupTestDB(t, true)
	defer cleanup()

	bookID, userID := seedBookAndUser(t, db)

	_, err := repo.Submit(db, bookID, userID, 5, "First take")
	require.NoError(t, err)

	_, err = repo.Submit(db, bookID, userID, 2, "Changed my mind")
	assert.ErrorIs(t, err, ErrDuplicateReview)
}

func TestSubmitValidation(t *testing.T) {
	repo, db, cleanup := setupTestDB(t, true)
	defer cleanup()

	bookID, userID := seedBookAndUser(t, db)

	_, err := repo.Submit(db, bookID, userID, 6, "Off the scale")
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = repo.Submit(db, bookID, userID, -1, "Below the scale")
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = repo.Submit(db, bookID, userID, 3, "   ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestSubmitWithoutSeededStatuses(t *testing.T) {
	repo, db, cleanup := setupTestDB(t, false)
	defer cleanup()

	bookID, userID := seedBookAndUser(t, db)

	_, err := repo.Submit(db, bookID, userID, 4, "Solid")
	assert.ErrorIs(t, err, ErrStatusNotSeeded)
}

func TestApproveAndReject(t *testing.T) {
	repo, db, cleanup := setupTestDB(t, true)
	defer cleanup()

	bookID, userID := seedBookAndUser(t, db)

	review, err := repo.Submit(db, bookID, userID, 4, "Worth reading")
	require.NoError(t, err)

	require.NoError(t, repo.Approve(db, review.ID))
	assert.Equal(t, entities.ReviewApproved, currentStatus(t, repo, review.ID))

	// A decision can be flipped later
	require.NoError(t, repo.Reject(db, review.ID))
	assert.Equal(t, entities.ReviewRejected, currentStatus(t, repo, review.ID))

	require.NoError(t, repo.Approve(db, review.ID))
	assert.Equal(t, entities.ReviewApproved, currentStatus(t, repo, review.ID))
}

func TestSetStatusUnknownReview(t *testing.T) {
	repo, db, cleanup := setupTestDB(t, true)
	defer cleanup()

	err := repo.SetStatus(db, 12345, entities.ReviewApproved)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSetStatusWithoutSeededStatuses(t *testing.T) {
	repo, db, cleanup := setupTestDB(t, false)
	defer cleanup()

	err := repo.SetStatus(db, 1, entities.ReviewApproved)
	assert.ErrorIs(t, err, ErrStatusNotSeeded)
}

func TestHasReviewedAndFind(t *testing.T) {
	repo, db, cleanup := setupTestDB(t, true)
	defer cleanup()

	bookID, userID := seedBookAndUser(t, db)

	reviewed, err := repo.HasReviewed(bookID, userID)
	require.NoError(t, err)
	assert.False(t, reviewed)

	found, err := repo.FindForBookAndUser(bookID, userID)
	require.NoError(t, err)
	assert.Nil(t, found)

	_, err = repo.Submit(db, bookID, userID, 3, "Fine")
	require.NoError(t, err)

	reviewed, err = repo.HasReviewed(bookID, userID)
	require.NoError(t, err)
	assert.True(t, reviewed)

	found, err = repo.FindForBookAndUser(bookID, userID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, entities.ReviewPending, found.Status.Name)
}

func TestListPendingOnlyListsPending(t *testing.T) {
	repo, db, cleanup := setupTestDB(t, true)
	defer cleanup()

	bookID, userID := seedBookAndUser(t, db)

	role := entities.Role{Name: entities.RoleModerator}
	require.NoError(t, db.Create(&role).Error)
	second := entities.User{Username: "second", PasswordHash: "x", RoleID: role.ID}
	require.NoError(t, db.Create(&second).Error)

	first, err := repo.Submit(db, bookID, userID, 5, "Pending one")
	require.NoError(t, err)
	_, err = repo.Submit(db, bookID, second.ID, 2, "Pending two")
	require.NoError(t, err)

	require.NoError(t, repo.Approve(db, first.ID))

	items, total, err := repo.ListPending(1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Pending two", items[0].Text)
	assert.Equal(t, "second", items[0].User.Username)
	assert.Equal(t, "Dune", items[0].Book.Title)
}

func TestListForUser(t *testing.T) {
	repo, db, cleanup := setupTestDB(t, true)
	defer cleanup()

	bookID, userID := seedBookAndUser(t, db)

	review, err := repo.Submit(db, bookID, userID, 4, "Mine")
	require.NoError(t, err)
	require.NoError(t, repo.Reject(db, review.ID))

	items, total, err := repo.ListForUser(userID, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, entities.ReviewRejected, items[0].Status.Name)
	assert.Equal(t, "Dune", items[0].Book.Title)

	items, total, err = repo.ListForUser(userID+1, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, items)
}
