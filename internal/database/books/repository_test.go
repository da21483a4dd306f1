package books

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookrank/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_books_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
	)
	require.NoError(t, err)

	// Same expression index the production schema carries
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_books_title_author_nocase
		ON books (LOWER(title), LOWER(author))`).Error
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func TestRepository_CreateBook(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book, err := repo.CreateBook("Dune", "Frank Herbert", 1)

	require.NoError(t, err)
	assert.NotZero(t, book.ID)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "Frank Herbert", book.Author)
	assert.Equal(t, uint(1), book.CreatedByUserID)
}

func TestRepository_CreateBook_DuplicateCaseInsensitive(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.CreateBook("Dune", "Frank Herbert", 1)
	require.NoError(t, err)

	_, err = repo.CreateBook("DUNE", "frank herbert", 2)
	assert.ErrorIs(t, err, ErrDuplicate)

	count, err := repo.CountBooks()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_CreateBook_SameTitleDifferentAuthor(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.CreateBook("Solaris", "Stanislaw Lem", 1)
	require.NoError(t, err)

	_, err = repo.CreateBook("Solaris", "Someone Else", 1)
	assert.NoError(t, err)
}

func TestRepository_GetBookByID_NotFound(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetBookByID(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_FindByTitleAuthor(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := repo.CreateBook("Dune", "Frank Herbert", 1)
	require.NoError(t, err)

	found, err := repo.FindByTitleAuthor("dune", "FRANK HERBERT")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
}

func TestRepository_FindByTitleAuthor_Absent(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	found, err := repo.FindByTitleAuthor("Nope", "Nobody")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_GetOrCreateBook_ReusesExisting(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	first, err := repo.GetOrCreateBook("Dune", "Frank Herbert", 1)
	require.NoError(t, err)

	second, err := repo.GetOrCreateBook("dune", "frank herbert", 2)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	// Original casing wins
	assert.Equal(t, "Dune", second.Title)

	count, err := repo.CountBooks()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_SearchBooks(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.CreateBook("The Dispossessed", "Ursula K. Le Guin", 1)
	require.NoError(t, err)
	_, err = repo.CreateBook("Dune", "Frank Herbert", 1)
	require.NoError(t, err)

	results, err := repo.SearchBooks("le guin")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "The Dispossessed", results[0].Title)
}

func TestRepository_SearchBooks_EmptyQueryReturnsAllOrderedByTitle(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.CreateBook("Zebra Tales", "A", 1)
	require.NoError(t, err)
	_, err = repo.CreateBook("Aardvark Stories", "B", 1)
	require.NoError(t, err)

	results, err := repo.SearchBooks("")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Aardvark Stories", results[0].Title)
	assert.Equal(t, "Zebra Tales", results[1].Title)
}

func TestRepository_UpdateBook(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book, err := repo.CreateBook("Dune Messaih", "Frank Herbert", 1)
	require.NoError(t, err)

	updated, err := repo.UpdateBook(book.ID, "Dune Messiah", "Frank Herbert")
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", updated.Title)

	reread, err := repo.GetBookByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", reread.Title)
}

func TestRepository_UpdateBook_ClashWithOtherBook(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.CreateBook("Dune", "Frank Herbert", 1)
	require.NoError(t, err)
	other, err := repo.CreateBook("Dune Messiah", "Frank Herbert", 1)
	require.NoError(t, err)

	_, err = repo.UpdateBook(other.ID, "dune", "frank herbert")
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRepository_UpdateBook_SameBookRecasing(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book, err := repo.CreateBook("dune", "frank herbert", 1)
	require.NoError(t, err)

	// Changing only the casing of its own pair must not clash with itself
	updated, err := repo.UpdateBook(book.ID, "Dune", "Frank Herbert")
	require.NoError(t, err)
	assert.Equal(t, "Dune", updated.Title)
}

func TestRepository_UpdateBook_NotFound(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.UpdateBook(999, "Anything", "Anyone")
	assert.ErrorIs(t, err, ErrNotFound)
}
