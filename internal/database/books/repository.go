// Package books provides database operations for the shared book pool.
//
// The pool is deduplicated case-insensitively on (title, author); a unique
// expression index enforces this at the storage level, and every write path
// here checks first so callers get a typed outcome instead of a raw
// constraint error.
package books

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookrank/internal/database"
	"github.com/mrlokans/bookrank/internal/entities"
)

var (
	// ErrDuplicate means another book already holds the (title, author) pair.
	ErrDuplicate = errors.New("that book already exists in the pool")
	// ErrNotFound means the requested book does not exist.
	ErrNotFound = errors.New("book not found")
)

// Repository handles all book pool database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetBookByID retrieves a book by ID.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByTitleAuthor looks a book up by its case-insensitive (title, author) pair.
// Returns nil, nil when no such book exists.
func (r *Repository) FindByTitleAuthor(title, author string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.
		Where("LOWER(title) = LOWER(?) AND LOWER(author) = LOWER(?)", title, author).
		First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// SearchBooks returns pool books whose title or author contains the query,
// case-insensitively, ordered by title. An empty query returns the whole pool.
func (r *Repository) SearchBooks(query string) ([]entities.Book, error) {
	var books []entities.Book
	q := r.db.Order("title")
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("title LIKE ? COLLATE NOCASE OR author LIKE ? COLLATE NOCASE", like, like)
	}
	err := q.Find(&books).Error
	return books, err
}

// CreateBook adds a book to the pool. Returns ErrDuplicate when the
// (title, author) pair already exists, including when a concurrent create
// wins the race past the existence check.
func (r *Repository) CreateBook(title, author string, createdBy uint) (*entities.Book, error) {
	existing, err := r.FindByTitleAuthor(title, author)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing book: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicate
	}

	book := &entities.Book{
		Title:           title,
		Author:          author,
		CreatedByUserID: createdBy,
	}
	if err := r.db.Create(book).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return book, nil
}

// GetOrCreateBook returns the pool book for (title, author), creating it when
// missing. A create that loses a duplicate race is resolved by re-reading and
// returning the winner's row rather than erroring.
func (r *Repository) GetOrCreateBook(title, author string, createdBy uint) (*entities.Book, error) {
	existing, err := r.FindByTitleAuthor(title, author)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing book: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	book := &entities.Book{
		Title:           title,
		Author:          author,
		CreatedByUserID: createdBy,
	}
	err = r.db.Create(book).Error
	if err == nil {
		return book, nil
	}
	if !database.IsUniqueViolation(err) {
		return nil, err
	}

	// Lost the race; use the row the winner created.
	winner, err := r.FindByTitleAuthor(title, author)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read book after duplicate race: %w", err)
	}
	if winner == nil {
		return nil, fmt.Errorf("book vanished after duplicate race")
	}
	return winner, nil
}

// UpdateBook corrects a book's title/author. The new pair must not collide
// case-insensitively with any other pool book.
func (r *Repository) UpdateBook(id uint, title, author string) (*entities.Book, error) {
	var clash entities.Book
	err := r.db.
		Where("LOWER(title) = LOWER(?) AND LOWER(author) = LOWER(?) AND id != ?", title, author, id).
		First(&clash).Error
	if err == nil {
		return nil, ErrDuplicate
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	book, err := r.GetBookByID(id)
	if err != nil {
		return nil, err
	}

	err = r.db.Model(book).Updates(map[string]any{"title": title, "author": author}).Error
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return book, nil
}

// CountBooks returns the size of the pool.
func (r *Repository) CountBooks() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}
