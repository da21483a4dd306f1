// Package lists provides database operations for per-user ranked book lists.
//
// Every mutating operation runs inside a single transaction. Ranks are dense
// 1-based integers per user; the reorder primitive rewrites the whole list
// by deleting and reinserting the user's rows, which keeps the sequence
// contiguous without ever producing a transient duplicate rank. Removal is
// the one exception: it leaves a gap that persists until the next reorder.
package lists

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookrank/internal/database"
	"github.com/mrlokans/bookrank/internal/database/books"
	"github.com/mrlokans/bookrank/internal/entities"
)

// Repository handles all ranked-list database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new lists repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListItem is one row of a user's list joined with its book.
type ListItem struct {
	EntryID uint   `json:"entry_id"`
	Rank    int    `json:"rank"`
	BookID  uint   `json:"book_id"`
	Title   string `json:"title"`
	Author  string `json:"author"`
}

// GetUserList returns the user's entries joined with book data, ordered by rank.
func (r *Repository) GetUserList(userID uint) ([]ListItem, error) {
	var items []ListItem
	err := r.db.Model(&entities.ListEntry{}).
		Select("user_books.id AS entry_id, user_books.rank AS rank, books.id AS book_id, books.title AS title, books.author AS author").
		Joins("JOIN books ON books.id = user_books.book_id").
		Where("user_books.user_id = ?", userID).
		Order("user_books.rank").
		Scan(&items).Error
	return items, err
}

// ListCandidates returns pool books the user has not listed yet, ordered by
// title, capped at limit.
func (r *Repository) ListCandidates(userID uint, limit int) ([]entities.Book, error) {
	var candidates []entities.Book
	err := r.db.Model(&entities.Book{}).
		Joins("LEFT JOIN user_books ON user_books.book_id = books.id AND user_books.user_id = ?", userID).
		Where("user_books.id IS NULL").
		Order("books.title").
		Limit(limit).
		Find(&candidates).Error
	return candidates, err
}

// CountEntries returns how many entries the user currently holds.
func (r *Repository) CountEntries(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.ListEntry{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// AddToList appends an existing pool book to the user's list with the next
// rank (max current rank + 1, so a removal gap is never reused downward).
// Returns ErrAlreadyListed when the user already holds the book, ErrListFull
// at the cap, and books.ErrNotFound for an unknown book.
func (r *Repository) AddToList(userID, bookID uint) (*entities.ListEntry, error) {
	var entry *entities.ListEntry
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if _, err := books.NewRepository(tx).GetBookByID(bookID); err != nil {
			return err
		}
		var err error
		entry, err = insertEntry(tx, userID, bookID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AddNewBookToList adds a book to the pool (or reuses the existing pool row
// for the same case-insensitive title/author) and appends it to the user's
// list, all inside one transaction.
func (r *Repository) AddNewBookToList(userID uint, title, author string) (*entities.ListEntry, error) {
	var entry *entities.ListEntry
	err := r.db.Transaction(func(tx *gorm.DB) error {
		book, err := books.NewRepository(tx).GetOrCreateBook(title, author, userID)
		if err != nil {
			return err
		}
		entry, err = insertEntry(tx, userID, book.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// insertEntry performs the bounded, race-guarded append within tx.
func insertEntry(tx *gorm.DB, userID, bookID uint) (*entities.ListEntry, error) {
	var existing entities.ListEntry
	err := tx.Where("user_id = ? AND book_id = ?", userID, bookID).First(&existing).Error
	if err == nil {
		return nil, ErrAlreadyListed
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for existing entry: %w", err)
	}

	var count int64
	if err := tx.Model(&entities.ListEntry{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}
	if count >= entities.MaxListEntries {
		return nil, ErrListFull
	}

	var maxRank int
	err = tx.Model(&entities.ListEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(MAX(rank), 0)").
		Scan(&maxRank).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read max rank: %w", err)
	}

	entry := &entities.ListEntry{
		UserID: userID,
		BookID: bookID,
		Rank:   maxRank + 1,
	}
	if err := tx.Create(entry).Error; err != nil {
		// A concurrent add for the same (user, book) pair won the race past
		// the existence check; report it the same way.
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyListed
		}
		return nil, fmt.Errorf("failed to insert entry: %w", err)
	}
	return entry, nil
}

// Reorder atomically rewrites the user's ranks so that orderedEntryIDs[i]
// receives rank i+1. The sequence must be a permutation of the user's
// current entry ids; any violation fails with a ValidationError before
// anything is mutated.
func (r *Repository) Reorder(userID uint, orderedEntryIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return reorderTx(tx, userID, orderedEntryIDs)
	})
}

// reorderTx is the replace-in-transaction primitive. Deleting and reinserting
// (rather than updating ranks in place) keeps the operation safe under a
// per-user unique rank constraint: sqlite has no deferred constraint checks,
// so in-place updates would depend on write order.
func reorderTx(tx *gorm.DB, userID uint, orderedEntryIDs []uint) error {
	var current []entities.ListEntry
	if err := tx.Where("user_id = ?", userID).Find(&current).Error; err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}

	if len(orderedEntryIDs) != len(current) {
		return &ValidationError{Reason: fmt.Sprintf("order length mismatch: got %d entries, have %d", len(orderedEntryIDs), len(current))}
	}

	byID := make(map[uint]entities.ListEntry, len(current))
	for _, e := range current {
		byID[e.ID] = e
	}

	seen := make(map[uint]bool, len(orderedEntryIDs))
	for _, id := range orderedEntryIDs {
		if _, ok := byID[id]; !ok {
			return &ValidationError{Reason: fmt.Sprintf("unknown entry id %d", id)}
		}
		if seen[id] {
			return &ValidationError{Reason: fmt.Sprintf("duplicate entry id %d", id)}
		}
		seen[id] = true
	}
	for _, e := range current {
		if !seen[e.ID] {
			return &ValidationError{Reason: fmt.Sprintf("missing entry id %d", e.ID)}
		}
	}

	if len(orderedEntryIDs) == 0 {
		return nil
	}

	if err := tx.Where("user_id = ?", userID).Delete(&entities.ListEntry{}).Error; err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	now := time.Now()
	rebuilt := make([]entities.ListEntry, 0, len(orderedEntryIDs))
	for i, id := range orderedEntryIDs {
		e := byID[id]
		e.Rank = i + 1
		e.UpdatedAt = now
		rebuilt = append(rebuilt, e)
	}
	if err := tx.Create(&rebuilt).Error; err != nil {
		return fmt.Errorf("failed to reinsert entries: %w", err)
	}
	return nil
}

// MoveUp swaps the entry with its immediate predecessor by rank. Returns
// false without mutating when the entry is already first or is not in the
// user's list.
func (r *Repository) MoveUp(userID, entryID uint) (bool, error) {
	moved := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		ids, err := orderedIDs(tx, userID)
		if err != nil {
			return err
		}
		idx := indexOf(ids, entryID)
		if idx <= 0 {
			return nil
		}
		ids[idx-1], ids[idx] = ids[idx], ids[idx-1]
		if err := reorderTx(tx, userID, ids); err != nil {
			return err
		}
		moved = true
		return nil
	})
	return moved, err
}

// MoveDown swaps the entry with its immediate successor by rank. Returns
// false without mutating when the entry is already last or is not in the
// user's list.
func (r *Repository) MoveDown(userID, entryID uint) (bool, error) {
	moved := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		ids, err := orderedIDs(tx, userID)
		if err != nil {
			return err
		}
		idx := indexOf(ids, entryID)
		if idx == -1 || idx >= len(ids)-1 {
			return nil
		}
		ids[idx], ids[idx+1] = ids[idx+1], ids[idx]
		if err := reorderTx(tx, userID, ids); err != nil {
			return err
		}
		moved = true
		return nil
	})
	return moved, err
}

// RemoveEntry deletes the entry scoped to its owning user. Surviving ranks
// are NOT renumbered; the gap persists until the next reorder. Removing an
// entry that does not exist (or belongs to someone else) is a no-op.
func (r *Repository) RemoveEntry(userID, entryID uint) error {
	return r.db.
		Where("id = ? AND user_id = ?", entryID, userID).
		Delete(&entities.ListEntry{}).Error
}

func orderedIDs(tx *gorm.DB, userID uint) ([]uint, error) {
	var ids []uint
	err := tx.Model(&entities.ListEntry{}).
		Where("user_id = ?", userID).
		Order("rank").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load entry order: %w", err)
	}
	return ids, nil
}

func indexOf(ids []uint, id uint) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
