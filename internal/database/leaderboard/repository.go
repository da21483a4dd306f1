// Package leaderboard computes the cross-user aggregate book ranking.
//
// Every user who did not rank a book contributes an implicit penalty of 11
// (one worse than the worst possible rank of 10), so the score is
//
//	rank_score = (total_users - entries_count) * 11 + rank_sum
//
// and lower is better. Books nobody listed are excluded entirely rather than
// scored as worst.
package leaderboard

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/bookrank/internal/entities"
)

// Row is one scored book on the leaderboard.
type Row struct {
	BookID       uint   `json:"book_id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	EntriesCount int    `json:"entries_count"`
	RankSum      int    `json:"rank_sum"`
	RankScore    int    `json:"rank_score"`
}

// Totals summarizes overall activity, reported alongside the rows.
type Totals struct {
	Books   int64 `json:"books"`
	Entries int64 `json:"entries"`
	Raters  int64 `json:"raters"`
}

// Repository handles leaderboard reads.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new leaderboard repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetLeaderboard returns all books with at least one listing, ordered by
// ascending score with ties broken by title (case-sensitive, as stored).
func (r *Repository) GetLeaderboard() ([]Row, error) {
	rows := []Row{}
	err := r.db.Raw(`
		SELECT b.id AS book_id, b.title AS title, b.author AS author,
		       COUNT(ub.id) AS entries_count,
		       COALESCE(SUM(ub.rank), 0) AS rank_sum,
		       ((SELECT COUNT(*) FROM users) - COUNT(ub.id)) * 11 + COALESCE(SUM(ub.rank), 0) AS rank_score
		FROM books b
		JOIN user_books ub ON ub.book_id = b.id
		GROUP BY b.id
		ORDER BY rank_score ASC, b.title ASC`).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute leaderboard: %w", err)
	}
	return rows, nil
}

// GetTotals returns the pool size, the total number of list entries, and the
// number of distinct users with at least one entry.
func (r *Repository) GetTotals() (Totals, error) {
	var t Totals
	if err := r.db.Model(&entities.Book{}).Count(&t.Books).Error; err != nil {
		return Totals{}, fmt.Errorf("failed to count books: %w", err)
	}
	if err := r.db.Model(&entities.ListEntry{}).Count(&t.Entries).Error; err != nil {
		return Totals{}, fmt.Errorf("failed to count entries: %w", err)
	}
	err := r.db.Model(&entities.ListEntry{}).
		Distinct("user_id").
		Count(&t.Raters).Error
	if err != nil {
		return Totals{}, fmt.Errorf("failed to count raters: %w", err)
	}
	return t, nil
}
