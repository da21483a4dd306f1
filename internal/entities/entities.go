package entities

import "time"

// MaxListEntries is the hard cap on how many books a user may rank.
const MaxListEntries = 10

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:100;not null" json:"username"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Book is one entry in the shared pool. The (title, author) pair is unique
// case-insensitively; the index lives on lower(title), lower(author) and is
// created in database.NewDatabase because gorm tags cannot express it.
type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"index;size:512;not null" json:"title"`
	Author          string    `gorm:"index;size:256;not null" json:"author"`
	CreatedByUserID uint      `gorm:"index" json:"created_by_user_id"`
	CreatedBy       User      `gorm:"foreignKey:CreatedByUserID" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListEntry is one user's inclusion of one book in their ranked list.
// Ranks are 1-based and dense per user after every reorder; removing an
// entry leaves a gap until the next reorder renumbers the rest.
type ListEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_books_user_book;index;not null" json:"user_id"`
	BookID    uint      `gorm:"uniqueIndex:idx_user_books_user_book;not null" json:"book_id"`
	Rank      int       `gorm:"column:rank;not null" json:"rank"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Book      Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ListEntry) TableName() string {
	return "user_books"
}

type AuditAction string

const (
	AuditActionRegister    AuditAction = "user_register"
	AuditActionBookCreate  AuditAction = "book_create"
	AuditActionBookFix     AuditAction = "book_fix"
	AuditActionListAdd     AuditAction = "list_add"
	AuditActionListRemove  AuditAction = "list_remove"
	AuditActionListReorder AuditAction = "list_reorder"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent records a mutation against the catalog or a user's list.
type AuditEvent struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"index" json:"user_id"`
	Action      AuditAction `gorm:"index;size:50" json:"action"`
	EntityType  string      `gorm:"size:50" json:"entity_type"` // "book", "list_entry"
	EntityID    *uint       `gorm:"index" json:"entity_id,omitempty"`
	Description string      `gorm:"size:500" json:"description"`
	Status      AuditStatus `gorm:"size:20" json:"status"`
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
