package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookrank/internal/database/books"
	"github.com/mrlokans/bookrank/internal/entities"
)

// AuditRecorder receives audit events for catalog and list mutations.
// Optional; a nil recorder disables auditing.
type AuditRecorder interface {
	LogEvent(event *entities.AuditEvent) error
}

// BookStore defines database operations for the shared book pool.
type BookStore interface {
	SearchBooks(query string) ([]entities.Book, error)
	CreateBook(title, author string, createdBy uint) (*entities.Book, error)
	UpdateBook(id uint, title, author string) (*entities.Book, error)
}

// BooksController handles the shared book pool endpoints.
type BooksController struct {
	store   BookStore
	auditor AuditRecorder
}

// NewBooksController creates a new books controller.
func NewBooksController(store BookStore, auditor AuditRecorder) *BooksController {
	return &BooksController{store: store, auditor: auditor}
}

// ListBooks returns pool books, optionally filtered by a case-insensitive
// substring match on title or author.
// GET /api/books?q=
func (bc *BooksController) ListBooks(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	found, err := bc.store.SearchBooks(query)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": found, "query": query})
}

type bookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// CreateBook adds a book to the shared pool.
// POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	userID := GetUserID(c)

	title, author, ok := bindBookRequest(c)
	if !ok {
		return
	}

	book, err := bc.store.CreateBook(title, author, userID)
	if err != nil {
		if errors.Is(err, books.ErrDuplicate) {
			c.JSON(http.StatusOK, SuccessResponse{Message: err.Error(), Code: "already_exists"})
			return
		}
		respondInternalError(c, err, "create book")
		return
	}

	bc.audit(userID, entities.AuditActionBookCreate, &book.ID,
		fmt.Sprintf("added %q by %q to the pool", title, author))
	respondCreated(c, book)
}

// FixBook corrects a book's title/author, subject to the same
// case-insensitive uniqueness rule as creation.
// PUT /api/books/:id
func (bc *BooksController) FixBook(c *gin.Context) {
	userID := GetUserID(c)
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	title, author, ok := bindBookRequest(c)
	if !ok {
		return
	}

	book, err := bc.store.UpdateBook(bookID, title, author)
	if err != nil {
		switch {
		case errors.Is(err, books.ErrDuplicate):
			respondConflict(c, err.Error(), "already_exists")
		case errors.Is(err, books.ErrNotFound):
			respondNotFound(c, "book")
		default:
			respondInternalError(c, err, "fix book")
		}
		return
	}

	bc.audit(userID, entities.AuditActionBookFix, &book.ID,
		fmt.Sprintf("corrected book %d to %q by %q", book.ID, title, author))
	c.JSON(http.StatusOK, book)
}

func bindBookRequest(c *gin.Context) (title, author string, ok bool) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return "", "", false
	}
	title = strings.TrimSpace(req.Title)
	author = strings.TrimSpace(req.Author)
	if title == "" || author == "" {
		respondBadRequest(c, "title and author are required")
		return "", "", false
	}
	return title, author, true
}

func (bc *BooksController) audit(userID uint, action entities.AuditAction, entityID *uint, description string) {
	if bc.auditor == nil {
		return
	}
	err := bc.auditor.LogEvent(&entities.AuditEvent{
		UserID:      userID,
		Action:      action,
		EntityType:  "book",
		EntityID:    entityID,
		Description: description,
	})
	if err != nil {
		log.Printf("Failed to record audit event: %v", err)
	}
}
