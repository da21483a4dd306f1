package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookrank/internal/database/books"
	"github.com/mrlokans/bookrank/internal/database/lists"
	"github.com/mrlokans/bookrank/internal/entities"
)

// candidateLimit caps how many unlisted pool books the list view offers.
const candidateLimit = 100

// ListStore defines database operations for ranked-list management.
type ListStore interface {
	GetUserList(userID uint) ([]lists.ListItem, error)
	ListCandidates(userID uint, limit int) ([]entities.Book, error)
	AddToList(userID, bookID uint) (*entities.ListEntry, error)
	AddNewBookToList(userID uint, title, author string) (*entities.ListEntry, error)
	Reorder(userID uint, orderedEntryIDs []uint) error
	MoveUp(userID, entryID uint) (bool, error)
	MoveDown(userID, entryID uint) (bool, error)
	RemoveEntry(userID, entryID uint) error
}

// ListsController handles the authenticated user's ranked list.
type ListsController struct {
	store   ListStore
	auditor AuditRecorder
}

// NewListsController creates a new lists controller.
func NewListsController(store ListStore, auditor AuditRecorder) *ListsController {
	return &ListsController{store: store, auditor: auditor}
}

// GetList returns the user's ranked list and the pool books they could add.
// GET /api/me/list
func (lc *ListsController) GetList(c *gin.Context) {
	userID := GetUserID(c)

	list, err := lc.store.GetUserList(userID)
	if err != nil {
		respondInternalError(c, err, "load list")
		return
	}
	candidates, err := lc.store.ListCandidates(userID, candidateLimit)
	if err != nil {
		respondInternalError(c, err, "load candidates")
		return
	}

	c.JSON(http.StatusOK, gin.H{"list": list, "candidates": candidates})
}

type addToListRequest struct {
	BookID uint `json:"book_id"`
}

// AddToList appends an existing pool book to the user's list.
// POST /api/me/list
func (lc *ListsController) AddToList(c *gin.Context) {
	userID := GetUserID(c)

	var req addToListRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BookID == 0 {
		respondBadRequest(c, "book_id is required")
		return
	}

	entry, err := lc.store.AddToList(userID, req.BookID)
	if err != nil {
		lc.respondAddOutcome(c, err)
		return
	}

	lc.audit(userID, entities.AuditActionListAdd, "list_entry", &entry.ID,
		fmt.Sprintf("added book %d at rank %d", entry.BookID, entry.Rank))
	respondCreated(c, entry)
}

type addNewBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// AddNewBook adds a brand-new (or matching existing) pool book to the list.
// POST /api/me/list/new
func (lc *ListsController) AddNewBook(c *gin.Context) {
	userID := GetUserID(c)

	var req addNewBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	title := strings.TrimSpace(req.Title)
	author := strings.TrimSpace(req.Author)
	if title == "" || author == "" {
		respondBadRequest(c, "title and author are required")
		return
	}

	entry, err := lc.store.AddNewBookToList(userID, title, author)
	if err != nil {
		lc.respondAddOutcome(c, err)
		return
	}

	lc.audit(userID, entities.AuditActionListAdd, "list_entry", &entry.ID,
		fmt.Sprintf("added new book %q by %q at rank %d", title, author, entry.Rank))
	respondCreated(c, entry)
}

// respondAddOutcome translates membership outcomes into responses. Duplicate
// adds are informational, the cap is a conflict, anything else is internal.
func (lc *ListsController) respondAddOutcome(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lists.ErrAlreadyListed):
		c.JSON(http.StatusOK, SuccessResponse{Message: err.Error(), Code: "already_exists"})
	case errors.Is(err, lists.ErrListFull):
		respondConflict(c, err.Error(), "capacity_exceeded")
	case errors.Is(err, books.ErrNotFound):
		respondNotFound(c, "book")
	default:
		respondInternalError(c, err, "add to list")
	}
}

type reorderRequest struct {
	Order []uint `json:"order"`
}

// Reorder rewrites the user's ranks to match the supplied entry-id sequence.
// POST /api/me/list/reorder
func (lc *ListsController) Reorder(c *gin.Context) {
	userID := GetUserID(c)

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if len(req.Order) == 0 {
		respondBadRequest(c, "order is required")
		return
	}

	if err := lc.store.Reorder(userID, req.Order); err != nil {
		var ve *lists.ValidationError
		if errors.As(err, &ve) {
			respondBadRequest(c, ve.Reason)
			return
		}
		respondInternalError(c, err, "reorder list")
		return
	}

	lc.audit(userID, entities.AuditActionListReorder, "list_entry", nil,
		fmt.Sprintf("reordered %d entries", len(req.Order)))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// MoveUp swaps the entry with its predecessor.
// POST /api/me/list/:id/up
func (lc *ListsController) MoveUp(c *gin.Context) {
	lc.move(c, "move up", lc.store.MoveUp)
}

// MoveDown swaps the entry with its successor.
// POST /api/me/list/:id/down
func (lc *ListsController) MoveDown(c *gin.Context) {
	lc.move(c, "move down", lc.store.MoveDown)
}

func (lc *ListsController) move(c *gin.Context, what string, op func(userID, entryID uint) (bool, error)) {
	userID := GetUserID(c)
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	moved, err := op(userID, entryID)
	if err != nil {
		respondInternalError(c, err, what)
		return
	}
	if moved {
		lc.audit(userID, entities.AuditActionListReorder, "list_entry", &entryID, what)
	}
	c.JSON(http.StatusOK, gin.H{"moved": moved})
}

// RemoveEntry deletes the entry, scoped to its owner. The surviving ranks
// keep their numbers; the gap closes on the next reorder.
// DELETE /api/me/list/:id
func (lc *ListsController) RemoveEntry(c *gin.Context) {
	userID := GetUserID(c)
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := lc.store.RemoveEntry(userID, entryID); err != nil {
		respondInternalError(c, err, "remove entry")
		return
	}

	lc.audit(userID, entities.AuditActionListRemove, "list_entry", &entryID, "removed entry")
	respondSuccess(c, "entry removed")
}

func (lc *ListsController) audit(userID uint, action entities.AuditAction, entityType string, entityID *uint, description string) {
	if lc.auditor == nil {
		return
	}
	err := lc.auditor.LogEvent(&entities.AuditEvent{
		UserID:      userID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
	})
	if err != nil {
		log.Printf("Failed to record audit event: %v", err)
	}
}
