package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookrank/internal/auth"
	"github.com/mrlokans/bookrank/internal/database"
	"github.com/mrlokans/bookrank/internal/database/audit"
	"github.com/mrlokans/bookrank/internal/database/lists"
	"github.com/mrlokans/bookrank/internal/entities"
)

func setupListsTestDB(t *testing.T) (*database.Database, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_lists_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

// asUser injects an authenticated user the way the session middleware would.
func asUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, userID)
		c.Next()
	}
}

func createUser(t *testing.T, db *database.Database, username string) *entities.User {
	user := &entities.User{Username: username, PasswordHash: "irrelevant"}
	require.NoError(t, db.DB.Create(user).Error)
	return user
}

func createBook(t *testing.T, db *database.Database, title string) *entities.Book {
	book := &entities.Book{Title: title, Author: "Test Author"}
	require.NoError(t, db.DB.Create(book).Error)
	return book
}

func newListsRouter(db *database.Database, userID uint) *gin.Engine {
	controller := NewListsController(lists.NewRepository(db.DB), audit.NewRepository(db.DB))
	router := gin.New()
	api := router.Group("/api/me/list", asUser(userID))
	api.GET("", controller.GetList)
	api.POST("", controller.AddToList)
	api.POST("/new", controller.AddNewBook)
	api.POST("/reorder", controller.Reorder)
	api.POST("/:id/up", controller.MoveUp)
	api.POST("/:id/down", controller.MoveDown)
	api.DELETE("/:id", controller.RemoveEntry)
	return router
}

func jsonRequest(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListsController_GetList(t *testing.T) {
	db, cleanup := setupListsTestDB(t)
	defer cleanup()

	user := createUser(t, db, "alice")
	book := createBook(t, db, "Dune")
	createBook(t, db, "Unlisted")

	repo := lists.NewRepository(db.DB)
	_, err := repo.AddToList(user.ID, book.ID)
	require.NoError(t, err)

	router := newListsRouter(db, user.ID)
	w := jsonRequest(t, router, "GET", "/api/me/list", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		List       []lists.ListItem `json:"list"`
		Candidates []entities.Book  `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.List, 1)
	assert.Equal(t, "Dune", resp.List[0].Title)
	assert.Equal(t, 1, resp.List[0].Rank)
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "Unlisted", resp.Candidates[0].Title)
}

func TestListsController_AddToList(t *testing.T) {
	t.Run("adds a pool book", func(t *testing.T) {
		db, cleanup := setupListsTestDB(t)
		defer cleanup()

		user := createUser(t, db, "alice")
		book := createBook(t, db, "Dune")
		router := newListsRouter(db, user.ID)

		w := jsonRequest(t, router, "POST", "/api/me/list", gin.H{"book_id": book.ID})

		assert.Equal(t, http.StatusCreated, w.Code)

		var entry entities.ListEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
		assert.Equal(t, 1, entry.Rank)
		assert.Equal(t, book.ID, entry.BookID)
	})

	t.Run("duplicate add is informational", func(t *testing.T) {
		db, cleanup := setupListsTestDB(t)
		defer cleanup()

		user := createUser(t, db, "alice")
		book := createBook(t, db, "Dune")
		router := newListsRouter(db, user.ID)

		w := jsonRequest(t, router, "POST", "/api/me/list", gin.H{"book_id": book.ID})
		require.Equal(t, http.StatusCreated, w.Code)

		w = jsonRequest(t, router, "POST", "/api/me/list", gin.H{"book_id": book.ID})
		assert.Equal(t, http.StatusOK, w.Code)

		var resp SuccessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "already_exists", resp.Code)
	})

	t.Run("cap is a conflict", func(t *testing.T) {
		db, cleanup := setupListsTestDB(t)
		defer cleanup()

		user := createUser(t, db, "alice")
		router := newListsRouter(db, user.ID)

		for i := 0; i < entities.MaxListEntries; i++ {
			book := createBook(t, db, fmt.Sprintf("Book %02d", i))
			w := jsonRequest(t, router, "POST", "/api/me/list", gin.H{"book_id": book.ID})
			require.Equal(t, http.StatusCreated, w.Code)
		}

		extra := createBook(t, db, "One Too Many")
		w := jsonRequest(t, router, "POST", "/api/me/list", gin.H{"book_id": extra.ID})

		assert.Equal(t, http.StatusConflict, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "capacity_exceeded", resp.Code)
	})

	t.Run("unknown book", func(t *testing.T) {
		db, cleanup := setupListsTestDB(t)
		defer cleanup()

		user := createUser(t, db, "alice")
		router := newListsRouter(db, user.ID)

		w := jsonRequest(t, router, "POST", "/api/me/list", gin.H{"book_id": 999})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing book_id", func(t *testing.T) {
		db, cleanup := setupListsTestDB(t)
		defer cleanup()

		user := createUser(t, db, "alice")
		router := newListsRouter(db, user.ID)

		w := jsonRequest(t, router, "POST", "/api/me/list", gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListsController_AddNewBook(t *testing.T) {
	t.Run("creates the book and the entry", func(t *testing.T) {
		db, cleanup := setupListsTestDB(t)
		defer cleanup()

		user := createUser(t, db, "alice")
		router := newListsRouter(db, user.ID)

		w := jsonRequest(t, router, "POST", "/api/me/list/new",
			gin.H{"title": "  Hyperion  ", "author": "Dan Simmons"})

		assert.Equal(t, http.StatusCreated, w.Code)

		var entry entities.ListEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
		assert.Equal(t, 1, entry.Rank)

		// Title was trimmed before it hit the pool
		var book entities.Book
		require.NoError(t, db.DB.First(&book, entry.BookID).Error)
		assert.Equal(t, "Hyperion", book.Title)
	})

	t.Run("blank fields rejected", func(t *testing.T) {
		db, cleanup := setupListsTestDB(t)
		defer cleanup()

		user := createUser(t, db, "alice")
		router := newListsRouter(db, user.ID)

		w := jsonRequest(t, router, "POST", "/api/me/list/new", gin.H{"title": "  ", "author": ""})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListsController_Reorder(t *testing.T) {
	t.Run("rewrites ranks", func(t *testing.T) {
		db, cleanup := setupListsTestDB(t)
		defer cleanup()

		user := createUser(t, db, "alice")
		repo := lists.NewRepository(db.DB)
		first, err := repo.AddToList(user.ID, createBook(t, db, "First").ID)
		require.NoError(t, err)
		second, err := repo.AddToList(user.ID, createBook(t, db, "Second").ID)
		require.NoError(t, err)

		router := newListsRouter(db, user.ID)
		w := jsonRequest(t, router, "POST", "/api/me/list/reorder",
			gin.H{"order": []uint{second.ID, first.ID}})

		assert.Equal(t, http.StatusOK, w.Code)

		items, err := repo.GetUserList(user.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, second.ID, items[0].EntryID)
		assert.Equal(t, first.ID, items[1].EntryID)
	})

	t.Run("invalid permutation", func(t *testing.T) {
		db, cleanup := setupListsTestDB(t)
		defer cleanup()

		user := createUser(t, db, "alice")
		repo := lists.NewRepository(db.DB)
		entry, err := repo.AddToList(user.ID, createBook(t, db, "Only").ID)
		require.NoError(t, err)

		router := newListsRouter(db, user.ID)
		w := jsonRequest(t, router, "POST", "/api/me/list/reorder",
			gin.H{"order": []uint{entry.ID, 999}})

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp.Error, "length mismatch")
	})

	t.Run("empty order rejected", func(t *testing.T) {
		db, cleanup := setupListsTestDB(t)
		defer cleanup()

		user := createUser(t, db, "alice")
		router := newListsRouter(db, user.ID)

		w := jsonRequest(t, router, "POST", "/api/me/list/reorder", gin.H{"order": []uint{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListsController_Move(t *testing.T) {
	db, cleanup := setupListsTestDB(t)
	defer cleanup()

	user := createUser(t, db, "alice")
	repo := lists.NewRepository(db.DB)
	first, err := repo.AddToList(user.ID, createBook(t, db, "First").ID)
	require.NoError(t, err)
	second, err := repo.AddToList(user.ID, createBook(t, db, "Second").ID)
	require.NoError(t, err)

	router := newListsRouter(db, user.ID)

	w := jsonRequest(t, router, "POST", fmt.Sprintf("/api/me/list/%d/up", second.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"moved": true}`, w.Body.String())

	// Now at the top, another move up is a no-op
	w = jsonRequest(t, router, "POST", fmt.Sprintf("/api/me/list/%d/up", second.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"moved": false}`, w.Body.String())

	items, err := repo.GetUserList(user.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, items[0].EntryID)
	assert.Equal(t, first.ID, items[1].EntryID)
}

func TestListsController_RemoveEntry(t *testing.T) {
	db, cleanup := setupListsTestDB(t)
	defer cleanup()

	user := createUser(t, db, "alice")
	repo := lists.NewRepository(db.DB)
	entry, err := repo.AddToList(user.ID, createBook(t, db, "Dune").ID)
	require.NoError(t, err)

	router := newListsRouter(db, user.ID)
	w := jsonRequest(t, router, "DELETE", fmt.Sprintf("/api/me/list/%d", entry.ID), nil)

	assert.Equal(t, http.StatusOK, w.Code)

	count, err := repo.CountEntries(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestListsController_RecordsAuditEvents(t *testing.T) {
	db, cleanup := setupListsTestDB(t)
	defer cleanup()

	user := createUser(t, db, "alice")
	book := createBook(t, db, "Dune")
	router := newListsRouter(db, user.ID)

	w := jsonRequest(t, router, "POST", "/api/me/list", gin.H{"book_id": book.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	events, total, err := audit.NewRepository(db.DB).GetEvents(user.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.Equal(t, entities.AuditActionListAdd, events[0].Action)
}
