package audit

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookrank/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_audit_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_LogEvent_Defaults(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	event := &entities.AuditEvent{
		UserID:      1,
		Action:      entities.AuditActionListAdd,
		EntityType:  "list_entry",
		Description: "added a book",
	}
	err := repo.LogEvent(event)

	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.Equal(t, entities.AuditStatusSuccess, event.Status)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_GetEvents_FilteredByUser(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.LogEvent(&entities.AuditEvent{UserID: 1, Action: entities.AuditActionListAdd}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{UserID: 2, Action: entities.AuditActionBookCreate}))
	require.NoError(t, repo.LogEvent(&entities.AuditEvent{UserID: 1, Action: entities.AuditActionListRemove}))

	events, total, err := repo.GetEvents(1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, events, 2)

	// userID 0 means everyone
	events, total, err = repo.GetEvents(0, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, events, 3)
}

func TestRepository_GetEvents_MostRecentFirst(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	older := &entities.AuditEvent{UserID: 1, Action: entities.AuditActionListAdd, CreatedAt: time.Now().Add(-time.Hour)}
	newer := &entities.AuditEvent{UserID: 1, Action: entities.AuditActionListReorder, CreatedAt: time.Now()}
	require.NoError(t, repo.LogEvent(older))
	require.NoError(t, repo.LogEvent(newer))

	events, _, err := repo.GetEvents(1, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, entities.AuditActionListReorder, events[0].Action)
}

func TestRepository_GetEvents_Pagination(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.LogEvent(&entities.AuditEvent{UserID: 1, Action: entities.AuditActionListAdd}))
	}

	events, total, err := repo.GetEvents(1, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, events, 2)

	events, _, err = repo.GetEvents(1, 2, 4)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	old := &entities.AuditEvent{UserID: 1, Action: entities.AuditActionListAdd, CreatedAt: time.Now().Add(-48 * time.Hour)}
	recent := &entities.AuditEvent{UserID: 1, Action: entities.AuditActionListAdd, CreatedAt: time.Now()}
	require.NoError(t, repo.LogEvent(old))
	require.NoError(t, repo.LogEvent(recent))

	deleted, err := repo.DeleteOldEvents(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, total, err := repo.GetEvents(0, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
