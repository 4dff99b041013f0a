package activity

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bugline-dev/bugline/internal/models"
	"github.com/bugline-dev/bugline/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int64

func createTestDB(t *testing.T) *gorm.DB {
	n := atomic.AddInt64(&testDBCounter, 1)
	dsn := fmt.Sprintf("file:activity_test_%d.db?mode=memory&cache=shared", n)

	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Issue{},
		&models.Comment{},
		&models.Attachment{},
		&models.ActivityLog{},
	))

	return database
}

func entries(t *testing.T, database *gorm.DB, issueID uint) []models.ActivityLog {
	var logs []models.ActivityLog
	require.NoError(t, database.Where("issue_id = ?", issueID).Order("id ASC").Find(&logs).Error)
	return logs
}

func TestRecorderCreated(t *testing.T) {
	database := createTestDB(t)
	recorder := NewRecorder(database)

	require.NoError(t, recorder.Created(10, 3, "Login broken on Safari"))

	logs := entries(t, database, 10)
	require.Len(t, logs, 1)
	assert.Equal(t, types.ActionCreated, logs[0].Action)
	assert.Equal(t, uint(3), logs[0].UserID)
	assert.Equal(t, "Login broken on Safari", logs[0].NewValue)
	assert.Empty(t, logs[0].FieldChanged)
	assert.Empty(t, logs[0].PreviousValue)
}

func TestRecorderRecordChanges(t *testing.T) {
	t.Run("one entry per change with previous and new values", func(t *testing.T) {
		database := createTestDB(t)
		recorder := NewRecorder(database)

		require.NoError(t, recorder.RecordChanges(5, 1, []FieldChange{
			{Field: "title", Previous: "Old title", New: "New title"},
			{Field: "priority", Previous: "low", New: "high"},
		}))

		logs := entries(t, database, 5)
		require.Len(t, logs, 2)
		assert.Equal(t, types.ActionUpdated, logs[0].Action)
		assert.Equal(t, "title", logs[0].FieldChanged)
		assert.Equal(t, "Old title", logs[0].PreviousValue)
		assert.Equal(t, "New title", logs[0].NewValue)
		assert.Equal(t, "priority", logs[1].FieldChanged)
	})

	t.Run("status field gets its own action", func(t *testing.T) {
		database := createTestDB(t)
		recorder := NewRecorder(database)

		require.NoError(t, recorder.RecordChanges(5, 1, []FieldChange{
			{Field: "status", Previous: types.StatusTodo, New: types.StatusInProgress},
			{Field: "title", Previous: "a", New: "b"},
		}))

		logs := entries(t, database, 5)
		require.Len(t, logs, 2)
		assert.Equal(t, types.ActionStatusChanged, logs[0].Action)
		assert.Equal(t, types.ActionUpdated, logs[1].Action)
	})

	t.Run("empty change set writes nothing", func(t *testing.T) {
		database := createTestDB(t)
		recorder := NewRecorder(database)

		require.NoError(t, recorder.RecordChanges(5, 1, nil))
		assert.Empty(t, entries(t, database, 5))
	})
}

func TestRecorderStatusChanged(t *testing.T) {
	database := createTestDB(t)
	recorder := NewRecorder(database)

	// Board drops always log, even onto the same column.
	require.NoError(t, recorder.StatusChanged(7, 2, types.StatusTodo, types.StatusTodo))

	logs := entries(t, database, 7)
	require.Len(t, logs, 1)
	assert.Equal(t, types.ActionStatusChanged, logs[0].Action)
	assert.Equal(t, types.StatusTodo, logs[0].PreviousValue)
	assert.Equal(t, types.StatusTodo, logs[0].NewValue)
}

func TestStringify(t *testing.T) {
	due := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	assignee := uint(12)
	hours := 2.5
	name := "text"

	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"nil", nil, ""},
		{"string", "hello", "hello"},
		{"nil string pointer", (*string)(nil), ""},
		{"string pointer", &name, "text"},
		{"nil uint pointer", (*uint)(nil), ""},
		{"uint pointer", &assignee, "12"},
		{"nil float pointer", (*float64)(nil), ""},
		{"float pointer", &hours, "2.5"},
		{"time", due, "2026-03-14T09:26:53Z"},
		{"nil time pointer", (*time.Time)(nil), ""},
		{"time pointer", &due, "2026-03-14T09:26:53Z"},
		{"fallback", 42, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stringify(tt.value))
		})
	}
}
