package repository

import (
	"testing"
	"time"

	"hirocks/internal/database"
	"hirocks/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB returns a migrated in-memory SQLite database private to the test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func seedUser(t *testing.T, db *gorm.DB, id uint, nickname string) *models.User {
	t.Helper()
	u := &models.User{ID: id, Nickname: nickname, Email: nickname + "@hirocks.test"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedTopic(t *testing.T, db *gorm.DB, name string, active bool) *models.Topic {
	t.Helper()
	topic := &models.Topic{Name: name, IsActive: active}
	require.NoError(t, db.Create(topic).Error)
	return topic
}

func seedPost(t *testing.T, db *gorm.DB, userID uint, topicID *uint, createdAt time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:       "WOD " + createdAt.Format("15:04:05"),
		Content:     "<p>버피 100개 챌린지</p>",
		TopicID:     topicID,
		Images:      []string{},
		IsPublished: true,
		UserID:      userID,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedComment(t *testing.T, db *gorm.DB, postID, userID uint, parentID *uint, content string, createdAt time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{PostID: postID, UserID: userID, ParentID: parentID, Content: content, CreatedAt: createdAt}
	require.NoError(t, db.Create(c).Error)
	return c
}
