package repository

import (
	"context"
	"testing"

	"classhub/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB creates a fresh in-memory SQLite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Topic{},
		&models.Classroom{},
		&models.Message{},
		&models.Conspect{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Name:     username,
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Balance:  models.DefaultBalance,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestClassroom(t *testing.T, db *gorm.DB, host *models.User, topicName, name string) *models.Classroom {
	t.Helper()
	topic, err := NewTopicRepository(db).GetOrCreate(context.Background(), topicName)
	require.NoError(t, err)

	classroom := &models.Classroom{
		HostID:  &host.ID,
		TopicID: &topic.ID,
		Name:    name,
	}
	require.NoError(t, db.Create(classroom).Error)
	return classroom
}
