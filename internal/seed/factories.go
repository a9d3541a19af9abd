// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"classhub/internal/models"
	"classhub/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db    *gorm.DB
	files *storage.FileStore
	rng   *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
// files may be nil; conspect seeding is skipped without it.
func NewFactory(db *gorm.DB, files *storage.FileStore) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // weak randomness is fine for seeding
	return &Factory{db: db, files: files, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	username := strings.ToLower(gofakeit.Username()) + fmt.Sprintf("%d", gofakeit.Number(100, 999))
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	user := &models.User{
		Name:     gofakeit.Name(),
		Username: username,
		Email:    gofakeit.Email(),
		Password: string(hashedPassword),
		Bio:      gofakeit.Sentence(10),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Balance:  models.DefaultBalance,
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateTopic gets or creates a topic by name, mirroring the API behavior.
func (f *Factory) CreateTopic(name string) (*models.Topic, error) {
	var topic models.Topic
	if err := f.db.Where(models.Topic{Name: name}).FirstOrCreate(&topic).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

// CreateClassroom constructs and persists a classroom hosted by the given user.
func (f *Factory) CreateClassroom(host *models.User, topic *models.Topic, overrides ...func(*models.Classroom)) (*models.Classroom, error) {
	classroom := &models.Classroom{
		HostID:      &host.ID,
		TopicID:     &topic.ID,
		Name:        fmt.Sprintf("%s %s", gofakeit.HackerAdjective(), topic.Name),
		Description: gofakeit.Sentence(12),
	}

	// realistic created_at spread
	daysBack := f.rng.Intn(90)
	hoursBack := f.rng.Intn(24)
	classroom.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	for _, override := range overrides {
		override(classroom)
	}

	if err := f.db.Create(classroom).Error; err != nil {
		return nil, err
	}
	return classroom, nil
}

// CreateMessage persists a message and, like the API, adds the author to
// the classroom roster.
func (f *Factory) CreateMessage(classroom *models.Classroom, author *models.User, overrides ...func(*models.Message)) (*models.Message, error) {
	message := &models.Message{
		AuthorID:    author.ID,
		ClassroomID: classroom.ID,
		Body:        gofakeit.Sentence(f.rng.Intn(15) + 3),
	}

	for _, override := range overrides {
		override(message)
	}

	if err := f.db.Create(message).Error; err != nil {
		return nil, err
	}
	if err := f.db.Model(classroom).Omit("Students.*").Association("Students").Append(author); err != nil {
		return nil, err
	}
	return message, nil
}

// CreateConspect writes a small generated notes file and persists its
// conspect record. Requires the factory to have a file store.
func (f *Factory) CreateConspect(classroom *models.Classroom, author *models.User, overrides ...func(*models.Conspect)) (*models.Conspect, error) {
	if f.files == nil {
		return nil, fmt.Errorf("seed: no file store configured for conspects")
	}

	originalName := fmt.Sprintf("%s-notes.txt", strings.ToLower(gofakeit.HackerNoun()))
	content := gofakeit.Paragraph(2, 4, 8, "\n")
	objectName, err := f.files.Save(strings.NewReader(content), originalName)
	if err != nil {
		return nil, err
	}

	conspect := &models.Conspect{
		AuthorID:     author.ID,
		ClassroomID:  classroom.ID,
		Description:  gofakeit.Sentence(8),
		File:         objectName,
		OriginalName: originalName,
	}

	for _, override := range overrides {
		override(conspect)
	}

	if err := f.db.Create(conspect).Error; err != nil {
		_ = f.files.Remove(objectName)
		return nil, err
	}
	return conspect, nil
}
