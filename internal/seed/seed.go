package seed

import (
	"fmt"
	"log"

	"classhub/internal/models"
	"classhub/internal/storage"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers      int
	NumClassrooms int
	ShouldClean   bool
}

var topicNames = []string{
	"Mathematics", "Physics", "Chemistry", "Biology", "History",
	"Geography", "Literature", "Philosophy", "Computer Science",
	"Economics", "Music Theory", "Linguistics",
}

// Seeder populates the database with demo data.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder bound to the given database. files may be
// nil; conspects are then skipped.
func NewSeeder(db *gorm.DB, files *storage.FileStore) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, files)}
}

// ClearAll truncates all domain tables.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE conspects, messages, classroom_students, classrooms, topics, users RESTART IDENTITY CASCADE;`
	return s.db.Exec(sql).Error
}

// Seed populates the database with test data
func (s *Seeder) Seed(opts Options) error {
	log.Printf("Seeding %d users and %d classrooms...", opts.NumUsers, opts.NumClassrooms)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	users, err := s.seedUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d test users created", len(users))

	topics := make([]*models.Topic, 0, len(topicNames))
	for _, name := range topicNames {
		topic, err := s.factory.CreateTopic(name)
		if err != nil {
			return fmt.Errorf("failed to create topic %q: %w", name, err)
		}
		topics = append(topics, topic)
	}
	log.Printf("%d topics available", len(topics))

	classrooms := make([]*models.Classroom, 0, opts.NumClassrooms)
	for i := 0; i < opts.NumClassrooms; i++ {
		host := users[s.factory.rng.Intn(len(users))]
		topic := topics[s.factory.rng.Intn(len(topics))]
		classroom, err := s.factory.CreateClassroom(host, topic)
		if err != nil {
			return fmt.Errorf("failed to create classroom: %w", err)
		}
		classrooms = append(classrooms, classroom)
	}
	log.Printf("%d classrooms created", len(classrooms))

	messages := 0
	for _, classroom := range classrooms {
		count := s.factory.rng.Intn(8) + 1
		for i := 0; i < count; i++ {
			author := users[s.factory.rng.Intn(len(users))]
			if _, err := s.factory.CreateMessage(classroom, author); err != nil {
				return fmt.Errorf("failed to create message: %w", err)
			}
			messages++
		}
	}
	log.Printf("%d messages created", messages)

	if s.factory.files != nil {
		conspects := 0
		for _, classroom := range classrooms {
			if s.factory.rng.Intn(3) != 0 {
				continue
			}
			author := users[s.factory.rng.Intn(len(users))]
			if _, err := s.factory.CreateConspect(classroom, author); err != nil {
				return fmt.Errorf("failed to create conspect: %w", err)
			}
			conspects++
		}
		log.Printf("%d conspects created", conspects)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

func (s *Seeder) seedUsers(count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	// Always include some fixed accounts for manual testing.
	if count >= 2 {
		for _, name := range []string{"alice", "bob"} {
			name := name
			user, err := s.factory.CreateUser(func(u *models.User) {
				u.Username = name
				u.Email = fmt.Sprintf("%s@example.com", name)
				u.Password = string(hashedPassword)
				u.Bio = "One of the regulars."
			})
			if err == nil {
				users = append(users, user)
			}
		}
	}

	for i := len(users); i < count; i++ {
		user, err := s.factory.CreateUser(func(u *models.User) {
			u.Password = string(hashedPassword)
		})
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}

	if len(users) == 0 {
		return nil, fmt.Errorf("no users created")
	}
	return users, nil
}
