// Command main runs the database seeder for ClassHub.
package main

import (
	"flag"
	"log"

	"classhub/internal/config"
	"classhub/internal/database"
	"classhub/internal/seed"
	"classhub/internal/storage"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numClassrooms := flag.Int("classrooms", 30, "Number of classrooms to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")
	log.Printf("Target: %d users, %d classrooms, clean=%v\n", *numUsers, *numClassrooms, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	files, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to open upload store: %v", err)
	}

	s := seed.NewSeeder(db, files)
	if err := s.Seed(seed.Options{
		NumUsers:      *numUsers,
		NumClassrooms: *numClassrooms,
		ShouldClean:   *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done! Your database is now populated with test data.")
	log.Println("All test users have the password: password123")
}
