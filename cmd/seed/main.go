package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"

	"docshare/internal/config"
	"docshare/internal/database"
	"docshare/internal/database/migration"
	"docshare/internal/model"
	"docshare/internal/repository/postgres"
)

// seedDocuments are inserted only when the documents table is empty, so
// running the command repeatedly is safe.
func seedDocuments(now time.Time) []model.Document {
	return []model.Document{
		{
			ID:          uuid.New().String(),
			Title:       "Welcome to DocShare #1",
			Category:    "general",
			Description: "Sample document seeded into the database.",
			Content:     "Full document body, sample entry 1.",
			Author:      "admin",
			Grade:       "all",
			Views:       10,
			Downloads:   5,
			CreatedAt:   model.NewDate(now),
		},
		{
			ID:          uuid.New().String(),
			Title:       "Welcome to DocShare #2",
			Category:    "general",
			Description: "Sample document seeded into the database.",
			Content:     "Full document body, sample entry 2.",
			Author:      "admin",
			Grade:       "all",
			Views:       20,
			Downloads:   15,
			CreatedAt:   model.NewDate(now),
		},
	}
}

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&total); err != nil {
		log.Fatalf("failed to count documents: %v", err)
	}
	if total > 0 {
		log.Printf("documents table already has %d rows, nothing to seed", total)
		return
	}

	repo := postgres.NewDocumentPostgres(db)
	docs := seedDocuments(time.Now().UTC())
	for i := range docs {
		if _, err := repo.Create(ctx, &docs[i]); err != nil {
			log.Fatalf("failed to insert seed document %q: %v", docs[i].Title, err)
		}
	}

	log.Printf("seeded %d documents", len(docs))
}
