package main

import (
	"context"
	"log"
	"os"
	"time"

	"tlgsite/internal/config"
	"tlgsite/internal/model"
	"tlgsite/internal/pocketbase"
	"tlgsite/internal/repository"
	"tlgsite/internal/service"
)

// defaultTags are the news tags every installation starts with.
var defaultTags = []string{
	"Annonce",
	"Événement",
	"Tournoi",
	"Recrutement",
	"Mise à jour",
	"Communauté",
	"Partenariat",
	"Résultat",
	"Classement",
	"Staff",
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()
	if cfg.PocketBaseURL == "" {
		log.Fatal("PB_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := pocketbase.New(cfg.PocketBaseURL, pocketbase.WithTimeout(cfg.PocketBaseTimeout))
	log.Printf("Connecting to %s", cfg.PocketBaseURL)

	// Creating tags usually needs an account allowed by the collection rules.
	if email := os.Getenv("SEED_EMAIL"); email != "" {
		collection := os.Getenv("SEED_AUTH_COLLECTION")
		if collection == "" {
			collection = model.CollectionUsers
		}
		res, err := client.AuthWithPassword(ctx, collection, email, os.Getenv("SEED_PASSWORD"))
		if err != nil {
			log.Fatalf("Failed to sign in as %s: %s", email, pocketbase.Message(err))
		}
		ctx = pocketbase.WithToken(ctx, res.Token)
		log.Printf("Signed in as %s", email)
	}

	handle := pocketbase.Available(client)
	tags := service.NewTagService(repository.NewCollectionRepository(handle, model.CollectionTags), nil, service.NewAuditRecorder(nil))

	created, err := tags.EnsureDefaults(ctx, defaultTags)
	if err != nil {
		log.Fatalf("Seeding tags failed after %d new tags: %v", created, err)
	}
	log.Printf("Seed complete: %d tags created, %d already present", created, len(defaultTags)-created)
}
