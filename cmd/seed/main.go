package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/dtg-lucifer/sahotsava-be/internal/config"
	sl "github.com/dtg-lucifer/sahotsava-be/internal/lib/logger"
	"github.com/dtg-lucifer/sahotsava-be/internal/seed"
	"github.com/dtg-lucifer/sahotsava-be/internal/storage/postgres"
)

func main() {
	var (
		configPath   = flag.String("config", "./config/config.yaml", "path to config file")
		usersPath    = flag.String("users", "", "path to users csv")
		campusesPath = flag.String("campuses", "", "path to campuses csv")
		eventsPath   = flag.String("events", "", "path to events csv")
	)
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log := slog.New(
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	ctx := context.Background()

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	seeder := seed.New(log, storage)

	if *campusesPath != "" {
		seedCampuses(ctx, log, seeder, *campusesPath)
	}
	if *usersPath != "" {
		seedUsers(ctx, log, seeder, *usersPath)
	}
	if *eventsPath != "" {
		seedEvents(ctx, log, seeder, *eventsPath)
	}

	log.Info("seeding complete")
}

func seedUsers(ctx context.Context, log *slog.Logger, seeder *seed.Seeder, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Error("failed to open users csv", sl.Err(err))
		os.Exit(1)
	}
	defer f.Close()

	users, err := seed.ParseUsers(f)
	if err != nil {
		log.Error("failed to parse users csv", sl.Err(err))
		os.Exit(1)
	}

	if err := seeder.SeedUsers(ctx, users); err != nil {
		log.Error("failed to seed users", sl.Err(err))
		os.Exit(1)
	}
}

func seedCampuses(ctx context.Context, log *slog.Logger, seeder *seed.Seeder, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Error("failed to open campuses csv", sl.Err(err))
		os.Exit(1)
	}
	defer f.Close()

	campuses, err := seed.ParseCampuses(f)
	if err != nil {
		log.Error("failed to parse campuses csv", sl.Err(err))
		os.Exit(1)
	}

	if err := seeder.SeedCampuses(ctx, campuses); err != nil {
		log.Error("failed to seed campuses", sl.Err(err))
		os.Exit(1)
	}
}

func seedEvents(ctx context.Context, log *slog.Logger, seeder *seed.Seeder, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Error("failed to open events csv", sl.Err(err))
		os.Exit(1)
	}
	defer f.Close()

	events, err := seed.ParseEvents(f)
	if err != nil {
		log.Error("failed to parse events csv", sl.Err(err))
		os.Exit(1)
	}

	if err := seeder.SeedEvents(ctx, events); err != nil {
		log.Error("failed to seed events", sl.Err(err))
		os.Exit(1)
	}
}
