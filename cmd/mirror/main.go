// cmd/mirror/main.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/deskagent/internal/config"
	"github.com/unclebandit/deskagent/internal/db"
	"github.com/unclebandit/deskagent/internal/logging"
	"github.com/unclebandit/deskagent/internal/repository"
)

// Copies every campaign in the CSV store into the Postgres reporting table.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Configure(cfg.LogLevel)

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatal(err)
	}
	defer conn.Close()

	campaigns, err := repository.NewCampaignRepository(cfg.CSVPath).Load()
	if err != nil {
		logrus.Fatalf("Failed to load campaigns from %s: %v", cfg.CSVPath, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	mirror := &repository.MirrorRepository{DB: conn}
	if err := mirror.EnsureTable(ctx); err != nil {
		logrus.Fatal(err)
	}

	n, err := mirror.Sync(ctx, campaigns)
	if err != nil {
		logrus.Fatalf("Mirror stopped after %d campaign(s): %v", n, err)
	}
	fmt.Printf("Mirrored %d campaign(s) from %s\n", n, cfg.CSVPath)
}
