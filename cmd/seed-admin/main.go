package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/fitcoach-backend/internal/admin"
	"github.com/angelmondragon/fitcoach-backend/pkg/config"
	"github.com/angelmondragon/fitcoach-backend/pkg/db"
	"github.com/angelmondragon/fitcoach-backend/pkg/db/models"
	"github.com/angelmondragon/fitcoach-backend/pkg/env"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/angelmondragon/fitcoach-backend/pkg/security"
)

const tempPasswordLength = 20

// seed-admin creates one row in admin_users. Without -password a temporary
// password is generated and printed once.
func main() {
	logg := logger.New(logger.Options{ServiceName: "seed-admin"})
	_ = godotenv.Load(env.Files()...)

	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "admin password; generated when empty")
	flag.Parse()

	ctx := context.Background()
	normalized := strings.ToLower(strings.TrimSpace(*email))
	if normalized == "" {
		fmt.Fprintln(os.Stderr, "missing -email")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	repo := admin.NewRepository(dbClient.DB())
	existing, err := repo.FindByEmail(ctx, normalized)
	if err != nil {
		logg.Error(ctx, "failed to look up admin", err)
		os.Exit(1)
	}
	if existing != nil {
		fmt.Fprintf(os.Stderr, "admin %s already exists\n", normalized)
		os.Exit(1)
	}

	secret := *password
	generated := secret == ""
	if generated {
		if secret, err = security.GenerateTempPassword(tempPasswordLength); err != nil {
			logg.Error(ctx, "failed to generate password", err)
			os.Exit(1)
		}
	}

	hash, err := security.HashPassword(secret, cfg.Password)
	if err != nil {
		logg.Error(ctx, "failed to hash password", err)
		os.Exit(1)
	}

	record := &models.AdminUser{Email: normalized, PasswordHash: hash, IsActive: true}
	if err := repo.Create(ctx, record); err != nil {
		logg.Error(ctx, "failed to create admin", err)
		os.Exit(1)
	}

	fmt.Printf("created admin %s (%s)\n", record.Email, record.ID)
	if generated {
		fmt.Printf("temporary password: %s\n", secret)
	}
}
