package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/angelmondragon/fitcoach-backend/pkg/config"
	"github.com/angelmondragon/fitcoach-backend/pkg/db"
	"github.com/angelmondragon/fitcoach-backend/pkg/env"
	"github.com/angelmondragon/fitcoach-backend/pkg/logger"
	"github.com/angelmondragon/fitcoach-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load(env.Files()...)

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")

	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")

	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
		"dir": *dir,
	})

	switch *cmd {
	case "create":
		if *name == "" {
			fmt.Fprintln(os.Stderr, "missing -name for create")
			os.Exit(1)
		}
		logg.Info(ctx, "migrate ready")
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		logg.Info(ctx, "migrate ready")
		if err := migrate.ValidateDir(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	// goose migrations are Postgres SQL; sqlite schemas come from the models.
	if cfg.FeatureFlags.UseSQLite {
		if *cmd != "up" {
			fmt.Fprintln(os.Stderr, "sqlite databases only support -cmd=up")
			os.Exit(1)
		}
		requireResource(ctx, logg, "sqlite schema", dbClient.AutoMigrate(ctx))
		fmt.Println("sqlite schema migrated from models")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	runner, err := migrate.NewRunner(sqlDB, migrationsFS(*dir), logg)
	requireResource(ctx, logg, "goose provider", err)

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up":
		exitOnError("goose up", runner.Up(ctx))

	case "down":
		exitOnError("goose down", runner.Down(ctx))

	case "status":
		rows, err := runner.Status(ctx)
		exitOnError("goose status", err)
		for _, row := range rows {
			state := "pending"
			if row.Applied {
				state = "applied " + row.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%d\t%s\t%s\n", row.Version, row.Path, state)
		}

	case "version":
		target, err := strconv.ParseInt(*version, 10, 64)
		if err != nil || target < 0 {
			fmt.Fprintln(os.Stderr, "-version must be a migration version (YYYYMMDDHHMMSS)")
			os.Exit(1)
		}
		exitOnError("goose version migrate", runner.To(ctx, target))

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
}

// migrationsFS reads from disk when -dir points somewhere other than the
// checkout default, otherwise it uses the migrations built into the binary.
func migrationsFS(dir string) fs.FS {
	if dir == "" || dir == migrate.DefaultDir {
		return migrate.Embedded()
	}
	return os.DirFS(dir)
}

func exitOnError(op string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s failed: %v\n", op, err)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
