package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/hostelbites/api/internal/auth"
	"github.com/hostelbites/api/internal/config"
	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/enum"
	"github.com/hostelbites/api/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultCategories are created when missing, in display order.
var defaultCategories = []struct{ name, key string }{
	{"Snacks", "snacks"},
	{"Meals", "meals"},
	{"Beverages", "beverages"},
	{"Sweets", "sweets"},
	{"Breakfast", "breakfast"},
}

func main() {
	// CLI flags
	email := flag.String("email", "", "Admin email address")
	password := flag.String("password", "", "Admin password")
	name := flag.String("name", "", "Admin display name")
	migrations := flag.String("migrations", "", "Apply migrations from this directory before seeding")
	flag.Parse()

	// Fall back to environment variables, then defaults
	*email = firstNonEmpty(*email, os.Getenv("SEED_EMAIL"), "admin@hostelbites.local")
	*name = firstNonEmpty(*name, os.Getenv("SEED_NAME"), "Canteen Admin")
	*password = firstNonEmpty(*password, os.Getenv("SEED_PASSWORD"))
	if *password == "" {
		*password = "password123"
		logging.Warn().Msg("using default password 'password123'; change it immediately in production")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console"})

	if *migrations != "" {
		if err := runMigrations(*migrations, cfg.Database.URL); err != nil {
			logging.Fatal().Err(err).Msg("run migrations")
		}
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		logging.Fatal().Err(err).Msg("connect to database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logging.Fatal().Err(err).Msg("ping database")
	}

	// Seed in one transaction so a failed run leaves nothing behind
	tx, err := pool.Begin(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("begin transaction")
	}
	defer tx.Rollback(ctx)
	q := database.New(tx)

	adminID, err := seedAdmin(ctx, q, strings.ToLower(strings.TrimSpace(*email)), *password, *name)
	if err != nil {
		logging.Fatal().Err(err).Msg("seed admin")
	}
	if err := seedCategories(ctx, q); err != nil {
		logging.Fatal().Err(err).Msg("seed categories")
	}
	// Null params create the row without touching existing values.
	if _, err := q.UpsertAppSettings(ctx, database.UpsertAppSettingsParams{}); err != nil {
		logging.Fatal().Err(err).Msg("seed settings")
	}

	if err := tx.Commit(ctx); err != nil {
		logging.Fatal().Err(err).Msg("commit")
	}
	logging.Info().Str("admin_id", adminID.String()).Msg("seed completed")
}

func runMigrations(dir, dbURL string) error {
	m, err := migrate.New("file://"+dir, dbURL)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	version, dirty, _ := m.Version()
	logging.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations applied")
	return nil
}

// seedAdmin creates the admin user if the email is not taken.
func seedAdmin(ctx context.Context, q *database.Queries, email, password, name string) (uuid.UUID, error) {
	existing, err := q.GetUserByEmail(ctx, email)
	if err == nil {
		logging.Info().Str("email", email).Str("id", existing.ID.String()).Msg("user already exists, skipping")
		return existing.ID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("check user: %w", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := q.CreateUser(ctx, database.CreateUserParams{
		Email:          email,
		Name:           name,
		HashedPassword: hashed,
		Role:           enum.UserRoleAdmin,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert user: %w", err)
	}
	logging.Info().Str("email", email).Str("id", u.ID.String()).Msg("created admin user")
	return u.ID, nil
}

func seedCategories(ctx context.Context, q *database.Queries) error {
	existing, err := q.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c.Key] = true
	}

	for i, c := range defaultCategories {
		if have[c.key] {
			continue
		}
		if _, err := q.CreateCategory(ctx, database.CreateCategoryParams{
			Name:      c.name,
			Key:       c.key,
			SortOrder: int32(i),
		}); err != nil {
			return fmt.Errorf("insert category %s: %w", c.key, err)
		}
		logging.Info().Str("key", c.key).Msg("created category")
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
