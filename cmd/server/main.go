package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kizunavi/kizunavi/internal/api"
	"github.com/kizunavi/kizunavi/internal/config"
	"github.com/kizunavi/kizunavi/internal/db"
	"github.com/kizunavi/kizunavi/internal/logging"
	"github.com/kizunavi/kizunavi/internal/models"
	"github.com/kizunavi/kizunavi/internal/services"
	"github.com/kizunavi/kizunavi/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogPretty)

	var st store.Store
	if cfg.InMemory() {
		logger.Warn().Msg("no sqlite path configured, running with in-memory storage")
		mem := store.NewMemoryStore()
		mem.SeedQuestions(services.DefaultQuestions())
		st = mem
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			logger.Fatal().Err(err).Msg("create data directory")
		}
		dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(cfg.SQLitePath))
		sqliteDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			logger.Fatal().Err(err).Msg("open sqlite")
		}
		defer sqliteDB.Close()
		if err := db.RunMigrations(sqliteDB); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
		sq, err := db.NewSQLiteStore(sqliteDB)
		if err != nil {
			logger.Fatal().Err(err).Msg("init sqlite store")
		}
		sq.SeedQuestions(services.DefaultQuestions())
		st = sq
	}

	if cfg.SeedDemo {
		if err := seedDemo(st); err != nil {
			logger.Warn().Err(err).Msg("seed demo data")
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.New(st, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info().Str("addr", cfg.Addr).Msg("kizunavi server listening")
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

// seedDemo provisions one demo company and three accounts so a fresh
// environment is immediately usable. Safe to run repeatedly; duplicate
// accounts are skipped.
func seedDemo(st store.Store) error {
	auth := services.NewAuthService(st, nil)
	companies := services.NewCompanyService(st)
	if len(companies.List()) > 0 {
		return nil
	}

	c, err := companies.Register(services.CompanyRegistration{
		Name:  "株式会社デモ",
		Email: "demo@example.co.jp",
	})
	if err != nil {
		return err
	}
	seed := []struct {
		email string
		role  models.Role
	}{
		{"master@kizunavi.jp", models.RoleMaster},
		{"admin@example.co.jp", models.RoleAdmin},
		{"member@example.co.jp", models.RoleMember},
	}
	for _, s := range seed {
		if _, err := auth.Register(s.email, "password123", c.ID, s.role); err != nil && !services.IsCode(err, services.ErrorConflict) {
			return err
		}
	}
	return nil
}
