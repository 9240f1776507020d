package db

import (
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE COLLATE NOCASE,
		company_id TEXT NOT NULL DEFAULT '',
		role       TEXT NOT NULL,
		pass_hash  BLOB,
		profile    TEXT,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id       TEXT PRIMARY KEY,
		text     TEXT NOT NULL,
		type     TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		note     TEXT NOT NULL DEFAULT '',
		ord      INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS surveys (
		id                    TEXT PRIMARY KEY,
		title                 TEXT NOT NULL,
		company_id            TEXT NOT NULL,
		deadline              TIMESTAMP,
		status                TEXT NOT NULL,
		target_employee_count INTEGER NOT NULL DEFAULT 0,
		implementation_date   TIMESTAMP,
		questions             TEXT NOT NULL,
		created_at            TIMESTAMP NOT NULL,
		published_at          TIMESTAMP,
		completed_at          TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_surveys_company ON surveys(company_id)`,
	`CREATE TABLE IF NOT EXISTS access_tokens (
		token       TEXT PRIMARY KEY,
		survey_id   TEXT NOT NULL,
		employee_id TEXT NOT NULL DEFAULT '',
		used        INTEGER NOT NULL DEFAULT 0,
		created_at  TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS survey_responses (
		id           TEXT PRIMARY KEY,
		survey_id    TEXT NOT NULL,
		employee_id  TEXT NOT NULL DEFAULT '',
		answers      TEXT NOT NULL,
		submitted_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_responses_survey ON survey_responses(survey_id)`,
	`CREATE TABLE IF NOT EXISTS companies (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		name_kana        TEXT NOT NULL DEFAULT '',
		address          TEXT NOT NULL DEFAULT '',
		postal_code      TEXT NOT NULL DEFAULT '',
		industry         TEXT NOT NULL DEFAULT '',
		phone_number     TEXT NOT NULL DEFAULT '',
		email            TEXT NOT NULL,
		contract_model   TEXT NOT NULL DEFAULT '',
		contract_date    TEXT NOT NULL DEFAULT '',
		payment_cycle    TEXT NOT NULL DEFAULT '',
		sales_person_ids TEXT NOT NULL DEFAULT '[]',
		created_at       TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id         TEXT PRIMARY KEY,
		email      TEXT NOT NULL,
		name       TEXT NOT NULL,
		company_id TEXT NOT NULL,
		id_type    TEXT NOT NULL DEFAULT '',
		profile    TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_employees_company ON employees(company_id)`,
}

// RunMigrations applies the schema. Statements are idempotent so running on
// an existing database is safe.
func RunMigrations(db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration %d: %w", i, err)
		}
	}
	return nil
}
