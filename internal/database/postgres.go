package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type PgStudyLoungeRepository struct {
	conn *sql.DB
}

func NewPgStudyLoungeRepository(dsn string) (*PgStudyLoungeRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgStudyLoungeRepository{conn: db}, nil
}

func (db *PgStudyLoungeRepository) Ping() error {
	return db.conn.Ping()
}

// Migrate applies any pending schema migrations from sourceURL,
// e.g. "file://internal/database/migrations".
func (db *PgStudyLoungeRepository) Migrate(sourceURL string) error {
	driver, err := postgres.WithInstance(db.conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

func (db *PgStudyLoungeRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
