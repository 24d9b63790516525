// Package postgres keeps the leaderboard in a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"

	"github.com/mcoot/mlctf/internal/leaderboard"
	"github.com/mcoot/mlctf/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	insertQuery = `INSERT INTO ctf_completions
	(id, user_name, email, completed_at, flags_collected, completion_time_seconds)
	VALUES ($1, $2, $3, $4, $5, $6)`

	topQuery = `SELECT id, user_name, email, completed_at, flags_collected, completion_time_seconds
	FROM ctf_completions
	ORDER BY completion_time_seconds ASC, completed_at ASC, id ASC
	LIMIT $1`
)

// Store implements leaderboard.Store against PostgreSQL
type Store struct {
	db *sql.DB
}

var _ leaderboard.Store = (*Store)(nil)

// New opens the database at url, sizes the pool and applies migrations
func New(url string) (*Store, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an already migrated handle
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, record *model.CompletionRecord) error {
	_, err := s.db.ExecContext(ctx, insertQuery,
		record.ID,
		record.Name,
		record.Email,
		record.CompletedAt.UTC(),
		pq.Array(flagStrings(record.Flags)),
		record.ElapsedSeconds,
	)
	if err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

func (s *Store) Top(ctx context.Context, n int) ([]*model.CompletionRecord, error) {
	rows, err := s.db.QueryContext(ctx, topQuery, n)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	records := []*model.CompletionRecord{}
	for rows.Next() {
		var (
			rec   model.CompletionRecord
			flags []string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Name,
			&rec.Email,
			&rec.CompletedAt,
			pq.Array(&flags),
			&rec.ElapsedSeconds,
		); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		rec.Flags = make([]model.Flag, len(flags))
		for i, f := range flags {
			rec.Flags[i] = model.Flag(f)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return records, nil
}

func flagStrings(flags []model.Flag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}
	return out
}
