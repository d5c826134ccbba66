package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cradoe/onboard/assets"
	"github.com/cradoe/onboard/internal/progress"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

const defaultTimeout = 3 * time.Second

// Postgres stores progress records in a single key/value table.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres initializes a database connection and runs migrations if enabled
func NewPostgres(dsn string, automigrate bool) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if automigrate {
		if err := Migrate("postgres://" + dsn); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Postgres{db: db}, nil
}

// Migrate applies the embedded migrations to the database at url.
func Migrate(url string) error {
	iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, url)
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte

	query := `SELECT value FROM onboarding_records WHERE key = $1`

	err := p.db.GetContext(ctx, &value, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, progress.ErrMissing
	}

	return value, err
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO onboarding_records (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()`

	_, err := p.db.ExecContext(ctx, query, key, value)
	return err
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM onboarding_records WHERE key = $1`

	_, err := p.db.ExecContext(ctx, query, key)
	return err
}

func (p *Postgres) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool

	query := `SELECT EXISTS(SELECT 1 FROM onboarding_records WHERE key = $1)`

	err := p.db.GetContext(ctx, &exists, query, key)
	return exists, err
}
