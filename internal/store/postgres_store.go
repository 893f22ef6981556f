package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/deskhub-app/deskhub/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultDBMaxOpenConns    = 10
	defaultDBMaxIdleConns    = 5
	defaultDBConnMaxLifetime = 30 * time.Minute
	defaultDBQueryTimeout    = 5 * time.Second
)

// postgresFactory keeps every document in a single documents table keyed by
// concern name, mirroring the one-file-per-concern layout of the file driver.
type postgresFactory struct {
	db *sql.DB
}

func NewPostgresFactory(dsn string) (Factory, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, domain.InvalidArgument("DATABASE_URL is required when STORE_DRIVER=postgres")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, domain.Internal("failed to open postgres connection", err)
	}
	db.SetMaxOpenConns(defaultDBMaxOpenConns)
	db.SetMaxIdleConns(defaultDBMaxIdleConns)
	db.SetConnMaxLifetime(defaultDBConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), defaultDBQueryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, domain.Internal("failed to connect to postgres", err)
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			name TEXT PRIMARY KEY,
			content JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, domain.Internal("failed to ensure documents table", err)
	}

	return &postgresFactory{db: db}, nil
}

func (f *postgresFactory) Backend(name string) Backend {
	return &postgresBackend{db: f.db, name: name}
}

func (f *postgresFactory) Close() error {
	if f.db == nil {
		return nil
	}
	return f.db.Close()
}

type postgresBackend struct {
	db   *sql.DB
	name string
}

func (b *postgresBackend) Load() ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultDBQueryTimeout)
	defer cancel()

	var raw []byte
	err := b.db.QueryRowContext(ctx, `SELECT content FROM documents WHERE name = $1`, b.name).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, domain.Internal("failed to load document", err)
	}
	return raw, true, nil
}

func (b *postgresBackend) Save(raw []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultDBQueryTimeout)
	defer cancel()

	_, err := b.db.ExecContext(ctx, `
		INSERT INTO documents (name, content, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at
	`, b.name, raw, time.Now().UTC())
	if err != nil {
		return domain.Internal("failed to save document", err)
	}
	return nil
}

func (b *postgresBackend) Close() error {
	// The factory owns the shared connection pool.
	return nil
}
