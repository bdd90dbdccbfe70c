package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// PostgresStorage keeps both scopes in a single jsonb table.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := newPostgresStorage(db, logger)
	if err := storage.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	logger.Info("PostgreSQL storage ready",
		zap.String("host", config.Host),
		zap.String("dbname", config.DBName))
	return storage, nil
}

func newPostgresStorage(db *sql.DB, logger *zap.Logger) *PostgresStorage {
	return &PostgresStorage{db: db, logger: logger}
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err = s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (s *PostgresStorage) Get(ctx context.Context, scope Scope, keys ...string) (map[string]json.RawMessage, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	result := make(map[string]json.RawMessage, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	query := `
		SELECT key, value
		FROM kv_store
		WHERE scope = $1 AND key = ANY($2)`

	rows, err := s.db.QueryContext(ctx, query, string(scope), pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("error querying %s scope: %w", scope, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   string
			value []byte
		)
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("error scanning %s scope: %w", scope, err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s scope: %w", scope, err)
	}
	return result, nil
}

func (s *PostgresStorage) Set(ctx context.Context, scope Scope, values map[string]any) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	keys, encoded, err := encodeValues(values)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	query := `
		INSERT INTO kv_store (scope, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (scope, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, query, string(scope), key, string(encoded[key])); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Warn("Rollback failed", zap.Error(rbErr))
			}
			return fmt.Errorf("error writing %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing %s scope: %w", scope, err)
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
