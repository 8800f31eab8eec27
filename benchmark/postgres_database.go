package benchmark

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDatabase implements the Database interface for PostgreSQL, storing
// documents in a jsonb column
type PostgresDatabase struct {
	pool       *pgxpool.Pool
	insertStmt string
	readStmt   string
}

// NewPostgresDatabase connects to PostgreSQL, creates the document table if
// needed and truncates it
func NewPostgresDatabase(ctx context.Context, cfg DatabaseConfig) (*PostgresDatabase, error) {
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	table := pgx.Identifier{cfg.Collection}.Sanitize()
	ddl := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id uuid PRIMARY KEY, doc jsonb NOT NULL)", table),
		fmt.Sprintf("TRUNCATE %s", table),
	}
	for _, stmt := range ddl {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &PostgresDatabase{
		pool:       pool,
		insertStmt: fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2)", table),
		readStmt:   fmt.Sprintf("SELECT doc FROM %s WHERE doc->>'name' = $1", table),
	}, nil
}

// Insert implements Database.Insert for PostgreSQL
func (p *PostgresDatabase) Insert(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, p.insertStmt, doc.ID, body)
	return err
}

// Read implements Database.Read for PostgreSQL: fetch every test document
func (p *PostgresDatabase) Read(ctx context.Context) error {
	rows, err := p.pool.Query(ctx, p.readStmt, DocumentName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
	}
	return rows.Err()
}

// Close implements Database.Close for PostgreSQL
func (p *PostgresDatabase) Close() error {
	p.pool.Close()
	return nil
}
