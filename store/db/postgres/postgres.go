// Package postgres implements the store driver on PostgreSQL with pgvector.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/scorelens/internal/profile"
	"github.com/hrygo/scorelens/store"
)

// DB is the postgres implementation of store.Driver.
type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a postgres connection for the given profile.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres connection")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping postgres")
	}

	driver := &DB{db: db, profile: profile}
	if err := driver.migrate(context.Background()); err != nil {
		return nil, errors.Wrap(err, "failed to migrate schema")
	}
	return driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// migrate applies the schema idempotently. The embedding column dimension
// follows the configured profile.
func (d *DB) migrate(ctx context.Context) error {
	dim := d.profile.EmbeddingDimensions
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS scored_answer (
			id BIGSERIAL PRIMARY KEY,
			case_id TEXT NOT NULL,
			response_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer_text TEXT NOT NULL DEFAULT '',
			problem_statement TEXT NOT NULL DEFAULT '',
			solution_proposal TEXT NOT NULL DEFAULT '',
			lessons_learned TEXT NOT NULL DEFAULT '',
			scores JSONB NOT NULL,
			comment TEXT NOT NULL DEFAULT '',
			created_ts BIGINT NOT NULL,
			UNIQUE (case_id, response_id, question)
		)`,
		`CREATE TABLE IF NOT EXISTS embedding_job (
			id BIGSERIAL PRIMARY KEY,
			case_id TEXT NOT NULL,
			response_id TEXT NOT NULL,
			question TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			attempts INT NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT '',
			created_ts BIGINT NOT NULL,
			updated_ts BIGINT NOT NULL,
			UNIQUE (case_id, response_id, question)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS response_embedding (
			id BIGSERIAL PRIMARY KEY,
			case_id TEXT NOT NULL,
			response_id TEXT NOT NULL,
			question TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			model TEXT NOT NULL,
			source_score DOUBLE PRECISION NOT NULL,
			score_bucket INT NOT NULL,
			created_ts BIGINT NOT NULL,
			updated_ts BIGINT NOT NULL,
			UNIQUE (case_id, response_id, question)
		)`, dim),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS cluster_exemplar (
			id BIGSERIAL PRIMARY KEY,
			case_id TEXT NOT NULL,
			question TEXT NOT NULL,
			score_bucket INT NOT NULL,
			cluster_id INT NOT NULL,
			cluster_size INT NOT NULL,
			centroid vector(%d) NOT NULL,
			response_id TEXT NOT NULL,
			distance_to_centroid DOUBLE PRECISION NOT NULL,
			model TEXT NOT NULL,
			created_ts BIGINT NOT NULL,
			UNIQUE (case_id, question, score_bucket, cluster_id)
		)`, dim),
		`CREATE INDEX IF NOT EXISTS idx_embedding_job_status ON embedding_job (status, created_ts)`,
		`CREATE INDEX IF NOT EXISTS idx_response_embedding_scope ON response_embedding (case_id, question, score_bucket)`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute migration statement")
		}
	}
	return nil
}

// placeholder returns the n-th positional placeholder ($n).
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns "$1, $2, ..., $n".
func placeholders(n int) string {
	list := make([]byte, 0, n*4)
	for i := 1; i <= n; i++ {
		if i > 1 {
			list = append(list, ", "...)
		}
		list = append(list, placeholder(i)...)
	}
	return string(list)
}
