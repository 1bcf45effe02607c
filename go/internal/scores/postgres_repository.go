package scores

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/powermatch/go/internal/models"
)

// Querier defines what the repository needs from the Postgres pool.
// *pgxpool.Pool satisfies it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

const (
	insertScoreSQL = `
		INSERT INTO scores (id, name, score, difficulty, seed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	topScoresSQL = `
		SELECT id::text, name, score, difficulty, seed, created_at
		FROM scores
		ORDER BY score DESC, created_at ASC
		LIMIT $1`

	topScoresSinceSQL = `
		SELECT id::text, name, score, difficulty, seed, created_at
		FROM scores
		WHERE created_at >= $1
		ORDER BY score DESC, created_at ASC
		LIMIT $2`
)

// PostgresRepository implements score data access on Postgres
type PostgresRepository struct {
	queries Querier
}

// NewPostgresRepository creates a new Postgres scores repository
func NewPostgresRepository(querier Querier) *PostgresRepository {
	return &PostgresRepository{
		queries: querier,
	}
}

// OpenPostgres connects a pgx pool and verifies the connection
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// Ping checks the database connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.queries.Ping(ctx)
}

// InsertScore appends a score record
func (r *PostgresRepository) InsertScore(ctx context.Context, record models.ScoreRecord) error {
	_, err := r.queries.Exec(ctx, insertScoreSQL,
		record.ID.String(), record.Name, record.Score, record.Difficulty, record.Seed, record.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

// TopScores returns the highest scores of all time
func (r *PostgresRepository) TopScores(ctx context.Context, limit int) ([]models.ScoreRecord, error) {
	rows, err := r.queries.Query(ctx, topScoresSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top scores: %w", err)
	}
	return collectScores(rows)
}

// TopScoresSince returns the highest scores recorded at or after since
func (r *PostgresRepository) TopScoresSince(ctx context.Context, since time.Time, limit int) ([]models.ScoreRecord, error) {
	rows, err := r.queries.Query(ctx, topScoresSinceSQL, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent top scores: %w", err)
	}
	return collectScores(rows)
}

func collectScores(rows pgx.Rows) ([]models.ScoreRecord, error) {
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ScoreRecord, error) {
		var (
			rec models.ScoreRecord
			id  string
		)
		if err := row.Scan(&id, &rec.Name, &rec.Score, &rec.Difficulty, &rec.Seed, &rec.Timestamp); err != nil {
			return rec, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return rec, fmt.Errorf("invalid score id %q: %w", id, err)
		}
		rec.ID = parsed
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan scores: %w", err)
	}
	return records, nil
}
