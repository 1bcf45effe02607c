package scores

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/powermatch/go/internal/models"
	"github.com/mcdev12/powermatch/go/internal/sqlutil"

	_ "modernc.org/sqlite" // SQLite driver.
)

//go:embed schema/sqlite.sql
var sqliteSchema string

// SQLiteRepository implements score data access on a local SQLite file.
// Timestamps are stored as unix nanoseconds so range filters compare
// numerically.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and applies the schema
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = sqlutil.Run(ctx, db, func(tx *sql.Tx) error {
		return sqlutil.ExecScript(ctx, tx, sqliteSchema)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the underlying database
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ping checks the database connection
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// InsertScore appends a score record
func (r *SQLiteRepository) InsertScore(ctx context.Context, record models.ScoreRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scores (id, name, score, difficulty, seed, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID.String(), record.Name, record.Score, record.Difficulty, record.Seed, record.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

// TopScores returns the highest scores of all time
func (r *SQLiteRepository) TopScores(ctx context.Context, limit int) ([]models.ScoreRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, score, difficulty, seed, created_at
		 FROM scores
		 ORDER BY score DESC, created_at ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top scores: %w", err)
	}
	return scanSQLiteScores(rows)
}

// TopScoresSince returns the highest scores recorded at or after since
func (r *SQLiteRepository) TopScoresSince(ctx context.Context, since time.Time, limit int) ([]models.ScoreRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, score, difficulty, seed, created_at
		 FROM scores
		 WHERE created_at >= ?
		 ORDER BY score DESC, created_at ASC
		 LIMIT ?`, since.UnixNano(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent top scores: %w", err)
	}
	return scanSQLiteScores(rows)
}

func scanSQLiteScores(rows *sql.Rows) ([]models.ScoreRecord, error) {
	defer rows.Close()

	var records []models.ScoreRecord
	for rows.Next() {
		var (
			rec       models.ScoreRecord
			id        string
			createdAt int64
		)
		if err := rows.Scan(&id, &rec.Name, &rec.Score, &rec.Difficulty, &rec.Seed, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid score id %q: %w", id, err)
		}
		rec.ID = parsed
		rec.Timestamp = time.Unix(0, createdAt).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scores: %w", err)
	}
	return records, nil
}
