package scores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/powermatch/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "scores.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func record(name string, score float64, at time.Time) models.ScoreRecord {
	return models.ScoreRecord{
		ID:         uuid.New(),
		Name:       name,
		Score:      score,
		Difficulty: "Medium",
		Seed:       1234,
		Timestamp:  at,
	}
}

func TestSQLiteRepository_RoundTrip(t *testing.T) {
	repo := openTestSQLite(t)
	ctx := context.Background()

	in := record("ada", 2718.2, fixedNow)
	require.NoError(t, repo.InsertScore(ctx, in))

	got, err := repo.TopScores(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, in.ID, got[0].ID)
	assert.Equal(t, "ada", got[0].Name)
	assert.Equal(t, 2718.2, got[0].Score)
	assert.Equal(t, "Medium", got[0].Difficulty)
	assert.Equal(t, 1234, got[0].Seed)
	assert.True(t, in.Timestamp.Equal(got[0].Timestamp))
}

func TestSQLiteRepository_TopScoresOrderAndLimit(t *testing.T) {
	repo := openTestSQLite(t)
	ctx := context.Background()

	scores := []float64{10, 50, 30, 70, 20, 60, 40}
	for i, s := range scores {
		require.NoError(t, repo.InsertScore(ctx, record("p", s, fixedNow.Add(time.Duration(i)*time.Minute))))
	}

	got, err := repo.TopScores(ctx, LeaderboardSize)
	require.NoError(t, err)
	require.Len(t, got, LeaderboardSize)

	var values []float64
	for _, r := range got {
		values = append(values, r.Score)
	}
	assert.Equal(t, []float64{70, 60, 50, 40, 30}, values)
}

func TestSQLiteRepository_TiesPreferEarlier(t *testing.T) {
	repo := openTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertScore(ctx, record("late", 100, fixedNow)))
	require.NoError(t, repo.InsertScore(ctx, record("early", 100, fixedNow.Add(-time.Minute))))

	got, err := repo.TopScores(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "early", got[0].Name)
	assert.Equal(t, "late", got[1].Name)
}

func TestSQLiteRepository_TopScoresSince(t *testing.T) {
	repo := openTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertScore(ctx, record("old", 900, fixedNow.Add(-25*time.Hour))))
	require.NoError(t, repo.InsertScore(ctx, record("edge", 500, fixedNow.Add(-24*time.Hour))))
	require.NoError(t, repo.InsertScore(ctx, record("new", 100, fixedNow.Add(-time.Hour))))

	got, err := repo.TopScoresSince(ctx, fixedNow.Add(-RecentWindow), 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "edge", got[0].Name)
	assert.Equal(t, "new", got[1].Name)
}

func TestSQLiteRepository_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.db")
	ctx := context.Background()

	repo, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, repo.InsertScore(ctx, record("ada", 42, fixedNow)))
	require.NoError(t, repo.Close())

	repo, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.TopScores(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ada", got[0].Name)
}

func TestLeaderboard_OverSQLite(t *testing.T) {
	repo := openTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertScore(ctx, record("yesterday", 4000, fixedNow.Add(-30*time.Hour))))
	require.NoError(t, repo.InsertScore(ctx, record("today", 1234.567, fixedNow.Add(-2*time.Hour))))

	app := NewApp(repo, clockworkAt(fixedNow))
	board, err := app.Leaderboard(ctx)
	require.NoError(t, err)

	require.Len(t, board.AllTime, 2)
	assert.Equal(t, "yesterday", board.AllTime[0].Name)
	require.Len(t, board.Recent, 1)
	assert.Equal(t, "today", board.Recent[0].Name)
	assert.Equal(t, 1234.57, board.Recent[0].Score)
}
