package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/mcdev12/powermatch/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintLeaderboard(t *testing.T) {
	board := &models.Leaderboard{
		AllTime: []models.LeaderboardEntry{
			{Name: "ada", Score: 4500, Difficulty: "Hard", Timestamp: time.Now()},
			{Name: "bob", Score: 123.45, Difficulty: "Easy", Timestamp: time.Now()},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, printLeaderboard(&buf, board))

	out := buf.String()
	assert.Contains(t, out, "All time")
	assert.Contains(t, out, "4500.00")
	assert.Contains(t, out, "123.45")
	assert.Contains(t, out, "Last 24 hours")
	assert.Contains(t, out, "(no scores yet)")
}

func TestLeaderboardCommand_SQLite(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", t.TempDir()+"/scores.db")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"leaderboard", "--json", "--env-file", t.TempDir() + "/none.env"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"alltime": []`)
	assert.Contains(t, out.String(), `"recent": []`)
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmd := newRootCommand()

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.True(t, names["leaderboard"])
}
