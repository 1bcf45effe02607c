package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mcdev12/powermatch/go/internal/config"
	"github.com/mcdev12/powermatch/go/internal/curves"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "scores.db"))
	t.Setenv("STORE_DRIVER", "sqlite")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestSetupServer_Routes(t *testing.T) {
	cfg := testConfig(t)

	repo, closeStore, err := openStore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(closeStore)

	curveStore, err := curves.Default()
	require.NoError(t, err)

	services := setupServices(cfg, curveStore, repo)
	srv := httptest.NewServer(setupServer(cfg, services).Handler)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/highscores")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The adapter was never started, so the feed is down
	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var status map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, true, status["database_connected"])
	assert.Equal(t, false, status["nats_connected"])

	resp, err = http.Get(srv.URL + "/ws/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoadCurves(t *testing.T) {
	cfg := testConfig(t)

	store, err := loadCurves(cfg)
	require.NoError(t, err)
	target, _ := store.Lookup(curves.Easy)
	assert.Len(t, target, curves.Length)

	cfg.CurvesPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = loadCurves(cfg)
	assert.Error(t, err)
}
