package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ err error }

func (m mockStore) Ping(context.Context) error { return m.err }

type mockFeed struct {
	connected bool
	queued    int
}

func (m mockFeed) Connected() bool { return m.connected }
func (m mockFeed) Queued() int     { return m.queued }

type mockStreams int

func (m mockStreams) ActiveStreams() int { return int(m) }

func TestChecker(t *testing.T) {
	tests := []struct {
		name       string
		store      mockStore
		feed       mockFeed
		streams    mockStreams
		wantStatus int
		wantErrors int
	}{
		{
			name:       "all healthy",
			feed:       mockFeed{connected: true, queued: 3},
			streams:    1,
			wantStatus: http.StatusOK,
		},
		{
			name:       "database down",
			store:      mockStore{err: errors.New("locked")},
			feed:       mockFeed{connected: true},
			wantStatus: http.StatusServiceUnavailable,
			wantErrors: 1,
		},
		{
			name:       "nats down",
			feed:       mockFeed{},
			wantStatus: http.StatusServiceUnavailable,
			wantErrors: 1,
		},
		{
			name:       "shared feed is reported but healthy",
			feed:       mockFeed{connected: true},
			streams:    2,
			wantStatus: http.StatusOK,
			wantErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(tt.store, tt.feed, tt.streams)

			rec := httptest.NewRecorder()
			checker.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var status Status
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
			assert.Equal(t, tt.wantStatus == http.StatusOK, status.Healthy)
			assert.Len(t, status.Errors, tt.wantErrors)
			assert.Equal(t, tt.feed.queued, status.QueuedSamples)
			assert.Equal(t, int(tt.streams), status.ActiveStreams)
			assert.Equal(t, tt.store.err == nil, status.DatabaseConnected)
			assert.Equal(t, tt.feed.connected, status.NATSConnected)
		})
	}
}
