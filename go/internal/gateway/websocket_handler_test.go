package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireMessage struct {
	Type           MessageType `json:"type"`
	TargetCurve    []float64   `json:"targetCurve"`
	ToleranceCurve []float64   `json:"toleranceCurve"`
	Difficulty     string      `json:"difficulty"`
	Seed           int         `json:"seed"`
	Duration       int         `json:"duration"`
	TickNumber     int         `json:"tickNumber"`
	Actual         float64     `json:"actual"`
	TotalScore     float64     `json:"totalScore"`
	Score          float64     `json:"score"`
}

func newTestServer(t *testing.T, sink *fakeSink) (*httptest.Server, *Service) {
	t.Helper()

	config := DefaultConfig()
	config.SessionConfig = testSessionConfig()
	svc := NewService(config, flatLookup{target: 100}, newFakeFeed(100), sink)

	r := chi.NewRouter()
	svc.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, svc.Stop(ctx))
		srv.Close()
	})
	return srv, svc
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocket_PlaysFullGame(t *testing.T) {
	sink := &fakeSink{}
	srv, _ := newTestServer(t, sink)
	conn := dial(t, srv, "/ws/game/ada%20lovelace/hard")

	initMsg := readMessage(t, conn)
	require.Equal(t, MessageTypeInit, initMsg.Type)
	assert.Equal(t, "Hard", initMsg.Difficulty)
	assert.Equal(t, 30, initMsg.Duration)
	assert.Len(t, initMsg.TargetCurve, 30)
	require.Len(t, initMsg.ToleranceCurve, 30)
	assert.Equal(t, 6.0, initMsg.ToleranceCurve[0])
	assert.GreaterOrEqual(t, initMsg.Seed, 1000)
	assert.LessOrEqual(t, initMsg.Seed, 9999)

	// Malformed and unexpected messages are skipped
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "hello"}))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "start"}))

	for i := 0; i < 30; i++ {
		tick := readMessage(t, conn)
		require.Equal(t, MessageTypeTick, tick.Type)
		assert.Equal(t, i, tick.TickNumber)
		assert.Equal(t, 100.0, tick.Actual)
	}

	end := readMessage(t, conn)
	require.Equal(t, MessageTypeEnd, end.Type)
	assert.Equal(t, 4500.0, end.Score)

	require.Eventually(t, func() bool { return len(sink.Records()) == 1 }, 5*time.Second, 10*time.Millisecond)
	record := sink.Records()[0]
	assert.Equal(t, "ada lovelace", record.Name)
	assert.Equal(t, "Hard", record.Difficulty)
	assert.Equal(t, 4500.0, record.Score)
	assert.Equal(t, initMsg.Seed, record.Seed)
}

func TestWebSocket_DisconnectBeforeStart(t *testing.T) {
	sink := &fakeSink{}
	srv, svc := newTestServer(t, sink)
	conn := dial(t, srv, "/ws/game/ada/easy")

	readMessage(t, conn)
	require.Equal(t, 1, svc.Stats().TotalConnections)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return svc.Stats().TotalConnections == 0 }, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, sink.Calls())
}

func TestWebSocket_StopClosesConnections(t *testing.T) {
	sink := &fakeSink{}
	srv, svc := newTestServer(t, sink)
	conn := dial(t, srv, "/ws/game/ada/medium")
	readMessage(t, conn)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Zero(t, sink.Calls())
}

func TestWebSocket_RefusesGamesAfterStop(t *testing.T) {
	srv, svc := newTestServer(t, &fakeSink{})
	require.NoError(t, svc.Stop(context.Background()))

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/game/ada/easy"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWebSocket_Stats(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSink{})

	resp, err := http.Get(srv.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats ConnectionStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, ConnectionStats{}, stats)
}

func TestWebSocket_PlainHTTPIsRejected(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSink{})

	resp, err := http.Get(srv.URL + "/ws/game/ada/easy")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
