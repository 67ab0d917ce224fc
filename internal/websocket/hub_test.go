package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oinktech/StockAPI/internal/pipeline"
	"github.com/oinktech/StockAPI/internal/shared/testutil"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testutil.DiscardLogger())
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_BroadcastsProgress(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(Handler(hub, Options{}, testutil.DiscardLogger()))
	defer srv.Close()

	conn := dial(t, srv)

	hello := readMessage(t, conn)
	assert.Equal(t, TypeConnection, hello.Type)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Report(context.Background(), pipeline.Progress{RunID: "r1", Stage: pipeline.StageFetch, Ticker: "2330.TW", Done: 1, Total: 3})

	msg := readMessage(t, conn)
	assert.Equal(t, TypeProgress, msg.Type)
	data := msg.Data.(map[string]interface{})
	assert.Equal(t, "r1", data["run_id"])
	assert.Equal(t, "fetch", data["stage"])
	assert.Equal(t, "2330.TW", data["ticker"])
	assert.Equal(t, float64(3), data["total"])
}

func TestHub_UnregistersClosedClients(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(Handler(hub, Options{}, testutil.DiscardLogger()))
	defer srv.Close()

	conn := dial(t, srv)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(1), hub.Stats()["total_connections"])
}

func TestHub_ReportWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(testutil.DiscardLogger())

	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer*2; i++ {
			hub.Report(context.Background(), pipeline.Progress{Stage: pipeline.StageFetch, Done: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Report blocked on a hub that is not running")
	}
	assert.Positive(t, hub.Stats()["dropped_events"])
}

func TestHandler_RejectsForeignOrigin(t *testing.T) {
	hub := startHub(t)
	srv := httptest.NewServer(Handler(hub, Options{AllowedOrigins: []string{"http://app.test"}}, testutil.DiscardLogger()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHub_StopIsIdempotent(t *testing.T) {
	hub := NewHub(testutil.DiscardLogger())
	hub.Start()
	hub.Stop()
	hub.Stop()
	assert.Zero(t, hub.ClientCount())
}
