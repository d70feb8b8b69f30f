package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gridcast/internal/core/domain"
	"gridcast/internal/infrastructure/repositories/memory"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type hubEnv struct {
	hub    *Hub
	server *httptest.Server
}

func newHubEnv(t *testing.T, interval time.Duration) *hubEnv {
	t.Helper()

	relayRepo := memory.NewMemoryRelayRepository()
	sourceRepo := memory.NewMemorySourceRepository()
	ctx := context.Background()

	require.NoError(t, sourceRepo.Create(ctx, &domain.Source{
		ID: "src-1", Name: "lobby", URL: "rtsp://cam/1", Online: true,
	}))
	require.NoError(t, relayRepo.Create(ctx, &domain.RelayJob{
		ID: "job-1", Name: "wall", TemplateID: "tpl", State: domain.StateStopped,
		Width: 1920, Height: 1080, Framerate: 30, BitrateKbps: 4000,
	}))

	hub := NewHub(relayRepo, sourceRepo, interval, time.Second, 16, zap.NewNop().Sugar())
	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(server.Close)

	return &hubEnv{hub: hub, server: server}
}

func (e *hubEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_SendsInitialSnapshotOnConnect(t *testing.T) {
	env := newHubEnv(t, time.Hour)
	conn := env.dial(t)

	msg := readMessage(t, conn)
	assert.Equal(t, "snapshot", msg["type"])

	inputs := msg["inputs"].([]interface{})
	require.Len(t, inputs, 1)
	input := inputs[0].(map[string]interface{})
	assert.Equal(t, "src-1", input["id"])
	assert.Equal(t, true, input["online"])

	outputs := msg["outputs"].([]interface{})
	require.Len(t, outputs, 1)
	output := outputs[0].(map[string]interface{})
	assert.Equal(t, "job-1", output["id"])
	assert.Equal(t, "stopped", output["state"])
}

func TestHub_DeliversEventsToAllObservers(t *testing.T) {
	env := newHubEnv(t, time.Hour)

	first := env.dial(t)
	second := env.dial(t)
	readMessage(t, first)  // initial snapshots
	readMessage(t, second)

	require.Eventually(t, func() bool {
		return env.hub.ObserverCount() == 2
	}, time.Second, 10*time.Millisecond)

	env.hub.PublishEvent(domain.RelayEvent{
		Type:      domain.EventError,
		RelayID:   "job-1",
		Detail:    "process exited",
		Timestamp: time.Now(),
	})

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.Equal(t, "event", msg["type"])
		assert.Equal(t, "error", msg["eventType"])
		assert.Equal(t, "job-1", msg["jobId"])
		assert.Equal(t, "process exited", msg["detail"])
	}
}

func TestHub_PeriodicSnapshots(t *testing.T) {
	env := newHubEnv(t, 50*time.Millisecond)
	conn := env.dial(t)
	readMessage(t, conn) // initial snapshot

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.hub.Run(ctx)

	msg := readMessage(t, conn)
	assert.Equal(t, "snapshot", msg["type"])
}

func TestHub_DisconnectedObserverIsPruned(t *testing.T) {
	env := newHubEnv(t, time.Hour)
	conn := env.dial(t)
	readMessage(t, conn)

	require.Eventually(t, func() bool {
		return env.hub.ObserverCount() == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return env.hub.ObserverCount() == 0
	}, time.Second, 10*time.Millisecond)

	// Publishing after disconnect must not block or panic.
	env.hub.PublishEvent(domain.RelayEvent{Type: domain.EventStopped, RelayID: "job-1", Timestamp: time.Now()})
}
