package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gorilla/websocket"

	server "duskhollow/server"
	"duskhollow/server/internal/assets"
	"duskhollow/server/internal/behavior"
	"duskhollow/server/internal/tasks"
	"duskhollow/server/internal/value"
)

func dialTestHandler(t *testing.T) (*server.Hub, *websocket.Conn, func()) {
	t.Helper()
	library, err := assets.LoadEmbedded(nil)
	if err != nil {
		t.Fatalf("LoadEmbedded: %v", err)
	}
	registry := behavior.NewRegistry()
	tasks.RegisterBuiltins(registry, nil)
	hub := server.NewHub(server.DefaultHubConfig(), library, registry, nil)

	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return hub, conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestCancelCommandAck(t *testing.T) {
	hub, conn, cleanup := dialTestHandler(t)
	defer cleanup()

	ref, err := hub.SpawnAgent("sentry", value.Vec3{})
	if err != nil {
		t.Fatalf("SpawnAgent: %v", err)
	}

	cmd := commandMessage{Type: "cancel", Entity: uint64(ref)}
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("write: %v", err)
	}

	var ack commandAckMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ack.Type != "commandAck" || ack.Cmd != "cancel" || !ack.OK {
		t.Fatalf("ack = %+v", ack)
	}
}

func TestUnknownEntityCommandNacks(t *testing.T) {
	_, conn, cleanup := dialTestHandler(t)
	defer cleanup()

	if err := conn.WriteJSON(commandMessage{Type: "resetVars", Entity: 404}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var ack commandAckMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ack.OK {
		t.Fatalf("expected nack, got %+v", ack)
	}
}

func TestMalformedCommandIsIgnored(t *testing.T) {
	hub, conn, cleanup := dialTestHandler(t)
	defer cleanup()

	ref, err := hub.SpawnAgent("sentry", value.Vec3{})
	if err != nil {
		t.Fatalf("SpawnAgent: %v", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	// The connection survives; a well-formed command still round-trips.
	if err := conn.WriteJSON(commandMessage{Type: "restart", Entity: uint64(ref)}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var ack commandAckMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ack.Cmd != "restart" || !ack.OK {
		t.Fatalf("ack = %+v", ack)
	}
}

func TestSnapshotMessageShape(t *testing.T) {
	msg := snapshotMessage{Ver: server.ProtocolVersion, Type: "snapshot", Tick: 3}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["type"] != "snapshot" {
		t.Fatalf("decoded = %v", decoded)
	}
}
