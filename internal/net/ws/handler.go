package ws

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	server "duskhollow/server"
	"duskhollow/server/internal/value"
)

const writeWait = 10 * time.Second

type HandlerConfig struct {
	Logger *log.Logger
}

// Handler streams runner snapshots to inspector clients and accepts
// control commands back over the same connection.
type Handler struct {
	hub      *server.Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *server.Hub, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}
	return &Handler{hub: hub, logger: logger, upgrader: upgrader}
}

type snapshotMessage struct {
	Ver    int                     `json:"ver"`
	Type   string                  `json:"type"`
	Tick   uint64                  `json:"tick"`
	Agents []server.RunnerSnapshot `json:"agents"`
}

type commandMessage struct {
	Ver    int    `json:"ver,omitempty"`
	Type   string `json:"type"`
	Entity uint64 `json:"entity"`
}

type commandAckMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Cmd    string `json:"cmd"`
	Entity uint64 `json:"entity"`
	OK     bool   `json:"ok"`
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("inspector upgrade failed: %v", err)
		return
	}

	sess := newSession(conn)
	defer sess.Close()

	interval := server.TickInterval(h.hub.Config().TickRate) * time.Duration(h.hub.Config().SnapshotInterval)
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				msg := snapshotMessage{
					Ver:    server.ProtocolVersion,
					Type:   "snapshot",
					Tick:   h.hub.Tick(),
					Agents: h.hub.SnapshotRunners(),
				}
				data, err := json.Marshal(msg)
				if err != nil {
					h.logger.Printf("failed to marshal snapshot: %v", err)
					continue
				}
				if err := sess.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			}
		}
	}()
	defer close(done)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg commandMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed inspector message: %v", err)
			continue
		}

		ref := value.EntityRef(msg.Entity)
		var ok bool
		switch msg.Type {
		case "cancel":
			ok = h.hub.CancelRunner(ref)
		case "restart":
			ok = h.hub.RestartRunner(ref)
		case "resetVars":
			ok = h.hub.ResetRunnerVars(ref)
		default:
			h.logger.Printf("unknown inspector command %q", msg.Type)
			continue
		}

		ack := commandAckMessage{
			Ver:    server.ProtocolVersion,
			Type:   "commandAck",
			Cmd:    msg.Type,
			Entity: msg.Entity,
			OK:     ok,
		}
		data, err := json.Marshal(ack)
		if err != nil {
			h.logger.Printf("failed to marshal ack: %v", err)
			continue
		}
		if err := sess.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
