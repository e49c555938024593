package net

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"time"

	server "duskhollow/server"
	"duskhollow/server/internal/net/ws"
	"duskhollow/server/internal/telemetry"
	"duskhollow/server/internal/value"
	"duskhollow/server/logging"
)

type HTTPHandlerConfig struct {
	Logger *log.Logger
	Stats  telemetry.Stats
}

// NewHTTPHandler wires the inspector and control surface: health and
// diagnostics probes, the template catalog, agent spawn/removal, and the
// websocket inspector stream.
func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var routerStats logging.RouterStats
		if cfg.Stats != nil {
			routerStats = cfg.Stats.RouterStats()
		}
		payload := struct {
			Status        string `json:"status"`
			ServerTime    int64  `json:"serverTime"`
			Tick          uint64 `json:"tick"`
			TickRate      int    `json:"tickRate"`
			Entities      int    `json:"entities"`
			Runners       int    `json:"runners"`
			EventsTotal   uint64 `json:"eventsTotal"`
			EventsDropped uint64 `json:"eventsDropped"`
		}{
			Status:        "ok",
			ServerTime:    time.Now().UnixMilli(),
			Tick:          hub.Tick(),
			TickRate:      hub.Config().TickRate,
			Entities:      hub.World().Len(),
			Runners:       len(hub.SnapshotRunners()),
			EventsTotal:   routerStats.EventsTotal,
			EventsDropped: routerStats.DroppedTotal,
		}
		writeJSON(w, payload)
	})

	mux.HandleFunc("/templates", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, struct {
			Templates []string `json:"templates"`
		}{Templates: hub.Library().IDs()})
	})

	mux.HandleFunc("/agents", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch r.Method {
		case nethttp.MethodGet:
			writeJSON(w, struct {
				Agents []server.RunnerSnapshot `json:"agents"`
			}{Agents: hub.SnapshotRunners()})
		case nethttp.MethodPost:
			type spawnRequest struct {
				Template string  `json:"template"`
				X        float32 `json:"x"`
				Y        float32 `json:"y"`
				Z        float32 `json:"z"`
			}
			var req spawnRequest
			if r.Body != nil {
				defer r.Body.Close()
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
					httpError(w, "invalid payload", nethttp.StatusBadRequest)
					return
				}
			}
			if req.Template == "" {
				httpError(w, "missing template", nethttp.StatusBadRequest)
				return
			}
			ref, err := hub.SpawnAgent(req.Template, value.Vec3{X: req.X, Y: req.Y, Z: req.Z})
			if err != nil {
				httpError(w, err.Error(), nethttp.StatusBadRequest)
				return
			}
			writeJSON(w, struct {
				Entity uint64 `json:"entity"`
			}{Entity: uint64(ref)})
		case nethttp.MethodDelete:
			type removeRequest struct {
				Entity uint64 `json:"entity"`
			}
			var req removeRequest
			if r.Body != nil {
				defer r.Body.Close()
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					httpError(w, "invalid payload", nethttp.StatusBadRequest)
					return
				}
			}
			hub.RemoveAgent(value.EntityRef(req.Entity))
			writeJSON(w, struct {
				Status string `json:"status"`
			}{Status: "ok"})
		default:
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
		}
	})

	wsHandler := ws.NewHandler(hub, ws.HandlerConfig{Logger: logger})
	mux.HandleFunc("/ws", wsHandler.Handle)

	return mux
}

func writeJSON(w nethttp.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
