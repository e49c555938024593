package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"

	server "duskhollow/server"
	"duskhollow/server/internal/assets"
	"duskhollow/server/internal/behavior"
	servernet "duskhollow/server/internal/net"
	"duskhollow/server/internal/tasks"
	"duskhollow/server/internal/telemetry"
	"duskhollow/server/logging"
	loggingSinks "duskhollow/server/logging/sinks"
)

type Config struct {
	Logger telemetry.Logger
	Addr   string
}

func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	logConfig := logging.DefaultConfig()
	sinks := map[string]logging.Sink{
		"console": loggingSinks.NewConsole(os.Stdout),
	}
	if path := os.Getenv("LOG_JSON_PATH"); path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			telemetryLogger.Printf("failed to open %s: %v", path, err)
		} else {
			sinks["json"] = loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval)
			logConfig.EnabledSinks = append(logConfig.EnabledSinks, "json")
		}
	}

	router, err := logging.NewRouter(logConfig, logging.SystemClock{}, log.Default(), sinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	registry := behavior.NewRegistry()
	tasks.RegisterBuiltins(registry, router)

	library, err := assets.LoadEmbedded(router)
	if err != nil {
		return fmt.Errorf("failed to load graph catalog: %w", err)
	}
	telemetryLogger.Printf("loaded %d graph templates", len(library.IDs()))

	hubCfg := server.DefaultHubConfig()
	if raw := os.Getenv("TICK_RATE"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			hubCfg.TickRate = parsed
		} else {
			telemetryLogger.Printf("invalid TICK_RATE=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("SNAPSHOT_INTERVAL_TICKS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			hubCfg.SnapshotInterval = parsed
		} else {
			telemetryLogger.Printf("invalid SNAPSHOT_INTERVAL_TICKS=%q: %v", raw, err)
		}
	}

	hub := server.NewHub(hubCfg, library, registry, router)
	simCtx, stopSim := context.WithCancel(ctx)
	defer stopSim()
	go hub.RunSimulation(simCtx)

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		Stats: telemetry.WrapRouter(router),
	})

	addr := cfg.Addr
	if addr == "" {
		addr = os.Getenv("LISTEN_ADDR")
	}
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	telemetryLogger.Printf("server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
