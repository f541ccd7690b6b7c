package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mchttp "github.com/Strob0t/MissionControl/internal/adapter/http"
	mcmcp "github.com/Strob0t/MissionControl/internal/adapter/mcp"
	mcnats "github.com/Strob0t/MissionControl/internal/adapter/nats"
	"github.com/Strob0t/MissionControl/internal/adapter/natskv"
	"github.com/Strob0t/MissionControl/internal/adapter/openclaw"
	"github.com/Strob0t/MissionControl/internal/adapter/otel"
	"github.com/Strob0t/MissionControl/internal/adapter/ristretto"
	"github.com/Strob0t/MissionControl/internal/adapter/tiered"
	"github.com/Strob0t/MissionControl/internal/adapter/ws"
	"github.com/Strob0t/MissionControl/internal/config"
	"github.com/Strob0t/MissionControl/internal/logger"
	"github.com/Strob0t/MissionControl/internal/middleware"
	"github.com/Strob0t/MissionControl/internal/port/cache"
	"github.com/Strob0t/MissionControl/internal/port/messagequeue"
	"github.com/Strob0t/MissionControl/internal/resilience"
	"github.com/Strob0t/MissionControl/internal/secrets"
	"github.com/Strob0t/MissionControl/internal/service"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	cfg, configPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"version", version,
		"config", configPath,
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"nats", cfg.NATS.URL != "",
		"mcp", cfg.MCP.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	otelShutdown, err := otel.Setup(ctx, cfg.OTEL)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := otelShutdown(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	defer l1.Close()

	var (
		queue     messagequeue.Queue
		natsQueue *mcnats.Queue
		boardC    cache.Cache = l1
		idemC     cache.Cache = l1
	)
	if cfg.NATS.URL != "" {
		natsQueue, err = mcnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() {
			if err := natsQueue.Drain(); err != nil {
				slog.Warn("nats drain", "error", err)
			}
		}()
		queue = natsQueue

		l2, err := natskv.Open(ctx, natsQueue.JetStream(), cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			return fmt.Errorf("cache bucket: %w", err)
		}
		boardC = tiered.New(l1, l2, cfg.Cache.BoardTTL)

		idem, err := natskv.Open(ctx, natsQueue.JetStream(), cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
		if err != nil {
			return fmt.Errorf("idempotency bucket: %w", err)
		}
		idemC = idem
	} else {
		slog.Warn("nats disabled, events stay in-process and task processing runs inline")
	}

	// --- Services ---

	hub := ws.NewHub()
	defer hub.Close()

	pub := service.NewPublisher(hub, queue, service.NewBoardCache(boardC, cfg.Cache.BoardTTL), metrics)
	spawner := openclaw.NewSpawner(cfg.Orchestrator, resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	agentSvc := service.NewAgentService(store, pub, cfg.Agents.StaleAfter)
	taskSvc := service.NewTaskService(store, pub)
	messageSvc := service.NewMessageService(store, pub)
	notificationSvc := service.NewNotificationService(store, pub)
	processSvc := service.NewProcessService(store, spawner, messageSvc, pub)
	defer processSvc.Wait()

	if natsQueue != nil {
		cancelHeartbeats, err := natsQueue.Subscribe(ctx, messagequeue.SubjectAgentHeartbeat, agentSvc.HandleHeartbeat)
		if err != nil {
			return fmt.Errorf("heartbeat subscriber: %w", err)
		}
		defer cancelHeartbeats()

		cancelProcess, err := natsQueue.Subscribe(ctx, messagequeue.SubjectProcessRequest, processSvc.Handle)
		if err != nil {
			return fmt.Errorf("process subscriber: %w", err)
		}
		defer cancelProcess()

		cancelBoard, err := natsQueue.SubscribeAll(messagequeue.SubjectBoardInvalidated, pub.HandleBoardInvalidated)
		if err != nil {
			return fmt.Errorf("board invalidation subscriber: %w", err)
		}
		defer cancelBoard()
	}

	// --- HTTP ---

	handlers := &mchttp.Handlers{
		Agents:        agentSvc,
		Tasks:         taskSvc,
		Messages:      messageSvc,
		Notifications: notificationSvc,
		Activities:    service.NewActivityService(store),
		Documents:     service.NewDocumentService(store, pub),
		Pool:          service.NewPoolService(store, pub, cfg.Pool.ClaimBaseURL),
		Process:       processSvc,
		DB:            store,
		Version:       version,
	}

	limiter := middleware.NewRateLimiterFromConfig(cfg.Rate)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	router := mchttp.NewRouter(mchttp.RouterConfig{
		CORSOrigin:     cfg.Server.CORSOrigin,
		ServiceName:    cfg.OTEL.ServiceName,
		RateLimiter:    limiter,
		IdemCache:      idemC,
		IdemTTL:        cfg.Idempotency.TTL,
		RequestTimeout: 30 * time.Second,
	}, handlers, hub.HandleWS)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// --- MCP ---

	var mcpSrv *mcmcp.Server
	if cfg.MCP.Enabled {
		vault, err := secrets.NewVault(secrets.ConfigLoader(configPath))
		if err != nil {
			return fmt.Errorf("secrets: %w", err)
		}
		go reloadOnHangup(ctx, vault)

		mcpSrv = mcmcp.NewServer(mcmcp.ServerConfig{
			Addr:    cfg.MCP.Addr,
			Name:    "missioncontrol",
			Version: version,
			APIKey:  vault.Getter(secrets.MCPAPIKey),
		}, mcmcp.ServerDeps{
			Tasks:         taskSvc,
			Messages:      messageSvc,
			Agents:        agentSvc,
			Notifications: notificationSvc,
		})
		if err := mcpSrv.Start(); err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if mcpSrv != nil {
		if err := mcpSrv.Stop(shutdownCtx); err != nil {
			slog.Warn("mcp shutdown", "error", err)
		}
	}
	return srv.Shutdown(shutdownCtx)
}

// reloadOnHangup reloads the vault on every SIGHUP until ctx is done.
func reloadOnHangup(ctx context.Context, vault *secrets.Vault) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := vault.Reload(); err != nil {
				slog.Error("secret reload failed", "error", err)
			}
		}
	}
}
