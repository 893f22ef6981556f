package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	healthsvc "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/deskhub-app/deskhub/internal/config"
	"github.com/deskhub-app/deskhub/internal/health"
	"github.com/deskhub-app/deskhub/internal/icontheme"
	"github.com/deskhub-app/deskhub/internal/service"
	"github.com/deskhub-app/deskhub/internal/store"
	"github.com/deskhub-app/deskhub/internal/terminal"
	grpcx "github.com/deskhub-app/deskhub/internal/transport/grpc"
	httpx "github.com/deskhub-app/deskhub/internal/transport/http"
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}

	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		log.WithError(err).Fatal("failed to resolve data dir")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.WithError(err).Fatal("failed to create data dir")
	}

	factory, err := store.NewFactory(cfg.StoreDriver, dataDir, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("store setup failed")
	}
	defer func() {
		if err := factory.Close(); err != nil {
			log.WithError(err).Warn("store close warning")
		}
	}()

	terminals := terminal.NewManager()
	defer terminals.CloseAll()

	services := grpcx.Services{
		Presets:    service.NewPresetService(factory.Backend("model-presets")),
		Costs:      service.NewCostService(factory.Backend("cost-history")),
		Snippets:   service.NewSnippetService(factory.Backend("snippets")),
		Workspaces: service.NewWorkspaceService(factory.Backend("workspaces")),
		Themes:     icontheme.NewService(factory.Backend("icon-themes"), cfg.ThemesDir()),
		Health:     health.NewChecker(cfg.ProvidersPath()),
		Terminals:  terminals,
		DataDir:    dataDir,
	}
	handler := grpcx.NewDeskHubHandler(services)
	httpServer := httpx.NewServer(cfg.HTTPAddr, services.Costs, services.Presets)

	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.WithError(err).Fatalf("failed to listen on %s", cfg.GRPCAddr)
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpcx.RecoveryUnaryInterceptor(),
			grpcx.AuthUnaryInterceptor(cfg.AuthToken),
			grpcx.LoggingUnaryInterceptor(),
			grpcx.ErrorUnaryInterceptor(),
		),
	)
	grpcx.RegisterDeskHubServer(server, handler)

	healthService := healthsvc.NewServer()
	healthService.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthService)

	if cfg.EnableReflection {
		reflection.Register(server)
	}

	go pruneLoop(services.Costs, cfg.RetentionDays)

	go func() {
		log.WithFields(log.Fields{
			"addr":   cfg.GRPCAddr,
			"driver": cfg.StoreDriver,
			"data":   dataDir,
		}).Info("DeskHub gRPC server listening")
		if cfg.AuthToken == "" {
			log.Warn("AUTH_TOKEN is not configured; write methods are currently unauthenticated")
		}
		if err := server.Serve(listener); err != nil {
			log.WithError(err).Fatal("grpc serve failed")
		}
	}()

	go func() {
		if strings.TrimSpace(cfg.HTTPAddr) == "" {
			return
		}
		log.WithField("addr", cfg.HTTPAddr).Info("DeskHub HTTP dashboard listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http serve failed")
		}
	}()

	waitForShutdown(server, httpServer)
}

// pruneLoop enforces the retention window once at startup and then daily.
func pruneLoop(costs *service.CostService, retentionDays int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		removed, err := costs.PruneOldEntries(retentionDays)
		if err != nil {
			log.WithError(err).Warn("cost prune failed")
		} else if removed > 0 {
			log.WithField("removed", removed).Info("pruned old cost entries")
		}
		<-ticker.C
	}
}

func waitForShutdown(server *grpc.Server, httpServer *http.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received; draining gRPC server")
	done := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("gRPC server stopped gracefully")
	case <-time.After(5 * time.Second):
		log.Warn("graceful timeout reached; forcing stop")
		server.Stop()
	}
	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("http shutdown warning")
		}
	}
}
