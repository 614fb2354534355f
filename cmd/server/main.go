package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/alfagnish/mergington-activities/internal/catalog"
	"github.com/alfagnish/mergington-activities/internal/config"
	"github.com/alfagnish/mergington-activities/internal/events"
	"github.com/alfagnish/mergington-activities/internal/logger"
	"github.com/alfagnish/mergington-activities/internal/metrics"
	"github.com/alfagnish/mergington-activities/internal/rpc"
	"github.com/alfagnish/mergington-activities/internal/server"
)

func main() {
	// 1. Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("config loaded",
		zap.String("listen", cfg.ListenAddr),
		zap.String("grpc", cfg.GRPCAddr),
		zap.String("static_dir", cfg.StaticDir),
	)

	// 2. Metrics registry with runtime collectors.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// 3. Build the catalog once; it lives for the whole process.
	hub := events.NewHub(cfg.WSBuffer, m.SetSubscribers)
	cat := catalog.New(catalog.DefaultSeed(), catalog.WithListener(hub))
	zl.Info("catalog seeded", zap.Int("activities", cat.Len()))

	// 4. Set up the chi router with all handlers.
	handler := server.New(cfg, server.Deps{
		Catalog:  cat,
		Hub:      hub,
		Metrics:  m,
		Gatherer: reg,
		Logger:   zl,
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket connections are long-lived
		IdleTimeout:  120 * time.Second,
	}

	// 5. Optional gRPC listener.
	var grpcSrv *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			zl.Fatal("grpc listen failed", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
		}
		grpcSrv = rpc.NewServer(cat, m, zl)
		go func() {
			zl.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
			if err := grpcSrv.Serve(lis); err != nil {
				zl.Error("grpc server error", zap.Error(err))
			}
		}()
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		zl.Info("http listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	<-done
	zl.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zl.Warn("graceful shutdown error", zap.Error(err))
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}

	zl.Info("server stopped")
}
