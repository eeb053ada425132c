package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/keybase/internal/api"
	"github.com/heysubinoy/keybase/internal/store"
	"github.com/heysubinoy/keybase/pkg/codec"
	"github.com/heysubinoy/keybase/pkg/config"
	"github.com/heysubinoy/keybase/pkg/keybase"
	"google.golang.org/grpc"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	saveOnExit := flag.Bool("save-on-exit", false, "save the database before shutting down")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		hclog.Default().Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "kv-single",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	format := cfg.Format
	if format == "" {
		format = codec.ForPath(cfg.DBPath).Name()
	}
	c, err := codec.ByName(format, cfg.Pretty)
	if err != nil {
		logger.Error("invalid format", "error", err)
		os.Exit(1)
	}

	conn, err := keybase.Open(cfg.DBPath,
		keybase.WithCodec(c),
		keybase.WithLogger(logger),
		keybase.WithStrictLoad(cfg.StrictLoad),
	)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	// Handlers run concurrently, the connection does not lock on its own.
	instrumented := store.NewInstrumentedStore(conn)
	db := store.NewLocked(instrumented)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start gRPC server in a goroutine
	grpcServer := grpc.NewServer()
	api.RegisterKVServer(grpcServer, api.NewGRPCServer(db, logger))
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen", "addr", cfg.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server stopped", "error", err)
			stop()
		}
	}()

	// Register routes
	mux := http.NewServeMux()
	api.NewServer(db, logger).RegisterRoutes(mux)
	mux.HandleFunc("/metrics", api.MetricsHandler(instrumented))

	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	grpcServer.GracefulStop()

	if *saveOnExit {
		if err := db.Save(); err != nil {
			logger.Error("final save failed", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		logger.Error("close failed", "error", err)
	}
}
