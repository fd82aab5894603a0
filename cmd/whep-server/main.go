package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/RenatoCabral2022/whipwhep/internal/config"
	"github.com/RenatoCabral2022/whipwhep/internal/rtcengine"
	"github.com/RenatoCabral2022/whipwhep/internal/whepserver"
)

func main() {
	fs := pflag.NewFlagSet("whep-server", pflag.ExitOnError)
	config.ServerFlags(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.LoadServer(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("whep-server failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Server, logger *zap.Logger) error {
	logger.Info("whep-server starting",
		zap.String("listen", cfg.ListenAddr),
		zap.String("basePath", cfg.BasePath),
		zap.Int("maxSessions", cfg.MaxSessions),
		zap.Bool("auth", cfg.Token != ""),
	)

	api, err := rtcengine.NewAPI(logger)
	if err != nil {
		return fmt.Errorf("webrtc api: %w", err)
	}
	answerer := rtcengine.NewAnswerer(api, cfg.STUNServers, cfg.ICEGatherTimeout, logger)
	ws := whepserver.New(cfg, answerer, logger)

	srv := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     ws.Handler(),
		ReadTimeout: 10 * time.Second,
		// Answers wait for ICE gathering.
		WriteTimeout: cfg.ICEGatherTimeout + 10*time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return serve(srv, ws, logger, quit)
}

// serve runs srv until quit fires or the listener fails, then stops the
// HTTP server and every session either way.
func serve(srv *http.Server, ws *whepserver.Server, logger *zap.Logger, quit <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var err error
	select {
	case <-quit:
		logger.Info("shutting down")
	case err = <-errCh:
		err = fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	ws.Shutdown()
	return err
}
