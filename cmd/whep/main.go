package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pion/webrtc/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/RenatoCabral2022/whipwhep/internal/config"
	"github.com/RenatoCabral2022/whipwhep/internal/metrics"
	"github.com/RenatoCabral2022/whipwhep/internal/rtcengine"
	"github.com/RenatoCabral2022/whipwhep/internal/whep"
)

func main() {
	fs := pflag.NewFlagSet("whep", pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: whep [flags] <whep://host/path | https://host/path>\n")
		fs.PrintDefaults()
	}
	config.ClientFlags(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.LoadClient(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		os.Exit(2)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("session failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Client, logger *zap.Logger) error {
	logger.Info("whep starting",
		zap.String("url", cfg.URL),
		zap.String("mode", cfg.Mode),
		zap.Bool("auth", cfg.Token != ""),
	)

	if cfg.MetricsAddr != "" {
		srv := metricsServer(cfg.MetricsAddr, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	api, err := rtcengine.NewAPI(logger)
	if err != nil {
		return fmt.Errorf("webrtc api: %w", err)
	}

	direction := webrtc.RTPTransceiverDirectionRecvonly
	if cfg.Mode == "whip" {
		direction = webrtc.RTPTransceiverDirectionSendonly
	}
	peer, err := rtcengine.NewPeer(api, rtcengine.PeerConfig{
		ICEServers:    cfg.STUNServers,
		GatherTimeout: cfg.ICEGatherTimeout,
		Direction:     direction,
		Packets:       metrics.InboundRTPPacketsTotal,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("peer connection: %w", err)
	}
	defer peer.Close()

	client := whep.NewClient(
		whep.NewHTTPTransport(cfg.RequestTimeout),
		whep.WithLogger(logger),
		whep.WithMaxSDPSize(cfg.MaxSDPBytes),
		whep.WithRequireLocator(cfg.RequireLocation),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	go func() {
		select {
		case <-quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	sess, err := client.Establish(ctx, peer, cfg.URL, cfg.Token)
	if err != nil {
		return err
	}
	logger.Info("session established",
		zap.String("endpoint", sess.Endpoint),
		zap.String("sessionURL", sess.Locator),
	)

	hold(ctx, cfg.Hold)
	logger.Info("shutting down")

	// The establish context may already be cancelled by the signal.
	closeCtx, closeCancel := context.WithTimeout(context.Background(), cfg.RequestTimeout+time.Second)
	defer closeCancel()
	sess.Close(closeCtx)
	return nil
}

// hold blocks until ctx is done or, when d is positive, d has elapsed.
func hold(ctx context.Context, d time.Duration) {
	if d <= 0 {
		<-ctx.Done()
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func metricsServer(addr string, logger *zap.Logger) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}
	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
