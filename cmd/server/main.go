package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/config"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/coordinator"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/logging"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/metrics"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/monitoring"
	"github.com/decodewithdeepak/webrtc-object-detection-app/internal/server"
)

func main() {
	var (
		configDir = pflag.String("config", "", "directory holding config.yaml")
		port      = pflag.Int("port", 0, "listen port override")
		debug     = pflag.Bool("debug", false, "enable debug logging")
	)
	pflag.Parse()

	cfg, err := config.LoadServer(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *debug {
		cfg.Debug = true
	}

	log := logging.New(cfg.Debug)

	reg := prometheus.NewRegistry()
	hub := coordinator.New(log, metrics.NewCoordinatorMetrics(reg))
	go hub.Run()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: server.Routes(hub, log),
	}

	mon := monitoring.New(cfg.Monitoring, "server", reg, log)
	go mon.Run()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("signaling server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	_ = mon.Shutdown(ctx)
}
