package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bilal/transition-relay/internal/communicator"
	"github.com/bilal/transition-relay/internal/health"
	"github.com/bilal/transition-relay/internal/inbound"
	"github.com/bilal/transition-relay/internal/relay"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept submissions over HTTP (and MQTT) until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info().Str("agent", cfg.Agent.Name).Msg("starting transition relay")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		//------------------------------------------
		// HEALTH + METRICS
		//------------------------------------------
		healthSrv := health.New(cfg.Health.Listen)
		go func() {
			if err := healthSrv.Serve(); err != nil {
				log.Error().Err(err).Msg("health server stopped")
			}
		}()
		log.Info().Str("addr", cfg.Health.Listen).Msg("health endpoint running on /health and /metrics")

		//------------------------------------------
		// RELAY
		//------------------------------------------
		opts := []relay.Option{relay.WithObserver(healthSrv)}

		var mirror *communicator.KafkaMirror
		if cfg.Kafka.Enabled {
			var err error
			mirror, err = communicator.NewKafkaMirror(cfg)
			if err != nil {
				return err
			}
			opts = append(opts, relay.WithMirror(mirror))
		}
		r := relay.New(communicator.New(cfg), opts...)

		//------------------------------------------
		// INBOUND
		//------------------------------------------
		srv := &http.Server{
			Addr:         cfg.Server.Listen,
			Handler:      inbound.NewMux(inbound.NewFormHandler(r, cfg.Relay.Strict, cfg.Server.MaxFormBytes)),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
		log.Info().Str("addr", cfg.Server.Listen).Msg("accepting form submissions")

		var sub *inbound.Subscriber
		if cfg.MQTT.Enabled {
			sub = inbound.NewSubscriber(cfg, r)
			if err := sub.Start(); err != nil {
				log.Error().Err(err).Str("broker", cfg.MQTT.Broker).Msg("mqtt inbound disabled")
				sub = nil
			}
		}

		healthSrv.SetRunning(true)

		//------------------------------------------
		// WAIT FOR SHUTDOWN
		//------------------------------------------
		var runErr error
		select {
		case <-ctx.Done():
			log.Warn().Msg("shutdown signal received")
		case runErr = <-errCh:
			log.Error().Err(runErr).Msg("form server failed")
		}

		healthSrv.SetRunning(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if sub != nil {
			sub.Shutdown()
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("form server shutdown")
		}
		if mirror != nil {
			if err := mirror.Close(); err != nil {
				log.Warn().Err(err).Msg("kafka mirror close")
			}
		}
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("health server shutdown")
		}

		if runErr != nil {
			return runErr
		}
		log.Info().Msg("relay stopped cleanly")
		return nil
	},
}
