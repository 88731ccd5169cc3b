package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/interviewlab/analysis-engine/internal/config"
	"github.com/interviewlab/analysis-engine/internal/live"
	"github.com/interviewlab/analysis-engine/internal/observability"
	"github.com/interviewlab/analysis-engine/internal/resilience"
	"github.com/interviewlab/analysis-engine/internal/services"
)

const (
	serviceName    = "analysis-engine"
	serviceVersion = "0.1.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not initialized yet
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("recording_dir", cfg.RecordingDir).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Analysis engine starting")

	remote := services.NewRemote(
		services.Endpoints{
			Transcription: cfg.TranscriptionURL,
			Diarization:   cfg.DiarizationURL,
			Commentary:    cfg.CommentaryURL,
			Pose:          cfg.PoseURL,
		},
		time.Duration(cfg.ServiceTimeout)*time.Second,
		resilience.RetryConfig{
			MaxAttempts:    cfg.RetryMaxAttempts,
			InitialBackoff: time.Duration(cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			Multiplier:     2.0,
			Jitter:         true,
		},
		services.BreakerConfig{
			MaxFailures:  cfg.CircuitBreakerMaxFailures,
			ResetTimeout: time.Duration(cfg.CircuitBreakerResetTimeout) * time.Second,
		},
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/sessions/live", live.Handler(*cfg))
	mux.HandleFunc("/health", observability.HealthCheckHandler(serviceName, serviceVersion))

	// Boundary services are capabilities: an unconfigured one reports
	// disabled without failing readiness.
	transcriber := services.NewHTTPTranscriber(remote)
	diarizer := services.NewHTTPDiarizer(remote)
	commentator := services.NewHTTPCommentator(remote, cfg.MaxTranscriptChars)
	pose := services.NewHTTPPoseSampler(remote)
	mux.HandleFunc("/ready", observability.ReadinessHandler(serviceName, serviceVersion, map[string]observability.HealthCheckFunc{
		"transcription": transcriber.Available,
		"diarization":   diarizer.Available,
		"commentary":    commentator.Available,
		"pose":          pose.Available,
	}))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/sessions/live", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}
