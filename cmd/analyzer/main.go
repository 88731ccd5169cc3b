// Command analyzer runs the post-session analysis pipeline on a
// recorded session and writes the report payload as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/interviewlab/analysis-engine/internal/config"
	"github.com/interviewlab/analysis-engine/internal/observability"
	"github.com/interviewlab/analysis-engine/internal/pipeline"
	"github.com/interviewlab/analysis-engine/internal/resilience"
	"github.com/interviewlab/analysis-engine/internal/services"
)

func main() {
	var (
		audioPath  = flag.String("audio", "", "path to the session WAV recording (required)")
		framesPath = flag.String("frames", "", "path to the recorded frame sequence (optional)")
		sessionID  = flag.String("session", "", "session identifier (defaults to the audio file name)")
		outPath    = flag.String("out", "", "write the payload JSON here instead of stdout")
		timeout    = flag.Duration("timeout", 10*time.Minute, "overall analysis deadline")
	)
	flag.Parse()

	if *audioPath == "" {
		fmt.Fprintln(os.Stderr, "usage: analyzer -audio recording.wav [-frames frames.bin] [-out report.json]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	id := *sessionID
	if id == "" {
		id = filepath.Base(*audioPath)
	}

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

	orch := pipeline.NewOrchestrator(
		*cfg,
		services.NewHTTPTranscriber(remote),
		services.NewHTTPDiarizer(remote),
		services.NewHTTPCommentator(remote, cfg.MaxTranscriptChars),
		services.NewHTTPPoseSampler(remote),
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	payload := orch.Analyze(ctx, pipeline.Inputs{
		SessionID:  id,
		AudioPath:  *audioPath,
		FramesPath: *framesPath,
	})

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to encode payload")
	}
	data = append(data, '\n')

	if *outPath != "" {
		if err := os.WriteFile(*outPath, data, 0o644); err != nil {
			logger.Fatal().Err(err).Msg("Failed to write payload")
		}
		logger.Info().Str("path", *outPath).Str("state", string(payload.State)).Msg("Report written")
	} else {
		if _, err := os.Stdout.Write(data); err != nil {
			logger.Fatal().Err(err).Msg("Failed to write payload")
		}
	}

	if payload.State == pipeline.StateFailed {
		os.Exit(1)
	}
}
