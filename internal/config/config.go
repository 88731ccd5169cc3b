package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the analysis engine
type Config struct {
	// Server configuration (live ingest mode)
	Port string `envconfig:"PORT" default:"8080"`

	// Audio processing configuration.
	// The pipeline operates on mono 16-bit PCM at SampleRate; stereo
	// inputs are downmixed on decode.
	SampleRate int `envconfig:"SAMPLE_RATE" default:"16000"`

	// Windowed DSP configuration
	FrameSize int `envconfig:"ANALYSIS_FRAME_SIZE" default:"1024"` // Samples per analysis frame
	HopSize   int `envconfig:"ANALYSIS_HOP_SIZE" default:"512"`    // Samples between frame starts

	// Pause detection. Observed recordings disagree on the best cutoff,
	// so both knobs are tunable rather than hardcoded.
	SilenceThresholdDB float64 `envconfig:"SILENCE_THRESHOLD_DB" default:"40"` // dB below peak treated as silence
	MinPauseSeconds    float64 `envconfig:"MIN_PAUSE_SECONDS" default:"0.5"`   // Gaps shorter than this are not pauses

	// Streaming accumulator configuration
	ChunkTriggerSeconds float64 `envconfig:"CHUNK_TRIGGER_SECONDS" default:"3"` // Buffered duration that triggers analysis
	OverlapTailSeconds  float64 `envconfig:"OVERLAP_TAIL_SECONDS" default:"2"`  // Audio retained across trigger boundaries

	// Speaker role resolution strategy: "first-speaker" or "least-talkative"
	RoleStrategy string `envconfig:"ROLE_STRATEGY" default:"first-speaker"`

	// External boundary services. An empty URL means the service is
	// unavailable and the corresponding stage is skipped.
	TranscriptionURL string `envconfig:"TRANSCRIPTION_URL" default:""`
	DiarizationURL   string `envconfig:"DIARIZATION_URL" default:""`
	CommentaryURL    string `envconfig:"COMMENTARY_URL" default:""`
	PoseURL          string `envconfig:"POSE_URL" default:""`
	ServiceTimeout   int    `envconfig:"SERVICE_TIMEOUT" default:"30"` // Seconds per external call

	// Transcription language hint
	Language string `envconfig:"LANGUAGE" default:"en"`

	// Commentary input is truncated to this many characters before the call
	MaxTranscriptChars int `envconfig:"MAX_TRANSCRIPT_CHARS" default:"4000"`

	// Video frame sampling
	FrameSampleSeconds float64 `envconfig:"FRAME_SAMPLE_SECONDS" default:"5"` // Sample one frame every N seconds
	MaxFrameSamples    int     `envconfig:"MAX_FRAME_SAMPLES" default:"60"`   // Cap per session
	VideoFPS           int     `envconfig:"VIDEO_FPS" default:"15"`           // Recording frame rate

	// Worker pool for CPU-bound stages
	WorkerPoolSize int `envconfig:"WORKER_POOL_SIZE" default:"4"`

	// Recording artifact layout
	RecordingDir string `envconfig:"RECORDING_DIR" default:"recordings"`

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // Maximum retry attempts
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration invariants that envconfig defaults cannot express
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.FrameSize <= 0 || c.HopSize <= 0 {
		return fmt.Errorf("frame size and hop size must be positive")
	}
	if c.HopSize > c.FrameSize {
		return fmt.Errorf("ANALYSIS_HOP_SIZE (%d) must not exceed ANALYSIS_FRAME_SIZE (%d)", c.HopSize, c.FrameSize)
	}
	if c.MinPauseSeconds < 0 {
		return fmt.Errorf("MIN_PAUSE_SECONDS must not be negative")
	}
	if c.ChunkTriggerSeconds <= 0 {
		return fmt.Errorf("CHUNK_TRIGGER_SECONDS must be positive")
	}
	if c.OverlapTailSeconds < 0 || c.OverlapTailSeconds >= c.ChunkTriggerSeconds {
		return fmt.Errorf("OVERLAP_TAIL_SECONDS (%.1f) must be in [0, CHUNK_TRIGGER_SECONDS)", c.OverlapTailSeconds)
	}
	switch c.RoleStrategy {
	case "first-speaker", "least-talkative":
	default:
		return fmt.Errorf("ROLE_STRATEGY must be \"first-speaker\" or \"least-talkative\", got %q", c.RoleStrategy)
	}
	return nil
}
