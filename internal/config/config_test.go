package config

import (
	"os"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}

	if cfg.SampleRate != 16000 {
		t.Errorf("Expected default SampleRate 16000, got %d", cfg.SampleRate)
	}

	if cfg.SilenceThresholdDB != 40 {
		t.Errorf("Expected default SilenceThresholdDB 40, got %f", cfg.SilenceThresholdDB)
	}

	if cfg.MinPauseSeconds != 0.5 {
		t.Errorf("Expected default MinPauseSeconds 0.5, got %f", cfg.MinPauseSeconds)
	}

	if cfg.ChunkTriggerSeconds != 3 {
		t.Errorf("Expected default ChunkTriggerSeconds 3, got %f", cfg.ChunkTriggerSeconds)
	}

	if cfg.OverlapTailSeconds != 2 {
		t.Errorf("Expected default OverlapTailSeconds 2, got %f", cfg.OverlapTailSeconds)
	}

	if cfg.RoleStrategy != "first-speaker" {
		t.Errorf("Expected default RoleStrategy 'first-speaker', got '%s'", cfg.RoleStrategy)
	}

	if cfg.MaxTranscriptChars != 4000 {
		t.Errorf("Expected default MaxTranscriptChars 4000, got %d", cfg.MaxTranscriptChars)
	}

	if cfg.MaxFrameSamples != 60 {
		t.Errorf("Expected default MaxFrameSamples 60, got %d", cfg.MaxFrameSamples)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	os.Setenv("SAMPLE_RATE", "8000")
	os.Setenv("SILENCE_THRESHOLD_DB", "30")
	os.Setenv("TRANSCRIPTION_URL", "http://localhost:9000/transcribe")
	defer os.Unsetenv("SAMPLE_RATE")
	defer os.Unsetenv("SILENCE_THRESHOLD_DB")
	defer os.Unsetenv("TRANSCRIPTION_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.SampleRate != 8000 {
		t.Errorf("Expected SampleRate 8000, got %d", cfg.SampleRate)
	}

	if cfg.SilenceThresholdDB != 30 {
		t.Errorf("Expected SilenceThresholdDB 30, got %f", cfg.SilenceThresholdDB)
	}

	if cfg.TranscriptionURL != "http://localhost:9000/transcribe" {
		t.Errorf("Expected TranscriptionURL override, got '%s'", cfg.TranscriptionURL)
	}
}

func TestValidate_InvalidSampleRate(t *testing.T) {
	os.Setenv("SAMPLE_RATE", "0")
	defer os.Unsetenv("SAMPLE_RATE")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for zero sample rate")
	}
}

func TestValidate_OverlapExceedsTrigger(t *testing.T) {
	os.Setenv("OVERLAP_TAIL_SECONDS", "5")
	os.Setenv("CHUNK_TRIGGER_SECONDS", "3")
	defer os.Unsetenv("OVERLAP_TAIL_SECONDS")
	defer os.Unsetenv("CHUNK_TRIGGER_SECONDS")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when overlap tail is not shorter than the trigger threshold")
	}
}

func TestValidate_UnknownRoleStrategy(t *testing.T) {
	os.Setenv("ROLE_STRATEGY", "loudest")
	defer os.Unsetenv("ROLE_STRATEGY")

	_, err := Load()
	if err == nil {
		t.Error("Expected error for unknown role strategy")
	}
}
