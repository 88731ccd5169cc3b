// Package services holds the clients for the external analysis
// backends: transcription, diarization, commentary, and pose scoring.
// Every backend is optional; a missing or failing one degrades the
// report instead of failing the session.
package services

import (
	"context"
	"errors"

	"github.com/interviewlab/analysis-engine/internal/transcript"
)

// ErrServiceUnavailable marks a capability that is configured off or
// currently unreachable. Callers report the capability as absent.
var ErrServiceUnavailable = errors.New("analysis service unavailable")

// Service names used in logs, metrics labels, and breaker names.
const (
	ServiceTranscription = "transcription"
	ServiceDiarization   = "diarization"
	ServiceCommentary    = "commentary"
	ServicePose          = "pose"
)

// TranscriptionResult is the transcription backend's output. Silence
// yields an empty result, not an error.
type TranscriptionResult struct {
	Text            string               `json:"text"`
	Segments        []transcript.Segment `json:"segments"`
	Language        string               `json:"language"`
	DurationSeconds float64              `json:"duration_seconds"`
}

// AcousticSummary is the condensed acoustic context sent along with a
// transcript to the commentary backend.
type AcousticSummary struct {
	SpeakingRateCharsPerMinute float64 `json:"speaking_rate_chars_per_minute"`
	AverageVolumeDB            float64 `json:"average_volume_db"`
	PauseCount                 int     `json:"pause_count"`
	PitchVariance              float64 `json:"pitch_variance"`
}

// Commentary is the qualitative interview assessment.
type Commentary struct {
	Keywords          []string `json:"keywords"`
	ToneFeedback      string   `json:"tone_feedback"`
	ConfidenceScore   int      `json:"confidence_score"`
	NervousnessScore  int      `json:"nervousness_score"`
	OverallImpression string   `json:"overall_impression"`

	// RuleBased is set when the heuristic fallback produced this
	// commentary instead of the remote backend.
	RuleBased bool `json:"rule_based,omitempty"`
}

// PoseScore is one sampled video frame's posture assessment.
type PoseScore struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Transcriber converts a recorded audio file into text segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (*TranscriptionResult, error)
	Available(ctx context.Context) (bool, error)
}

// Diarizer splits a recording into speaker turns.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string, speakerHint int) ([]transcript.Turn, error)
	Available(ctx context.Context) (bool, error)
}

// Commentator produces the qualitative assessment for a transcript.
type Commentator interface {
	Analyze(ctx context.Context, transcriptText string, summary AcousticSummary) (*Commentary, error)
	Available(ctx context.Context) (bool, error)
}

// PoseSampler scores individual video frames for posture.
type PoseSampler interface {
	ScoreFrame(ctx context.Context, frameJPEG []byte) (*PoseScore, error)
	Available(ctx context.Context) (bool, error)
}
