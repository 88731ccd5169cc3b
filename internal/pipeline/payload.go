// Package pipeline runs the post-session analysis: transcription,
// diarization, acoustic feature extraction, voice scoring, commentary,
// and video pose sampling, assembled into one report payload.
package pipeline

import (
	"github.com/interviewlab/analysis-engine/internal/scoring"
	"github.com/interviewlab/analysis-engine/internal/services"
	"github.com/interviewlab/analysis-engine/internal/transcript"
)

// State tracks a session's progress through the pipeline.
type State string

const (
	StatePending            State = "PENDING"
	StateTranscribing       State = "TRANSCRIBING"
	StateExtractingFeatures State = "EXTRACTING_FEATURES"
	StateScoring            State = "SCORING"
	StateVideoAnalyzing     State = "VIDEO_ANALYZING"
	StateAssembling         State = "ASSEMBLING"
	StateDone               State = "DONE"
	StateFailed             State = "FAILED"
)

// Payload is the full analysis report for one session. Unavailable
// inputs show up as blocks with Available false rather than missing
// keys, so consumers never branch on absence.
type Payload struct {
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
	State     State  `json:"state"`
	Error     string `json:"error,omitempty"`

	Transcript TranscriptBlock      `json:"transcript"`
	Audio      AudioBlock           `json:"audio_features"`
	Commentary *services.Commentary `json:"ai_analysis,omitempty"`
	Profile    *VoiceProfile        `json:"voice_profile,omitempty"`
	Video      VideoBlock           `json:"video"`
}

// TranscriptBlock carries the transcription and role-mapped segments.
type TranscriptBlock struct {
	Available bool                 `json:"available"`
	Reason    string               `json:"reason,omitempty"`
	Text      string               `json:"text,omitempty"`
	Language  string               `json:"language,omitempty"`
	Segments  []transcript.Segment `json:"segments,omitempty"`
	Roles     map[string]string    `json:"roles,omitempty"`
}

// AudioBlock carries the session-wide acoustic features and the
// per-speaker breakdown.
type AudioBlock struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`

	Overall    scoring.FeatureSet      `json:"overall,omitempty"`
	PerSpeaker map[string]SpeakerAudio `json:"per_speaker,omitempty"`
}

// SpeakerAudio is one diarized speaker's features and voice profile,
// keyed in AudioBlock by the speaker's resolved role.
type SpeakerAudio struct {
	Speaker  string             `json:"speaker"`
	Features scoring.FeatureSet `json:"features"`
	Profile  VoiceProfile       `json:"profile"`
}

// VoiceProfile bundles the twelve-axis scores with their summary and
// the affect estimate.
type VoiceProfile struct {
	Axes    scoring.AxisScores `json:"dimensions"`
	Summary scoring.Summary    `json:"summary"`
	Affect  scoring.Affect     `json:"affect"`
}

// VideoBlock carries sampled pose scores ordered by frame timestamp.
type VideoBlock struct {
	Available    bool         `json:"available"`
	Reason       string       `json:"reason,omitempty"`
	FrameScores  []FrameScore `json:"frame_scores,omitempty"`
	AverageScore float64      `json:"average_score,omitempty"`
}

// FrameScore is one sampled frame's pose assessment.
type FrameScore struct {
	TimestampSeconds float64 `json:"timestamp_seconds"`
	Score            int     `json:"score"`
	Feedback         string  `json:"feedback,omitempty"`
}

// buildProfile runs the score engine and affect estimator for one
// feature set.
func buildProfile(f scoring.FeatureSet) VoiceProfile {
	axes := scoring.Score(f)
	return VoiceProfile{
		Axes:    axes,
		Summary: scoring.Summarize(axes),
		Affect:  scoring.EstimateAffect(f),
	}
}
