// Package scoring turns per-speaker acoustic measurements into the
// twelve-axis voice profile and affect estimates reported to the user.
package scoring

import (
	"github.com/interviewlab/analysis-engine/internal/audio"
)

// FeatureSet is the per-speaker aggregate the score engine consumes.
// All fields are plain numbers so a set can be serialized into reports
// and cached alongside service results.
type FeatureSet struct {
	DurationSeconds float64 `json:"duration_seconds"`

	PitchMean     float64 `json:"pitch_mean"`
	PitchVariance float64 `json:"pitch_variance"`
	Jitter        float64 `json:"jitter"`

	VolumeMeanDB     float64 `json:"volume_mean_db"`
	EnergyVariance   float64 `json:"energy_variance"`
	ZeroCrossingRate float64 `json:"zero_crossing_rate"`

	PauseCount        int     `json:"pause_count"`
	PauseTotalSeconds float64 `json:"pause_total_seconds"`

	// Register percentages of voiced frames. HasRegister is false when
	// no frame carried pitch; scoring then falls back to neutral
	// defaults instead of treating the voice as register-less.
	RegisterLowPct  float64 `json:"register_low_pct"`
	RegisterMidPct  float64 `json:"register_mid_pct"`
	RegisterHighPct float64 `json:"register_high_pct"`
	HasRegister     bool    `json:"has_register"`

	TranscriptChars            int     `json:"transcript_chars"`
	SpeakingRateCharsPerMinute float64 `json:"speaking_rate_chars_per_minute"`
}

// Neutral register distribution assumed when pitch tracking produced no
// usable frames.
const (
	defaultLowPct  = 30.0
	defaultMidPct  = 40.0
	defaultHighPct = 20.0
)

// BuildFeatureSet combines windowed signal metrics, pause segmentation,
// and transcript length into one scoring input. transcriptChars counts
// runes of the speaker's transcribed text; zero duration yields a zero
// speaking rate rather than a division blowup.
func BuildFeatureSet(sig audio.SignalFeatures, pauses audio.PauseReport, transcriptChars int) FeatureSet {
	fs := FeatureSet{
		DurationSeconds:   sig.DurationSeconds,
		PitchMean:         sig.PitchMean,
		PitchVariance:     sig.PitchVariance,
		Jitter:            sig.Jitter,
		VolumeMeanDB:      sig.VolumeMeanDB,
		EnergyVariance:    sig.EnergyVariance,
		ZeroCrossingRate:  sig.ZeroCrossingRate,
		PauseCount:        pauses.PauseCount,
		PauseTotalSeconds: pauses.PauseTotal,
		TranscriptChars:   transcriptChars,
	}

	if sig.VoicedFrames > 0 {
		fs.HasRegister = true
		fs.RegisterLowPct = sig.Register.LowPct
		fs.RegisterMidPct = sig.Register.MidPct
		fs.RegisterHighPct = sig.Register.HighPct
	}

	if sig.DurationSeconds > 0 {
		fs.SpeakingRateCharsPerMinute = float64(transcriptChars) / (sig.DurationSeconds / 60.0)
	}

	return fs
}

// registerPcts returns the measured register distribution, or the
// neutral defaults when none was measured.
func (f FeatureSet) registerPcts() (low, mid, high float64) {
	if !f.HasRegister {
		return defaultLowPct, defaultMidPct, defaultHighPct
	}
	return f.RegisterLowPct, f.RegisterMidPct, f.RegisterHighPct
}

// pauseRate returns pauses per second. Duration is floored at 1 s so
// very short clips do not inflate the rate.
func (f FeatureSet) pauseRate() float64 {
	d := f.DurationSeconds
	if d < 1 {
		d = 1
	}
	return float64(f.PauseCount) / d
}
