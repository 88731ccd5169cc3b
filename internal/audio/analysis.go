package audio

import (
	"math"
)

// Pitch band considered plausible human voice (roughly C2 to C7).
const (
	MinPitchHz = 65.0
	MaxPitchHz = 2000.0
)

// Voice register boundaries in Hz. Frames below the low threshold count
// toward the low register, above the high threshold toward the high
// register, everything else mid.
const (
	registerLowHz  = 150.0
	registerHighHz = 250.0
)

// Frames with a peak autocorrelation below this are treated as unvoiced.
const voicingThreshold = 0.5

// Jitter is meaningless with only a handful of voiced frames.
const minVoicedFramesForJitter = 10

// logFloor keeps the dB conversion defined for silent frames.
const logFloor = 1e-6

// SignalConfig parameterizes windowed analysis.
type SignalConfig struct {
	SampleRate int
	FrameSize  int // Samples per analysis frame
	HopSize    int // Samples between frame starts
}

// DefaultSignalConfig returns the analysis windowing used for 16 kHz speech.
func DefaultSignalConfig(sampleRate int) SignalConfig {
	return SignalConfig{
		SampleRate: sampleRate,
		FrameSize:  1024,
		HopSize:    512,
	}
}

// VoiceRange is the coarse pitch-band distribution of voiced frames.
// Percentages may sum below 100 when few frames carried pitch.
type VoiceRange struct {
	LowPct   float64 `json:"low"`
	MidPct   float64 `json:"mid"`
	HighPct  float64 `json:"high"`
	Dominant string  `json:"dominant"` // "low", "mid", "high", or "none"
}

// SignalFeatures holds the windowed metrics for one PCM buffer.
// All fields are defined (zero, not NaN) for degenerate input.
type SignalFeatures struct {
	// Insufficient marks buffers too short or empty for analysis.
	// Downstream scoring treats such a feature set as absent data.
	Insufficient bool `json:"insufficient"`

	DurationSeconds float64 `json:"duration_seconds"`
	FrameCount      int     `json:"frame_count"`
	VoicedFrames    int     `json:"voiced_frames"`

	VolumeMeanDB float64 `json:"volume_mean_db"`
	VolumeStdDB  float64 `json:"volume_std_db"`

	// PitchMean and PitchVariance are computed over voiced frames only.
	// Zero voiced frames yields 0.0 for both.
	PitchMean     float64 `json:"pitch_mean"`
	PitchVariance float64 `json:"pitch_variance"`

	// Jitter is the mean absolute frame-to-frame pitch delta in Hz.
	Jitter float64 `json:"jitter"`

	// ZeroCrossingRate approximates vocal tension when pitch data is thin.
	ZeroCrossingRate float64 `json:"zero_crossing_rate"`

	// EnergyVariance is the standard deviation of frame RMS values.
	EnergyVariance float64 `json:"energy_variance"`

	Register VoiceRange `json:"voice_range"`
}

// AnalyzeBuffer computes windowed signal metrics over a decoded mono PCM
// buffer. Pure function of its input; never returns NaN in any field.
func AnalyzeBuffer(samples []float64, cfg SignalConfig) SignalFeatures {
	if cfg.SampleRate <= 0 || cfg.FrameSize <= 0 || cfg.HopSize <= 0 {
		return SignalFeatures{Insufficient: true, Register: VoiceRange{Dominant: "none"}}
	}
	if len(samples) < cfg.FrameSize {
		return SignalFeatures{
			Insufficient:    true,
			DurationSeconds: float64(len(samples)) / float64(cfg.SampleRate),
			Register:        VoiceRange{Dominant: "none"},
		}
	}

	var (
		frameDBs    []float64
		frameRMS    []float64
		pitchValues []float64
	)

	for start := 0; start+cfg.FrameSize <= len(samples); start += cfg.HopSize {
		frame := samples[start : start+cfg.FrameSize]

		rms := rootMeanSquare(frame)
		frameRMS = append(frameRMS, rms)
		frameDBs = append(frameDBs, 20*math.Log10(rms+logFloor))

		if pitch := estimatePitch(frame, cfg.SampleRate); pitch > 0 {
			pitchValues = append(pitchValues, pitch)
		}
	}

	features := SignalFeatures{
		DurationSeconds:  float64(len(samples)) / float64(cfg.SampleRate),
		FrameCount:       len(frameDBs),
		VoicedFrames:     len(pitchValues),
		ZeroCrossingRate: ZeroCrossingRate(samples),
	}

	features.VolumeMeanDB, features.VolumeStdDB = meanStd(frameDBs)
	_, features.EnergyVariance = meanStd(frameRMS)

	// Unvoiced frames are excluded from pitch statistics rather than
	// coerced to zero; a completely unvoiced buffer reports 0.0.
	if len(pitchValues) > 0 {
		features.PitchMean, features.PitchVariance = meanStd(pitchValues)
	}

	if len(pitchValues) > minVoicedFramesForJitter {
		features.Jitter = meanAbsDelta(pitchValues)
	}

	features.Register = classifyRegister(pitchValues)

	return features
}

// estimatePitch returns the fundamental frequency of one frame in Hz via
// normalized autocorrelation, or 0 when the frame is unvoiced.
func estimatePitch(frame []float64, sampleRate int) float64 {
	rms := rootMeanSquare(frame)
	if rms < 1e-4 {
		return 0
	}

	minLag := int(float64(sampleRate) / MaxPitchHz)
	maxLag := int(float64(sampleRate) / MinPitchHz)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	if minLag >= maxLag {
		return 0
	}

	energy := 0.0
	for _, v := range frame {
		energy += v * v
	}
	if energy == 0 {
		return 0
	}

	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		corr := 0.0
		lagEnergy := 0.0
		for i := 0; i < len(frame)-lag; i++ {
			corr += frame[i] * frame[i+lag]
			lagEnergy += frame[i+lag] * frame[i+lag]
		}
		if lagEnergy == 0 {
			continue
		}
		norm := corr / math.Sqrt(energy*lagEnergy)
		if norm > bestCorr {
			bestCorr = norm
			bestLag = lag
		}
	}

	if bestLag == 0 || bestCorr < voicingThreshold {
		return 0
	}
	return float64(sampleRate) / float64(bestLag)
}

// classifyRegister buckets voiced-frame pitches into low/mid/high bands.
func classifyRegister(pitchValues []float64) VoiceRange {
	if len(pitchValues) == 0 {
		return VoiceRange{Dominant: "none"}
	}

	var low, high int
	for _, p := range pitchValues {
		switch {
		case p < registerLowHz:
			low++
		case p > registerHighHz:
			high++
		}
	}
	mid := len(pitchValues) - low - high
	total := float64(len(pitchValues))

	vr := VoiceRange{
		LowPct:  float64(low) / total * 100,
		MidPct:  float64(mid) / total * 100,
		HighPct: float64(high) / total * 100,
	}

	vr.Dominant = "mid"
	if vr.LowPct > vr.MidPct && vr.LowPct > vr.HighPct {
		vr.Dominant = "low"
	} else if vr.HighPct > vr.MidPct && vr.HighPct > vr.LowPct {
		vr.Dominant = "high"
	}
	return vr
}

// ZeroCrossingRate returns sign changes per sample over the whole buffer.
func ZeroCrossingRate(samples []float64) float64 {
	if len(samples) <= 1 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0 && samples[i] < 0) || (samples[i-1] < 0 && samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

func rootMeanSquare(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range samples {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func meanAbsDelta(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(values); i++ {
		sum += math.Abs(values[i] - values[i-1])
	}
	return sum / float64(len(values)-1)
}
