package audio

import "math"

// Frames below this absolute level are silent no matter where the peak
// sits; without it a pure-silence buffer would classify as all-voiced
// because every frame is within the relative threshold of its own peak.
const silenceFloorDB = -60.0

// PauseConfig parameterizes voiced/silence segmentation.
type PauseConfig struct {
	SampleRate int
	FrameSize  int
	HopSize    int

	// SilenceThresholdDB is measured below the buffer's peak frame level.
	SilenceThresholdDB float64

	// MinPauseSeconds is the shortest gap counted as a pause. The
	// boundary is inclusive: a gap of exactly this length is a pause.
	MinPauseSeconds float64
}

// DefaultPauseConfig mirrors the common offline-analysis settings.
func DefaultPauseConfig(sampleRate int) PauseConfig {
	return PauseConfig{
		SampleRate:         sampleRate,
		FrameSize:          1024,
		HopSize:            512,
		SilenceThresholdDB: 40,
		MinPauseSeconds:    0.5,
	}
}

// Interval is a half-open time span in seconds.
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the interval length in seconds.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// PauseReport summarizes voiced intervals and qualifying pauses.
type PauseReport struct {
	VoicedIntervals []Interval `json:"voiced_intervals"`
	Pauses          []Interval `json:"pauses"`
	PauseCount      int        `json:"pause_count"`
	PauseTotal      float64    `json:"pause_total_duration"`
}

// SegmentPauses detects voiced intervals against a relative silence
// threshold and reports the gaps between them that meet the minimum
// pause duration. A buffer with no voiced content reports its entire
// duration as a single pause; a single voiced interval reports zero
// pauses.
func SegmentPauses(samples []float64, cfg PauseConfig) PauseReport {
	if len(samples) == 0 || cfg.SampleRate <= 0 || cfg.FrameSize <= 0 || cfg.HopSize <= 0 {
		return PauseReport{}
	}

	duration := float64(len(samples)) / float64(cfg.SampleRate)

	// Frame-level dB, relative to the loudest frame.
	type frameInfo struct {
		start float64
		end   float64
		db    float64
	}
	var frames []frameInfo
	peakDB := math.Inf(-1)
	for start := 0; start < len(samples); start += cfg.HopSize {
		end := start + cfg.FrameSize
		if end > len(samples) {
			end = len(samples)
		}
		db := 20 * math.Log10(rootMeanSquare(samples[start:end])+logFloor)
		frames = append(frames, frameInfo{
			start: float64(start) / float64(cfg.SampleRate),
			end:   float64(end) / float64(cfg.SampleRate),
			db:    db,
		})
		if db > peakDB {
			peakDB = db
		}
		if end == len(samples) {
			break
		}
	}

	cutoff := peakDB - cfg.SilenceThresholdDB

	// Merge consecutive voiced frames into intervals.
	var voiced []Interval
	for _, fr := range frames {
		if fr.db <= cutoff || fr.db <= silenceFloorDB {
			continue
		}
		if n := len(voiced); n > 0 && fr.start <= voiced[n-1].End {
			if fr.end > voiced[n-1].End {
				voiced[n-1].End = fr.end
			}
			continue
		}
		voiced = append(voiced, Interval{Start: fr.start, End: fr.end})
	}

	report := PauseReport{VoicedIntervals: voiced}

	if len(voiced) == 0 {
		// Nothing voiced: the whole buffer is one long pause.
		report.Pauses = []Interval{{Start: 0, End: duration}}
		report.PauseCount = 1
		report.PauseTotal = duration
		return report
	}

	for i := 0; i < len(voiced)-1; i++ {
		gap := Interval{Start: voiced[i].End, End: voiced[i+1].Start}
		if gap.Duration() >= cfg.MinPauseSeconds {
			report.Pauses = append(report.Pauses, gap)
			report.PauseTotal += gap.Duration()
		}
	}
	report.PauseCount = len(report.Pauses)
	return report
}
