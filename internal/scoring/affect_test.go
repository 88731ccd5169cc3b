package scoring

import (
	"strings"
	"testing"
)

func TestEstimateAffect_SteadyVoice(t *testing.T) {
	a := EstimateAffect(FeatureSet{
		PitchVariance:  20,
		Jitter:         2,
		EnergyVariance: 0.02,
	})

	// 50 + 20 (low pitch variance) + 15 (low energy) + 15 (low jitter)
	if a.Confidence != 100 {
		t.Errorf("Expected Confidence 100, got %d", a.Confidence)
	}
	if a.Nervousness != 30 {
		t.Errorf("Expected baseline Nervousness 30, got %d", a.Nervousness)
	}
	if a.Stability != 70 {
		t.Errorf("Expected Stability 70, got %d", a.Stability)
	}
}

func TestEstimateAffect_ShakyVoice(t *testing.T) {
	a := EstimateAffect(FeatureSet{
		PitchVariance:  80,
		Jitter:         12,
		EnergyVariance: 0.2,
	})

	// Confidence stays at the 50 baseline; nervousness 30+25+20+15 = 90
	if a.Confidence != 50 {
		t.Errorf("Expected Confidence 50, got %d", a.Confidence)
	}
	if a.Nervousness != 90 {
		t.Errorf("Expected Nervousness 90, got %d", a.Nervousness)
	}
	if a.Stability != 10 {
		t.Errorf("Expected Stability 10, got %d", a.Stability)
	}
}

func TestEstimateAffect_MidBands(t *testing.T) {
	a := EstimateAffect(FeatureSet{
		PitchVariance:  40, // +10 confidence, +15 nervousness
		Jitter:         7,  // +10 nervousness
		EnergyVariance: 0.07,
	})

	if a.Confidence != 65 { // 50 + 10 + 5
		t.Errorf("Expected Confidence 65, got %d", a.Confidence)
	}
	if a.Nervousness != 55 { // 30 + 15 + 10
		t.Errorf("Expected Nervousness 55, got %d", a.Nervousness)
	}
}

func TestEstimateAffect_FeedbackLines(t *testing.T) {
	shaky := EstimateAffect(FeatureSet{PitchVariance: 80, Jitter: 12, EnergyVariance: 0.2})

	if len(shaky.Feedback) != 3 {
		t.Fatalf("Expected 3 feedback lines for shaky voice, got %d: %v",
			len(shaky.Feedback), shaky.Feedback)
	}
	if !strings.Contains(shaky.Feedback[2], "tremor") {
		t.Errorf("Expected tremor line for jitter > 10, got %q", shaky.Feedback[2])
	}

	steady := EstimateAffect(FeatureSet{PitchVariance: 20, Jitter: 2, EnergyVariance: 0.02})
	if len(steady.Feedback) != 2 {
		t.Fatalf("Expected 2 feedback lines for steady voice, got %d", len(steady.Feedback))
	}
	if !strings.Contains(steady.Feedback[0], "Confident") {
		t.Errorf("Expected confident line first, got %q", steady.Feedback[0])
	}
	if !strings.Contains(steady.Feedback[1], "Relaxed") {
		t.Errorf("Expected relaxed line second, got %q", steady.Feedback[1])
	}
}
