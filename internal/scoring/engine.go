package scoring

import "math"

// AxisScores is the twelve-axis voice personality profile. Each axis is
// clamped to [0, 100]. Field order matters: Summarize breaks dominant
// ties by this order.
type AxisScores struct {
	Social         int `json:"social"`          // clarity and steadiness
	Action         int `json:"action"`          // energy level
	Emotion        int `json:"emotion"`         // pitch expressiveness
	Instinct       int `json:"instinct"`        // low-register usage
	Presence       int `json:"presence"`        // pitch height and stability
	SelfExpression int `json:"self_expression"` // mid-register usage
	Harmony        int `json:"harmony"`         // vocal softness (low jitter)
	Balance        int `json:"balance"`         // energy steadiness
	Adaptation     int `json:"adaptation"`      // pause placement
	Thinking       int `json:"thinking"`        // high-register usage
	Analysis       int `json:"analysis"`        // pitch precision
	Sensation      int `json:"sensation"`       // overall richness
}

// Summary condenses an axis profile into the headline numbers shown in
// reports.
type Summary struct {
	Average         float64 `json:"average"`
	DominantTrait   string  `json:"dominant_trait"`
	DominantScore   int     `json:"dominant_score"`
	PersonalityType string  `json:"personality_type"`
}

// Personality labels produced by Summarize.
const (
	PersonalityExpressiveSocial        = "expressive-social"
	PersonalityLogicalHarmonious       = "logical-harmonious"
	PersonalityPassionateIntuitive     = "passionate-intuitive"
	PersonalityIntrospectiveAnalytical = "introspective-analytical"
	PersonalityBalanced                = "balanced"
)

// Score derives the twelve axes from one speaker's feature set. Every
// axis is defined for degenerate input (silence, zero duration); the
// formulas bottom out at their baselines instead of NaN or panic.
func Score(f FeatureSet) AxisScores {
	low, mid, high := f.registerPcts()
	pauseRate := f.pauseRate()

	social := 70 - int(f.Jitter*5) + minInt(20, int(pauseRate*15))
	action := int(f.EnergyVariance*300 + 40)
	emotion := int(f.PitchVariance/10*50 + 30)
	instinct := int(low * 1.5)
	presence := int(f.PitchMean/250*60 + (100 - f.Jitter*5))
	selfExpr := int(mid * 1.3)
	harmony := 100 - minInt(100, int(f.Jitter*8))
	balance := 100 - minInt(100, int(f.EnergyVariance*800))
	adaptation := 50 + int(pauseRate*30)
	thinking := int(high * 1.8)
	analysis := 100 - minInt(100, int(f.PitchVariance/5))

	s := AxisScores{
		Social:         clamp(social),
		Action:         clamp(action),
		Emotion:        clamp(emotion),
		Instinct:       clamp(instinct),
		Presence:       clamp(presence),
		SelfExpression: clamp(selfExpr),
		Harmony:        clamp(harmony),
		Balance:        clamp(balance),
		Adaptation:     clamp(adaptation),
		Thinking:       clamp(thinking),
		Analysis:       clamp(analysis),
	}
	s.Sensation = clamp((s.Emotion + s.Presence) / 2)
	return s
}

// axisOrder returns name/score pairs in declaration order.
func (s AxisScores) axisOrder() []struct {
	Name  string
	Score int
} {
	return []struct {
		Name  string
		Score int
	}{
		{"social", s.Social},
		{"action", s.Action},
		{"emotion", s.Emotion},
		{"instinct", s.Instinct},
		{"presence", s.Presence},
		{"self_expression", s.SelfExpression},
		{"harmony", s.Harmony},
		{"balance", s.Balance},
		{"adaptation", s.Adaptation},
		{"thinking", s.Thinking},
		{"analysis", s.Analysis},
		{"sensation", s.Sensation},
	}
}

// Summarize computes the profile average (one decimal), the dominant
// axis (first in declaration order on ties), and the personality label.
func Summarize(s AxisScores) Summary {
	axes := s.axisOrder()

	sum := 0
	dominant := axes[0]
	for _, a := range axes {
		sum += a.Score
		if a.Score > dominant.Score {
			dominant = a
		}
	}

	return Summary{
		Average:         math.Round(float64(sum)/float64(len(axes))*10) / 10,
		DominantTrait:   dominant.Name,
		DominantScore:   dominant.Score,
		PersonalityType: personalityType(s),
	}
}

// personalityType applies the fixed rule table over four axes. Rules
// are checked in order; the first match wins.
func personalityType(s AxisScores) string {
	switch {
	case s.Social > 70 && s.Emotion > 60:
		return PersonalityExpressiveSocial
	case s.Thinking > 70 && s.Harmony > 60:
		return PersonalityLogicalHarmonious
	case s.Emotion > 70 && s.Harmony < 50:
		return PersonalityPassionateIntuitive
	case s.Social < 50 && s.Thinking > 60:
		return PersonalityIntrospectiveAnalytical
	default:
		return PersonalityBalanced
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
