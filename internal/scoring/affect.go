package scoring

// Affect is the confidence/nervousness estimate derived from pitch and
// energy stability. Stability is the complement of nervousness.
type Affect struct {
	Confidence  int      `json:"confidence_score"`
	Nervousness int      `json:"nervousness_score"`
	Stability   int      `json:"voice_stability"`
	Feedback    []string `json:"feedback"`
}

// EstimateAffect scores confidence and nervousness from fixed
// thresholds over pitch variance, jitter, and energy variance, starting
// from baselines of 50 and 30. Degenerate input (all zeros) lands on a
// confident, relaxed reading rather than an error.
func EstimateAffect(f FeatureSet) Affect {
	confidence := 50
	switch {
	case f.PitchVariance < 30:
		confidence += 20
	case f.PitchVariance < 50:
		confidence += 10
	}
	switch {
	case f.EnergyVariance < 0.05:
		confidence += 15
	case f.EnergyVariance < 0.1:
		confidence += 5
	}
	if f.Jitter < 5 {
		confidence += 15
	}

	nervousness := 30
	switch {
	case f.PitchVariance > 50:
		nervousness += 25
	case f.PitchVariance > 30:
		nervousness += 15
	}
	switch {
	case f.Jitter > 10:
		nervousness += 20
	case f.Jitter > 5:
		nervousness += 10
	}
	if f.EnergyVariance > 0.1 {
		nervousness += 15
	}

	a := Affect{
		Confidence:  clamp(confidence),
		Nervousness: clamp(nervousness),
	}
	a.Stability = 100 - a.Nervousness
	a.Feedback = affectFeedback(a, f.Jitter)
	return a
}

// affectFeedback renders the threshold-based coaching lines.
func affectFeedback(a Affect, jitter float64) []string {
	var lines []string

	switch {
	case a.Confidence > 70:
		lines = append(lines, "Confident delivery: the tone is steady and carries conviction.")
	case a.Confidence > 50:
		lines = append(lines, "Reasonably confident delivery; projecting a little more would strengthen the impression.")
	default:
		lines = append(lines, "Delivery sounds unsure; rehearse the material until the phrasing feels certain.")
	}

	switch {
	case a.Nervousness > 70:
		lines = append(lines, "Tension is high; a slow breath before answering would help settle the voice.")
	case a.Nervousness > 50:
		lines = append(lines, "Slightly tense delivery; thorough preparation should calm the nerves.")
	default:
		lines = append(lines, "Relaxed delivery; keep this up.")
	}

	switch {
	case jitter > 10:
		lines = append(lines, "Noticeable vocal tremor; slowing down should steady the voice.")
	case jitter > 5:
		lines = append(lines, "The voice wavers slightly; aim for an even tone.")
	}

	return lines
}
