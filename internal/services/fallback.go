package services

import (
	"strings"
)

// interviewKeywords is the fixed vocabulary the rule-based analyzer
// scans for. Matches are reported in this order, capped at ten.
var interviewKeywords = []string{
	"motivation", "strength", "weakness", "experience", "skill",
	"goal", "team", "leadership", "challenge", "solution",
	"learning", "growth", "contribution", "responsibility", "initiative",
}

// RuleBasedCommentary is the local stand-in for the commentary backend:
// keyword table matching plus heuristic scores from the acoustic
// summary. It always produces a complete Commentary.
func RuleBasedCommentary(transcriptText string, summary AcousticSummary) *Commentary {
	return &Commentary{
		Keywords:          extractKeywords(transcriptText),
		ToneFeedback:      toneFeedback(transcriptText),
		ConfidenceScore:   estimateConfidence(summary),
		NervousnessScore:  estimateNervousness(summary),
		OverallImpression: overallImpression(transcriptText, summary),
		RuleBased:         true,
	}
}

func extractKeywords(text string) []string {
	lower := strings.ToLower(text)

	var found []string
	for _, kw := range interviewKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
			if len(found) == 10 {
				break
			}
		}
	}
	if len(found) == 0 {
		return []string{"no keywords detected"}
	}
	return found
}

// toneFeedback flags casual phrasing that weakens an interview answer.
func toneFeedback(text string) string {
	lower := strings.ToLower(text)

	var issues []string
	for _, marker := range []string{"gonna", "wanna", "kinda", "sorta", "you know", "like, "} {
		if strings.Contains(lower, marker) {
			issues = append(issues, "Casual fillers such as \""+strings.TrimSuffix(marker, ", ")+"\" weaken the answer; prefer full phrasing.")
			break
		}
	}
	if strings.Count(lower, "um") > 3 || strings.Count(lower, "uh") > 3 {
		issues = append(issues, "Frequent hesitation sounds; pausing silently reads as more composed.")
	}

	if len(issues) == 0 {
		return "Tone and phrasing are generally appropriate for an interview."
	}
	return strings.Join(issues, " ")
}

// estimateConfidence scores confidence from volume and pause count.
func estimateConfidence(s AcousticSummary) int {
	confidence := 50

	switch {
	case s.AverageVolumeDB > -20:
		confidence += 20
	case s.AverageVolumeDB > -30:
		confidence += 10
	}
	switch {
	case s.PauseCount < 5:
		confidence += 15
	case s.PauseCount < 10:
		confidence += 5
	}

	return clampScore(confidence)
}

// estimateNervousness scores nervousness from pitch spread and pauses.
func estimateNervousness(s AcousticSummary) int {
	nervousness := 30

	switch {
	case s.PitchVariance > 50:
		nervousness += 25
	case s.PitchVariance > 30:
		nervousness += 15
	}
	switch {
	case s.PauseCount > 10:
		nervousness += 20
	case s.PauseCount > 5:
		nervousness += 10
	}

	return clampScore(nervousness)
}

func overallImpression(text string, s AcousticSummary) string {
	var parts []string

	if len([]rune(text)) > 500 {
		parts = append(parts, "The answers carry substantial content.")
	} else {
		parts = append(parts, "The answers could be developed in more detail.")
	}

	switch {
	case s.PauseCount < 5:
		parts = append(parts, "Delivery flows smoothly.")
	case s.PauseCount > 15:
		parts = append(parts, "Frequent pauses break the flow; a calmer pace would help.")
	}

	return strings.Join(parts, " ")
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
