// Package transcript aligns transcription segments with diarization
// turns and maps anonymous speaker labels to conversational roles.
package transcript

import "fmt"

// SpeakerUnknown labels segments that overlap no diarization turn.
const SpeakerUnknown = "unknown"

// Conversation roles assigned to diarized speakers.
const (
	RoleInterviewer = "interviewer"
	RoleCandidate   = "candidate"
)

// Segment is one transcribed utterance with word-level timing collapsed
// to segment bounds.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker string  `json:"speaker,omitempty"`
	Role    string  `json:"role,omitempty"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Turn is one diarization turn: a span attributed to a numbered speaker.
type Turn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker int     `json:"speaker"`
}

// Label returns the canonical speaker label for a diarized speaker index.
func Label(speaker int) string {
	return fmt.Sprintf("speaker-%d", speaker)
}

// overlap returns the length of the intersection of [aStart,aEnd) and
// [bStart,bEnd), or 0 when they do not intersect.
func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}
