package transcript

import "sort"

// Role assignment strategies.
const (
	StrategyFirstSpeaker   = "first-speaker"
	StrategyLeastTalkative = "least-talkative"
)

// AssignSpeakers labels each segment with the diarized speaker whose
// turns overlap it the most in time. Segments overlapping no turn are
// labeled SpeakerUnknown rather than dropped. The input slice is not
// modified; assignment is a pure function, so re-running it over its
// own output yields identical labels.
func AssignSpeakers(segments []Segment, turns []Turn) []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)

	if len(turns) == 0 {
		for i := range out {
			out[i].Speaker = SpeakerUnknown
		}
		return out
	}

	for i := range out {
		// Total overlap per speaker across all of that speaker's turns
		overlapBySpeaker := map[int]float64{}
		firstTurnStart := map[int]float64{}
		for _, turn := range turns {
			ov := overlap(out[i].Start, out[i].End, turn.Start, turn.End)
			if ov <= 0 {
				continue
			}
			if start, seen := firstTurnStart[turn.Speaker]; !seen || turn.Start < start {
				firstTurnStart[turn.Speaker] = turn.Start
			}
			overlapBySpeaker[turn.Speaker] += ov
		}

		if len(overlapBySpeaker) == 0 {
			out[i].Speaker = SpeakerUnknown
			continue
		}

		best := -1
		bestOverlap := 0.0
		for speaker, ov := range overlapBySpeaker {
			switch {
			case ov > bestOverlap:
				best = speaker
				bestOverlap = ov
			case ov == bestOverlap && best >= 0 && firstTurnStart[speaker] < firstTurnStart[best]:
				// Tie on overlap: the speaker whose overlapping turn
				// starts earlier wins
				best = speaker
			}
		}
		out[i].Speaker = Label(best)
	}
	return out
}

// ResolveRoles maps diarized speaker labels to conversation roles.
//
// An interview has exactly two roles. StrategyFirstSpeaker assumes the
// interviewer opens the session: the speaker of the earliest turn
// becomes the interviewer and the next speaker to enter becomes the
// candidate. With StrategyLeastTalkative the speaker with the least
// total turn time is the interviewer and the most talkative of the
// rest is the candidate. Any further speakers keep their generic
// speaker-N label as their role. An empty turn list yields an empty
// map.
func ResolveRoles(turns []Turn, strategy string) map[string]string {
	roles := map[string]string{}
	if len(turns) == 0 {
		return roles
	}

	speakers := map[int]bool{}
	talkTime := map[int]float64{}
	firstStart := map[int]float64{}
	for _, t := range turns {
		if start, seen := firstStart[t.Speaker]; !seen || t.Start < start {
			firstStart[t.Speaker] = t.Start
		}
		speakers[t.Speaker] = true
		talkTime[t.Speaker] += t.End - t.Start
	}

	ids := sortedSpeakers(speakers)

	pick := func(candidates []int, better func(a, b int) bool) int {
		best := candidates[0]
		for _, id := range candidates[1:] {
			if better(id, best) {
				best = id
			}
		}
		return best
	}

	var interviewer int
	switch strategy {
	case StrategyLeastTalkative:
		interviewer = pick(ids, func(a, b int) bool { return talkTime[a] < talkTime[b] })
	default: // StrategyFirstSpeaker
		interviewer = pick(ids, func(a, b int) bool { return firstStart[a] < firstStart[b] })
	}

	rest := make([]int, 0, len(ids)-1)
	for _, id := range ids {
		if id != interviewer {
			rest = append(rest, id)
		}
	}

	roles[Label(interviewer)] = RoleInterviewer
	if len(rest) > 0 {
		var candidate int
		switch strategy {
		case StrategyLeastTalkative:
			candidate = pick(rest, func(a, b int) bool { return talkTime[a] > talkTime[b] })
		default:
			candidate = pick(rest, func(a, b int) bool { return firstStart[a] < firstStart[b] })
		}
		roles[Label(candidate)] = RoleCandidate
		for _, id := range rest {
			if id != candidate {
				roles[Label(id)] = Label(id)
			}
		}
	}
	return roles
}

// ApplyRoles stamps resolved roles onto assigned segments. Segments
// with an unknown speaker keep an empty role.
func ApplyRoles(segments []Segment, roles map[string]string) []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)
	for i := range out {
		out[i].Role = roles[out[i].Speaker]
	}
	return out
}

func sortedSpeakers(set map[int]bool) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
