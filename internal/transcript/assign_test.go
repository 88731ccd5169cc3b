package transcript

import (
	"reflect"
	"testing"
)

func TestAssignSpeakers_MaxOverlapWins(t *testing.T) {
	segments := []Segment{
		{Start: 0.0, End: 4.0, Text: "tell me about yourself"},
		{Start: 4.0, End: 10.0, Text: "I have five years of experience"},
	}
	turns := []Turn{
		{Start: 0.0, End: 4.5, Speaker: 0},
		{Start: 4.5, End: 10.0, Speaker: 1},
	}

	got := AssignSpeakers(segments, turns)

	if got[0].Speaker != "speaker-0" {
		t.Errorf("Expected first segment assigned to speaker-0, got %s", got[0].Speaker)
	}
	// Second segment overlaps speaker-0 for 0.5s and speaker-1 for 5.5s
	if got[1].Speaker != "speaker-1" {
		t.Errorf("Expected second segment assigned to speaker-1, got %s", got[1].Speaker)
	}
}

func TestAssignSpeakers_NoOverlapIsUnknown(t *testing.T) {
	segments := []Segment{{Start: 20.0, End: 22.0, Text: "trailing words"}}
	turns := []Turn{{Start: 0.0, End: 10.0, Speaker: 0}}

	got := AssignSpeakers(segments, turns)

	if got[0].Speaker != SpeakerUnknown {
		t.Errorf("Expected unknown speaker for non-overlapping segment, got %s", got[0].Speaker)
	}
}

func TestAssignSpeakers_EmptyTurns(t *testing.T) {
	segments := []Segment{{Start: 0, End: 2, Text: "hello"}}

	got := AssignSpeakers(segments, nil)

	if got[0].Speaker != SpeakerUnknown {
		t.Errorf("Expected unknown speaker without diarization, got %s", got[0].Speaker)
	}
}

func TestAssignSpeakers_TieGoesToEarlierTurn(t *testing.T) {
	// Both speakers overlap the segment for exactly 1s; speaker 1's
	// overlapping turn starts earlier
	segments := []Segment{{Start: 1.0, End: 3.0, Text: "crosstalk"}}
	turns := []Turn{
		{Start: 2.0, End: 3.0, Speaker: 0},
		{Start: 1.0, End: 2.0, Speaker: 1},
	}

	got := AssignSpeakers(segments, turns)

	if got[0].Speaker != "speaker-1" {
		t.Errorf("Expected tie broken by earlier turn start, got %s", got[0].Speaker)
	}
}

func TestAssignSpeakers_Idempotent(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 2, Text: "a"},
		{Start: 3, End: 5, Text: "b"},
	}
	turns := []Turn{
		{Start: 0, End: 2.5, Speaker: 0},
		{Start: 2.5, End: 5, Speaker: 1},
	}

	once := AssignSpeakers(segments, turns)
	twice := AssignSpeakers(once, turns)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Re-assignment changed labels: %+v vs %+v", once, twice)
	}
}

func TestAssignSpeakers_DoesNotMutateInput(t *testing.T) {
	segments := []Segment{{Start: 0, End: 2, Text: "a"}}
	turns := []Turn{{Start: 0, End: 2, Speaker: 0}}

	AssignSpeakers(segments, turns)

	if segments[0].Speaker != "" {
		t.Errorf("Input slice was mutated: %+v", segments[0])
	}
}

func TestResolveRoles_FirstSpeaker(t *testing.T) {
	turns := []Turn{
		{Start: 0.0, End: 4.0, Speaker: 0},
		{Start: 4.0, End: 20.0, Speaker: 1},
		{Start: 20.0, End: 22.0, Speaker: 0},
	}

	roles := ResolveRoles(turns, StrategyFirstSpeaker)

	if roles["speaker-0"] != RoleInterviewer {
		t.Errorf("Expected speaker-0 as interviewer, got %s", roles["speaker-0"])
	}
	if roles["speaker-1"] != RoleCandidate {
		t.Errorf("Expected speaker-1 as candidate, got %s", roles["speaker-1"])
	}
}

func TestResolveRoles_LeastTalkative(t *testing.T) {
	// speaker-1 opens but talks far less overall
	turns := []Turn{
		{Start: 0.0, End: 2.0, Speaker: 1},
		{Start: 2.0, End: 18.0, Speaker: 0},
		{Start: 18.0, End: 20.0, Speaker: 1},
	}

	roles := ResolveRoles(turns, StrategyLeastTalkative)

	if roles["speaker-1"] != RoleInterviewer {
		t.Errorf("Expected least-talkative speaker-1 as interviewer, got %s", roles["speaker-1"])
	}
	if roles["speaker-0"] != RoleCandidate {
		t.Errorf("Expected speaker-0 as candidate, got %s", roles["speaker-0"])
	}
}

func TestResolveRoles_EmptyTurns(t *testing.T) {
	roles := ResolveRoles(nil, StrategyFirstSpeaker)
	if len(roles) != 0 {
		t.Errorf("Expected empty role map without turns, got %v", roles)
	}
}

func TestResolveRoles_SingleSpeaker(t *testing.T) {
	turns := []Turn{{Start: 0, End: 10, Speaker: 0}}

	roles := ResolveRoles(turns, StrategyFirstSpeaker)

	if roles["speaker-0"] != RoleInterviewer {
		t.Errorf("Expected lone speaker as interviewer, got %s", roles["speaker-0"])
	}
}

func TestApplyRoles(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 2, Speaker: "speaker-0"},
		{Start: 2, End: 4, Speaker: "speaker-1"},
		{Start: 4, End: 5, Speaker: SpeakerUnknown},
	}
	roles := map[string]string{
		"speaker-0": RoleInterviewer,
		"speaker-1": RoleCandidate,
	}

	got := ApplyRoles(segments, roles)

	if got[0].Role != RoleInterviewer || got[1].Role != RoleCandidate {
		t.Errorf("Roles not applied: %+v", got)
	}
	if got[2].Role != "" {
		t.Errorf("Expected unknown speaker to keep empty role, got %s", got[2].Role)
	}
}

func TestResolveRoles_ThirdSpeakerKeepsGenericRole(t *testing.T) {
	// Three voices: the opener, the main talker, and a brief interjection
	turns := []Turn{
		{Start: 0.0, End: 10.0, Speaker: 0},
		{Start: 12.0, End: 40.0, Speaker: 1},
		{Start: 42.0, End: 45.0, Speaker: 2},
	}

	roles := ResolveRoles(turns, StrategyFirstSpeaker)
	if roles["speaker-0"] != RoleInterviewer {
		t.Errorf("Expected speaker-0 as interviewer, got %q", roles["speaker-0"])
	}
	if roles["speaker-1"] != RoleCandidate {
		t.Errorf("Expected speaker-1 as candidate, got %q", roles["speaker-1"])
	}
	if roles["speaker-2"] != "speaker-2" {
		t.Errorf("Expected the third speaker to keep a generic role, got %q", roles["speaker-2"])
	}

	// Least-talkative: speaker 2 (3s) interviews, the most talkative of
	// the rest (speaker 1, 28s) is the candidate, speaker 0 stays generic
	roles = ResolveRoles(turns, StrategyLeastTalkative)
	if roles["speaker-2"] != RoleInterviewer {
		t.Errorf("Expected speaker-2 as interviewer, got %q", roles["speaker-2"])
	}
	if roles["speaker-1"] != RoleCandidate {
		t.Errorf("Expected speaker-1 as candidate, got %q", roles["speaker-1"])
	}
	if roles["speaker-0"] != "speaker-0" {
		t.Errorf("Expected speaker-0 to keep a generic role, got %q", roles["speaker-0"])
	}
}

func TestAssignSpeakers_TieBreakIgnoresTurnInputOrder(t *testing.T) {
	// Both speakers overlap the segment for 2.0s. Speaker 1's earliest
	// overlapping turn starts first but is listed last, so the tie
	// break must compare actual start times, not arrival order.
	segments := []Segment{{Start: 2.0, End: 6.0, Text: "overlapping"}}
	turns := []Turn{
		{Start: 4.0, End: 6.0, Speaker: 0},
		{Start: 5.0, End: 6.0, Speaker: 1},
		{Start: 2.0, End: 3.0, Speaker: 1},
	}

	assigned := AssignSpeakers(segments, turns)
	if assigned[0].Speaker != "speaker-1" {
		t.Errorf("Expected speaker-1 via its earlier turn start, got %s", assigned[0].Speaker)
	}
}
