package mystery

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murdermystery/internal/llm"
)

// mockCompleter returns canned JSON keyed by schema name. Suspect
// calls pop from a queue so each parallel sub-agent gets a distinct
// draft.
type mockCompleter struct {
	mu        sync.Mutex
	responses map[string]string
	suspects  []string
	failOn    string
	calls     []string
}

func (m *mockCompleter) CompleteJSONSchema(ctx context.Context, req llm.JSONSchemaCompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req.SchemaName)

	if m.failOn == req.SchemaName {
		return "", errors.New("model unavailable")
	}
	if req.SchemaName == "suspect_draft" {
		if len(m.suspects) == 0 {
			return "", errors.New("mock ran out of suspect drafts")
		}
		out := m.suspects[0]
		m.suspects = m.suspects[1:]
		return out, nil
	}
	out, ok := m.responses[req.SchemaName]
	if !ok {
		return "", errors.New("unexpected schema " + req.SchemaName)
	}
	return out, nil
}

func suspectJSON(name, role string) string {
	draft := SuspectDraft{
		Name: name, Role: role,
		Personality: "guarded", Alibi: "was in the dining room",
		Secret: "owes money", ClueTheyKnow: "heard raised voices",
		Gender: "female", Age: "middle_aged", Nationality: "british",
	}
	b, _ := json.Marshal(draft)
	return string(b)
}

func newMockCompleter() *mockCompleter {
	skeleton := Skeleton{
		Setting:          "Blackwood Manor",
		VictimName:       "Lord Edmund Blackwood",
		VictimBackground: "reclusive industrialist",
		MurdererIndex:    2,
		Weapon:           "letter opener",
		Motive:           "blackmail gone wrong",
		SuspectBriefs:    []string{"the butler", "the estranged wife", "the family physician", "the business partner"},
		ClueLocations:    []string{"the study", "the library", "the conservatory", "the cellar", "the garden"},
	}
	skeletonJSON, _ := json.Marshal(skeleton)

	clues := ClueSet{Clues: []Clue{
		{ID: "clue_1", Description: "a bloodied handkerchief", Location: "the study", Significance: "points at the physician"},
		{ID: "clue_2", Description: "a torn letter", Location: "the library", Significance: "reveals the blackmail"},
		{ID: "clue_3", Description: "muddy footprints", Location: "the conservatory", Significance: "red herring"},
		{ID: "clue_4", Description: "an empty vial", Location: "the cellar", Significance: "the physician's supplies"},
		{ID: "clue_5", Description: "a pawn ticket", Location: "the garden", Significance: "red herring"},
	}}
	cluesJSON, _ := json.Marshal(clues)

	return &mockCompleter{
		responses: map[string]string{
			"mystery_premise":  `{"setting": "Blackwood Manor", "victim_name": "Lord Edmund Blackwood", "victim_background": "reclusive industrialist"}`,
			"mystery_skeleton": string(skeletonJSON),
			"clue_set":         string(cluesJSON),
		},
		suspects: []string{
			suspectJSON("James Whitmore", "butler"),
			suspectJSON("Lady Margaret Blackwood", "estranged wife"),
			suspectJSON("Dr. Helena Voss", "family physician"),
			suspectJSON("Thomas Reed", "business partner"),
		},
	}
}

type stubVoices struct{}

func (stubVoices) AssignVoices(suspects []Suspect) map[string]string {
	out := make(map[string]string)
	for _, s := range suspects {
		out[s.Name] = "voice-" + s.Role
	}
	return out
}

func (stubVoices) VoiceSummary() string { return "Aria: female, young, american" }

func TestGeneratePremise(t *testing.T) {
	g := NewGenerator(newMockCompleter(), nil, "", "", nil)

	premise, err := g.GeneratePremise(context.Background(), "1920s", "noir")
	require.NoError(t, err)
	assert.Equal(t, "Blackwood Manor", premise.Setting)
	assert.Equal(t, "Lord Edmund Blackwood", premise.VictimName)
}

func TestGenerateFullMystery(t *testing.T) {
	mock := newMockCompleter()
	g := NewGenerator(mock, stubVoices{}, "", "", nil)

	premise := &Premise{Setting: "Blackwood Manor", VictimName: "Lord Edmund Blackwood"}
	mystery, err := g.Generate(context.Background(), premise, "1920s", "noir")
	require.NoError(t, err)

	require.Len(t, mystery.Suspects, 4)
	require.Len(t, mystery.Clues, 5)

	guilty := mystery.GuiltySuspect()
	require.NotNil(t, guilty)
	assert.Equal(t, mystery.Murderer, guilty.Name)

	guiltyCount := 0
	for _, s := range mystery.Suspects {
		if s.IsGuilty {
			guiltyCount++
		}
		assert.NotEmpty(t, s.VoiceID, "suspect %s should have a voice", s.Name)
	}
	assert.Equal(t, 1, guiltyCount)

	// One skeleton call, four suspect calls, one clue call.
	skeletonCalls, suspectCalls, clueCalls := 0, 0, 0
	for _, c := range mock.calls {
		switch c {
		case "mystery_skeleton":
			skeletonCalls++
		case "suspect_draft":
			suspectCalls++
		case "clue_set":
			clueCalls++
		}
	}
	assert.Equal(t, 1, skeletonCalls)
	assert.Equal(t, 4, suspectCalls)
	assert.Equal(t, 1, clueCalls)
}

func TestGenerateFailsWhenSubAgentFails(t *testing.T) {
	mock := newMockCompleter()
	mock.failOn = "clue_set"
	g := NewGenerator(mock, nil, "", "", nil)

	_, err := g.Generate(context.Background(), &Premise{}, "1920s", "noir")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clue generation failed")
}

func TestGenerateSkeletonRejectsMalformedCounts(t *testing.T) {
	mock := newMockCompleter()
	mock.responses["mystery_skeleton"] = `{"setting": "x", "victim_name": "y", "victim_background": "z", "murderer_index": 0, "weapon": "w", "motive": "m", "suspect_briefs": ["only one"], "clue_locations": ["a", "b", "c", "d", "e"]}`
	g := NewGenerator(mock, nil, "", "", nil)

	_, err := g.GenerateSkeleton(context.Background(), &Premise{}, "1920s", "noir")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suspect briefs")
}

func TestAssembleMarksMurdererFromIndex(t *testing.T) {
	g := NewGenerator(newMockCompleter(), nil, "", "", nil)

	skeleton := &Skeleton{MurdererIndex: 1, Setting: "s", VictimName: "v", Weapon: "w", Motive: "m"}
	drafts := []*SuspectDraft{
		{Name: "Alpha", Role: "butler"},
		{Name: "Beta", Role: "physician"},
	}
	clueSet := &ClueSet{}

	mystery := g.Assemble(skeleton, drafts, clueSet)
	assert.Equal(t, "Beta", mystery.Murderer)
	assert.False(t, mystery.Suspects[0].IsGuilty)
	assert.True(t, mystery.Suspects[1].IsGuilty)
}

func TestAssembleAssignsLocationHints(t *testing.T) {
	g := NewGenerator(newMockCompleter(), nil, "", "", nil)

	skeleton := &Skeleton{MurdererIndex: 0, Setting: "s", VictimName: "v"}
	drafts := []*SuspectDraft{
		{Name: "Alpha"},
		{Name: "Beta"},
		{Name: "Gamma"},
	}
	clueSet := &ClueSet{Clues: []Clue{
		{ID: "c1", Location: "the study"},
		{ID: "c2", Location: "the cellar"},
		{ID: "c3", Location: "the study"},
	}}

	mystery := g.Assemble(skeleton, drafts, clueSet)

	// Distinct locations in clue order; the surplus suspect holds none.
	assert.Equal(t, "the study", mystery.Suspects[0].LocationHint)
	assert.Equal(t, "the cellar", mystery.Suspects[1].LocationHint)
	assert.Empty(t, mystery.Suspects[2].LocationHint)
}
