package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"murdermystery/internal/llm"
)

type scriptedCompleter struct {
	responses map[string]string
	err       error
	calls     int
	prompts   []string
}

func (s *scriptedCompleter) CompleteJSONSchema(_ context.Context, req llm.JSONSchemaCompletionRequest) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, req.UserPrompt)
	if s.err != nil {
		return "", s.err
	}
	return s.responses[req.SchemaName], nil
}

func sampleView() CaseView {
	return CaseView{
		Setting:          "Ravenscroft Manor, winter 1947",
		VictimName:       "Lord Ravenscroft",
		VictimBackground: "A ruthless financier with many enemies.",
		Suspects: []SuspectView{
			{Name: "Edmund Graves", Role: "the butler", Personality: "stern, loyal", Alibi: "Polishing silver in the pantry", Interviewed: true},
			{Name: "Dr. Helena Voss", Role: "the family physician", Personality: "cold, precise", Alibi: "Reading in the study", Interviewed: false},
		},
		CluesFound: []ClueView{
			{ID: "clue_1", Description: "A monogrammed scalpel traced to Dr. Helena Voss", Location: "conservatory", Significance: "high"},
		},
		TotalClues:       5,
		SearchedPlaces:   []string{"conservatory"},
		WrongAccusations: 1,
		Contradictions:   []string{"Dr. Voss claimed the study, then the library"},
		Statements: map[string][]string{
			"Dr. Helena Voss": {"I was in the study all evening."},
		},
	}
}

func TestAnalyzeCaseParsesReport(t *testing.T) {
	fake := &scriptedCompleter{responses: map[string]string{
		"investigation_report": `{
			"case_summary": "The physician looks guilty.",
			"progress_percent": 40,
			"evidence_analysis": [{"clue_id": "clue_1", "description": "Scalpel", "suspects_implicated": ["Dr. Helena Voss"], "significance_rating": 9, "connections": []}],
			"suspect_profiles": [{"name": "Dr. Helena Voss", "suspicion_level": 80, "key_inconsistencies": ["study vs library"], "alibi_strength": "weak", "motive_strength": "moderate", "recommended_questions": ["Where were you really?"]}],
			"primary_suspect": "Dr. Helena Voss",
			"confidence_level": 70,
			"recommended_actions": ["Interview Dr. Voss"],
			"missing_evidence": ["The murder weapon's origin"]
		}`,
	}}
	a := New(fake, "", nil)

	report, err := a.AnalyzeCase(context.Background(), sampleView())
	require.NoError(t, err)

	assert.Equal(t, "Dr. Helena Voss", report.PrimarySuspect)
	assert.Equal(t, 70, report.ConfidenceLevel)
	assert.Len(t, report.EvidenceAnalysis, 1)
	assert.Equal(t, 9, report.EvidenceAnalysis[0].SignificanceRating)

	// The prompt carries the visible state, including contradictions.
	require.Len(t, fake.prompts, 1)
	assert.Contains(t, fake.prompts[0], "Lord Ravenscroft")
	assert.Contains(t, fake.prompts[0], "1/5")
	assert.Contains(t, fake.prompts[0], "CONTRADICTIONS CAUGHT")
}

func TestAnalyzeCaseFailure(t *testing.T) {
	a := New(&scriptedCompleter{err: errors.New("llm down")}, "", nil)
	_, err := a.AnalyzeCase(context.Background(), sampleView())
	assert.Error(t, err)
}

func TestSuggestNextStepsAssignsPriorities(t *testing.T) {
	fake := &scriptedCompleter{responses: map[string]string{
		"next_step": `{"action": "interrogate", "target": "Dr. Helena Voss", "reasoning": "Uninterviewed and implicated.", "priority": 1}`,
	}}
	a := New(fake, "", nil)

	suggestions := a.SuggestNextSteps(context.Background(), sampleView(), 3)

	require.Len(t, suggestions, 3)
	for i, s := range suggestions {
		assert.Equal(t, i+1, s.Priority)
		assert.Equal(t, "interrogate", s.Action)
	}
	assert.Equal(t, 3, fake.calls)
}

func TestSuggestNextStepsStopsOnFailure(t *testing.T) {
	a := New(&scriptedCompleter{err: errors.New("llm down")}, "", nil)
	suggestions := a.SuggestNextSteps(context.Background(), sampleView(), 3)
	assert.Empty(t, suggestions)
}

func TestAnalyzeSuspectMatchesPartialName(t *testing.T) {
	fake := &scriptedCompleter{responses: map[string]string{
		"suspect_profile": `{"name": "", "suspicion_level": 85, "key_inconsistencies": ["study vs library"], "alibi_strength": "weak", "motive_strength": "strong", "recommended_questions": ["Explain the scalpel."]}`,
	}}
	a := New(fake, "", nil)

	profile, err := a.AnalyzeSuspect(context.Background(), sampleView(), "voss")
	require.NoError(t, err)

	// The canonical name wins over whatever the model echoed back.
	assert.Equal(t, "Dr. Helena Voss", profile.Name)
	assert.Equal(t, 85, profile.SuspicionLevel)

	// Her statement and the implicating clue both reach the prompt.
	require.Len(t, fake.prompts, 1)
	assert.Contains(t, fake.prompts[0], "I was in the study all evening.")
	assert.Contains(t, fake.prompts[0], "monogrammed scalpel")
}

func TestAnalyzeSuspectUnknownName(t *testing.T) {
	a := New(&scriptedCompleter{}, "", nil)
	_, err := a.AnalyzeSuspect(context.Background(), sampleView(), "Inspector Nobody")
	assert.Error(t, err)
}
