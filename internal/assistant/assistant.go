// Package assistant implements the investigation assistant: structured
// analyses built from what the player has actually uncovered. It never
// sees the oracle's ground truth, so its conclusions are only as good
// as the evidence on the table.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"murdermystery/internal/debug"
	"murdermystery/internal/llm"
)

// CaseView is the player-visible slice of a session handed to the
// assistant. The game layer builds it from discovered state only.
type CaseView struct {
	Setting          string              `json:"setting"`
	VictimName       string              `json:"victim_name"`
	VictimBackground string              `json:"victim_background"`
	Suspects         []SuspectView       `json:"suspects"`
	CluesFound       []ClueView          `json:"clues_found"`
	TotalClues       int                 `json:"total_clues"`
	SearchedPlaces   []string            `json:"locations_searched"`
	WrongAccusations int                 `json:"wrong_accusations"`
	Contradictions   []string            `json:"contradictions"`
	Statements       map[string][]string `json:"statements"`
	Testimony        []string            `json:"recorded_testimony,omitempty"`
}

type SuspectView struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Personality string `json:"personality"`
	Alibi       string `json:"alibi"`
	Interviewed bool   `json:"interviewed"`
}

type ClueView struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	Significance string `json:"significance"`
}

// EvidenceAnalysis is the assistant's reading of one clue.
type EvidenceAnalysis struct {
	ClueID             string   `json:"clue_id"`
	Description        string   `json:"description"`
	SuspectsImplicated []string `json:"suspects_implicated"`
	SignificanceRating int      `json:"significance_rating"`
	Connections        []string `json:"connections"`
}

// SuspectProfile is a per-suspect assessment.
type SuspectProfile struct {
	Name                 string   `json:"name"`
	SuspicionLevel       int      `json:"suspicion_level"`
	KeyInconsistencies   []string `json:"key_inconsistencies"`
	AlibiStrength        string   `json:"alibi_strength"`
	MotiveStrength       string   `json:"motive_strength"`
	RecommendedQuestions []string `json:"recommended_questions"`
}

// Report is the full case analysis.
type Report struct {
	CaseSummary        string             `json:"case_summary"`
	ProgressPercent    float64            `json:"progress_percent"`
	EvidenceAnalysis   []EvidenceAnalysis `json:"evidence_analysis"`
	SuspectProfiles    []SuspectProfile   `json:"suspect_profiles"`
	PrimarySuspect     string             `json:"primary_suspect"`
	ConfidenceLevel    int                `json:"confidence_level"`
	RecommendedActions []string           `json:"recommended_actions"`
	MissingEvidence    []string           `json:"missing_evidence"`
}

// Suggestion is one recommended next move.
type Suggestion struct {
	Action    string `json:"action"`
	Target    string `json:"target"`
	Reasoning string `json:"reasoning"`
	Priority  int    `json:"priority"`
}

type schemaCompleter interface {
	CompleteJSONSchema(ctx context.Context, req llm.JSONSchemaCompletionRequest) (string, error)
}

type Assistant struct {
	llm   schemaCompleter
	model string
	debug *debug.Logger
}

func New(svc schemaCompleter, model string, dbg *debug.Logger) *Assistant {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Assistant{llm: svc, model: model, debug: dbg}
}

// AnalyzeCase produces a full investigation report from the visible
// state.
func (a *Assistant) AnalyzeCase(ctx context.Context, view CaseView) (*Report, error) {
	prompt := buildCasePrompt(view)

	raw, err := a.llm.CompleteJSONSchema(ctx, llm.JSONSchemaCompletionRequest{
		SystemPrompt: "You are a brilliant detective assistant analyzing a murder case. Be thorough and analytical, and reason only from the evidence presented.",
		UserPrompt:   prompt,
		MaxTokens:    1500,
		Model:        a.model,
		SchemaName:   "investigation_report",
		Schema:       reportSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("case analysis failed: %w", err)
	}

	var report Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("failed to parse case analysis: %w", err)
	}
	return &report, nil
}

// SuggestNextSteps returns up to n prioritized suggestions. A failed
// suggestion ends the list early rather than failing the whole call.
func (a *Assistant) SuggestNextSteps(ctx context.Context, view CaseView, n int) []Suggestion {
	if n <= 0 {
		n = 3
	}
	prompt := buildProgressPrompt(view)

	var suggestions []Suggestion
	for i := 0; i < n; i++ {
		raw, err := a.llm.CompleteJSONSchema(ctx, llm.JSONSchemaCompletionRequest{
			SystemPrompt: fmt.Sprintf("You are a detective mentor. Suggest the priority %d action, distinct from any you would rank higher.", i+1),
			UserPrompt:   prompt,
			MaxTokens:    300,
			Model:        a.model,
			SchemaName:   "next_step",
			Schema:       suggestionSchema(),
		})
		if err != nil {
			if a.debug != nil {
				a.debug.Printf("suggestion %d failed: %v", i+1, err)
			}
			break
		}
		var s Suggestion
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			if a.debug != nil {
				a.debug.Printf("suggestion %d unparseable: %v", i+1, err)
			}
			break
		}
		s.Priority = i + 1
		suggestions = append(suggestions, s)
	}
	return suggestions
}

// AnalyzeSuspect produces a deep profile of one suspect. The name is
// matched case-insensitively as a substring.
func (a *Assistant) AnalyzeSuspect(ctx context.Context, view CaseView, name string) (*SuspectProfile, error) {
	var suspect *SuspectView
	for i := range view.Suspects {
		if strings.Contains(strings.ToLower(view.Suspects[i].Name), strings.ToLower(name)) {
			suspect = &view.Suspects[i]
			break
		}
	}
	if suspect == nil {
		return nil, fmt.Errorf("no suspect matching %q", name)
	}

	relevant := relevantClues(view.CluesFound, suspect.Name)
	statements := view.Statements[suspect.Name]

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this suspect in detail:\n\nSUSPECT: %s\nRole: %s\nPersonality: %s\nClaimed alibi: %s\nInterviewed: %v\n",
		suspect.Name, suspect.Role, suspect.Personality, suspect.Alibi, suspect.Interviewed)
	if len(statements) > 0 {
		fmt.Fprintf(&b, "\nTHEIR STATEMENTS SO FAR:\n")
		for _, s := range statements {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	if len(view.Testimony) > 0 {
		fmt.Fprintf(&b, "\nWHAT OTHERS HAVE SAID ABOUT THEM:\n")
		for _, t := range view.Testimony {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	if len(relevant) > 0 {
		fmt.Fprintf(&b, "\nPOTENTIALLY RELEVANT EVIDENCE:\n")
		for _, c := range relevant {
			fmt.Fprintf(&b, "- [%s] %s (found: %s)\n", c.ID, c.Description, c.Location)
		}
	}
	fmt.Fprintf(&b, "\nVICTIM: %s - %s\n\nAssess their suspicion level, alibi strength, and suggest questions to ask them.",
		view.VictimName, view.VictimBackground)

	raw, err := a.llm.CompleteJSONSchema(ctx, llm.JSONSchemaCompletionRequest{
		SystemPrompt: "You are an expert detective profiler. Be thorough and analytical.",
		UserPrompt:   b.String(),
		MaxTokens:    600,
		Model:        a.model,
		SchemaName:   "suspect_profile",
		Schema:       profileSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("suspect analysis failed: %w", err)
	}

	var profile SuspectProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse suspect analysis: %w", err)
	}
	profile.Name = suspect.Name
	return &profile, nil
}

func relevantClues(clues []ClueView, suspectName string) []ClueView {
	var relevant []ClueView
	lower := strings.ToLower(suspectName)
	for _, c := range clues {
		if strings.Contains(strings.ToLower(c.Description), lower) {
			relevant = append(relevant, c)
		}
	}
	// A surname mention counts too.
	if len(relevant) == 0 {
		parts := strings.Fields(lower)
		if len(parts) > 1 {
			surname := parts[len(parts)-1]
			for _, c := range clues {
				if strings.Contains(strings.ToLower(c.Description), surname) {
					relevant = append(relevant, c)
				}
			}
		}
	}
	return relevant
}

func buildCasePrompt(view CaseView) string {
	interviewed := 0
	for _, s := range view.Suspects {
		if s.Interviewed {
			interviewed++
		}
	}
	suspects, _ := json.MarshalIndent(view.Suspects, "", "  ")
	clues, _ := json.MarshalIndent(view.CluesFound, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this murder mystery investigation and provide a structured report.\n\n")
	fmt.Fprintf(&b, "CASE DETAILS:\nSetting: %s\nVictim: %s - %s\n\n", view.Setting, view.VictimName, view.VictimBackground)
	fmt.Fprintf(&b, "SUSPECTS (%d/%d interviewed):\n%s\n\n", interviewed, len(view.Suspects), suspects)
	fmt.Fprintf(&b, "EVIDENCE FOUND (%d/%d):\n%s\n\n", len(view.CluesFound), view.TotalClues, clues)
	fmt.Fprintf(&b, "LOCATIONS SEARCHED: %s\n", strings.Join(view.SearchedPlaces, ", "))
	if len(view.Contradictions) > 0 {
		fmt.Fprintf(&b, "\nCONTRADICTIONS CAUGHT:\n")
		for _, c := range view.Contradictions {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	fmt.Fprintf(&b, "\nAnalyze the evidence, assess each suspect, and provide recommendations. Be analytical and detective-like. Consider alibis, motives, and inconsistencies.")
	return b.String()
}

func buildProgressPrompt(view CaseView) string {
	interviewed := 0
	var uninterviewed []string
	for _, s := range view.Suspects {
		if s.Interviewed {
			interviewed++
		} else {
			uninterviewed = append(uninterviewed, s.Name)
		}
	}
	clues, _ := json.MarshalIndent(view.CluesFound, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "Based on this investigation state, suggest the most important next action.\n\n")
	fmt.Fprintf(&b, "PROGRESS:\n- %d/%d clues found\n- %d/%d suspects interviewed\n- Locations searched: %s\n- Wrong accusations: %d/3\n\n",
		len(view.CluesFound), view.TotalClues, interviewed, len(view.Suspects),
		strings.Join(view.SearchedPlaces, ", "), view.WrongAccusations)
	fmt.Fprintf(&b, "UNINTERVIEWED SUSPECTS: %s\nCLUES STILL HIDDEN: %d\n\n",
		strings.Join(uninterviewed, ", "), view.TotalClues-len(view.CluesFound))
	fmt.Fprintf(&b, "EVIDENCE FOUND:\n%s\n\nWhat should the player do next to make progress?", clues)
	return b.String()
}
