package mystery

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"murdermystery/internal/debug"
	"murdermystery/internal/llm"
)

// Skeleton is the lightweight framework generated first; the parallel
// sub-agents fill it in. Clue generation only needs the murderer's
// ROLE, not their name, which is what lets suspects and clues run
// concurrently.
type Skeleton struct {
	Setting          string   `json:"setting"`
	VictimName       string   `json:"victim_name"`
	VictimBackground string   `json:"victim_background"`
	MurdererIndex    int      `json:"murderer_index"`
	Weapon           string   `json:"weapon"`
	Motive           string   `json:"motive"`
	SuspectBriefs    []string `json:"suspect_briefs"`
	ClueLocations    []string `json:"clue_locations"`
}

// SuspectDraft is the output of one suspect sub-agent.
type SuspectDraft struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	Personality  string `json:"personality"`
	Alibi        string `json:"alibi"`
	Secret       string `json:"secret"`
	ClueTheyKnow string `json:"clue_they_know"`
	Gender       string `json:"gender"`
	Age          string `json:"age"`
	Nationality  string `json:"nationality"`
}

// ClueSet is the output of the clue sub-agent.
type ClueSet struct {
	Clues []Clue `json:"clues"`
}

// schemaCompleter is the slice of the LLM service the generator needs.
type schemaCompleter interface {
	CompleteJSONSchema(ctx context.Context, req llm.JSONSchemaCompletionRequest) (string, error)
}

// VoiceAssigner matches generated suspects to available voices.
// Implemented by the voice package; nil disables assignment.
type VoiceAssigner interface {
	AssignVoices(suspects []Suspect) map[string]string
	VoiceSummary() string
}

type Generator struct {
	llm          schemaCompleter
	debug        *debug.Logger
	model        string
	utilityModel string
	voices       VoiceAssigner
}

func NewGenerator(svc schemaCompleter, voices VoiceAssigner, model, utilityModel string, dbg *debug.Logger) *Generator {
	if model == "" {
		model = llm.DefaultModel
	}
	if utilityModel == "" {
		utilityModel = llm.UtilityModel
	}
	return &Generator{
		llm:          svc,
		debug:        dbg,
		model:        model,
		utilityModel: utilityModel,
		voices:       voices,
	}
}

// GeneratePremise produces the fast-startup teaser: setting plus
// victim, nothing else. Uses the utility model for speed.
func (g *Generator) GeneratePremise(ctx context.Context, era, tone string) (*Premise, error) {
	ctx = llm.WithOperationType(ctx, "mystery_premise")

	user := fmt.Sprintf("Create a premise for a %s era murder mystery. Tone: %s. Output ONLY JSON.", era, tone)
	raw, err := g.llm.CompleteJSONSchema(ctx, llm.JSONSchemaCompletionRequest{
		SystemPrompt: premiseSystemPrompt,
		UserPrompt:   user,
		MaxTokens:    300,
		Model:        g.utilityModel,
		SchemaName:   "mystery_premise",
		Schema:       PremiseSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("premise generation failed: %w", err)
	}

	var premise Premise
	if err := json.Unmarshal([]byte(StripMarkdownJSON(raw)), &premise); err != nil {
		return nil, fmt.Errorf("failed to parse premise: %w", err)
	}
	return &premise, nil
}

// GenerateSkeleton runs stage 1: the blueprint everything else follows.
func (g *Generator) GenerateSkeleton(ctx context.Context, premise *Premise, era, tone string) (*Skeleton, error) {
	ctx = llm.WithOperationType(ctx, "mystery_skeleton")

	system, user := buildSkeletonPrompts(premise, era, tone)
	raw, err := g.llm.CompleteJSONSchema(ctx, llm.JSONSchemaCompletionRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		MaxTokens:    900,
		Model:        g.utilityModel,
		SchemaName:   "mystery_skeleton",
		Schema:       SkeletonSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("skeleton generation failed: %w", err)
	}

	var skeleton Skeleton
	if err := json.Unmarshal([]byte(StripMarkdownJSON(raw)), &skeleton); err != nil {
		return nil, fmt.Errorf("failed to parse skeleton: %w", err)
	}
	if err := validateSkeleton(&skeleton); err != nil {
		return nil, err
	}

	if g.debug != nil {
		g.debug.Printf("Skeleton: murderer_index=%d, weapon=%s, %d locations",
			skeleton.MurdererIndex, skeleton.Weapon, len(skeleton.ClueLocations))
	}
	return &skeleton, nil
}

func validateSkeleton(s *Skeleton) error {
	if len(s.SuspectBriefs) != 4 {
		return fmt.Errorf("skeleton has %d suspect briefs, want 4", len(s.SuspectBriefs))
	}
	if len(s.ClueLocations) != 5 {
		return fmt.Errorf("skeleton has %d clue locations, want 5", len(s.ClueLocations))
	}
	if s.MurdererIndex < 0 || s.MurdererIndex > 3 {
		return fmt.Errorf("skeleton murderer index %d out of range", s.MurdererIndex)
	}
	return nil
}

// GenerateSuspect runs one suspect sub-agent. Uses the full model;
// each suspect gets complete attention since they run in parallel.
func (g *Generator) GenerateSuspect(ctx context.Context, skeleton *Skeleton, roleBrief string, isGuilty bool, voiceOptions string) (*SuspectDraft, error) {
	ctx = llm.WithOperationType(ctx, "mystery_suspect")

	system, user := buildSuspectPrompts(skeleton, roleBrief, isGuilty, voiceOptions)
	raw, err := g.llm.CompleteJSONSchema(ctx, llm.JSONSchemaCompletionRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		MaxTokens:    700,
		Model:        g.model,
		SchemaName:   "suspect_draft",
		Schema:       SuspectDraftSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("suspect generation failed for %q: %w", roleBrief, err)
	}

	var draft SuspectDraft
	if err := json.Unmarshal([]byte(StripMarkdownJSON(raw)), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse suspect draft: %w", err)
	}
	return &draft, nil
}

// GenerateClues runs the clue sub-agent.
func (g *Generator) GenerateClues(ctx context.Context, skeleton *Skeleton, murdererRole string) (*ClueSet, error) {
	ctx = llm.WithOperationType(ctx, "mystery_clues")

	system, user := buildCluePrompts(skeleton, murdererRole)
	raw, err := g.llm.CompleteJSONSchema(ctx, llm.JSONSchemaCompletionRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		MaxTokens:    1200,
		Model:        g.model,
		SchemaName:   "clue_set",
		Schema:       ClueSetSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("clue generation failed: %w", err)
	}

	var clueSet ClueSet
	if err := json.Unmarshal([]byte(StripMarkdownJSON(raw)), &clueSet); err != nil {
		return nil, fmt.Errorf("failed to parse clue set: %w", err)
	}
	if len(clueSet.Clues) != 5 {
		return nil, fmt.Errorf("clue agent produced %d clues, want 5", len(clueSet.Clues))
	}
	return &clueSet, nil
}

// Generate builds a complete mystery using parallel sub-agents:
//
//	Stage 1: skeleton (framework)
//	Stage 2: 4 suspect drafts + clue set, all concurrent
//	Stage 3: assembly + voice assignment
//
// Any sub-agent failure aborts the whole generation; a mystery with a
// missing suspect or clue set is unplayable.
func (g *Generator) Generate(ctx context.Context, premise *Premise, era, tone string) (*Mystery, error) {
	skeleton, err := g.GenerateSkeleton(ctx, premise, era, tone)
	if err != nil {
		return nil, err
	}

	murdererRole := skeleton.SuspectBriefs[skeleton.MurdererIndex]

	voiceOptions := ""
	if g.voices != nil {
		voiceOptions = g.voices.VoiceSummary()
	}

	drafts := make([]*SuspectDraft, len(skeleton.SuspectBriefs))
	var clueSet *ClueSet

	eg, gctx := errgroup.WithContext(ctx)
	for i, brief := range skeleton.SuspectBriefs {
		eg.Go(func() error {
			draft, err := g.GenerateSuspect(gctx, skeleton, brief, i == skeleton.MurdererIndex, voiceOptions)
			if err != nil {
				return err
			}
			drafts[i] = draft
			return nil
		})
	}
	eg.Go(func() error {
		cs, err := g.GenerateClues(gctx, skeleton, murdererRole)
		if err != nil {
			return err
		}
		clueSet = cs
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	mystery := g.Assemble(skeleton, drafts, clueSet)

	if g.debug != nil {
		assigned := 0
		for _, s := range mystery.Suspects {
			if s.VoiceID != "" {
				assigned++
			}
		}
		g.debug.Printf("Mystery assembled: %s murdered by %s with %s (voices: %d/%d)",
			mystery.Victim.Name, mystery.Murderer, mystery.Weapon, assigned, len(mystery.Suspects))
	}

	return mystery, nil
}

// Assemble combines the sub-agent outputs into the final Mystery and
// assigns voices when a voice assigner is configured.
func (g *Generator) Assemble(skeleton *Skeleton, drafts []*SuspectDraft, clueSet *ClueSet) *Mystery {
	suspects := make([]Suspect, 0, len(drafts))
	murdererName := "Unknown"

	for i, draft := range drafts {
		isGuilty := i == skeleton.MurdererIndex
		suspects = append(suspects, Suspect{
			Name:         draft.Name,
			Role:         draft.Role,
			Personality:  draft.Personality,
			Alibi:        draft.Alibi,
			Secret:       draft.Secret,
			ClueTheyKnow: draft.ClueTheyKnow,
			IsGuilty:     isGuilty,
			Gender:       draft.Gender,
			Age:          draft.Age,
			Nationality:  draft.Nationality,
		})
		if isGuilty {
			murdererName = draft.Name
		}
	}

	if g.voices != nil {
		assignments := g.voices.AssignVoices(suspects)
		for i := range suspects {
			if id, ok := assignments[suspects[i].Name]; ok {
				suspects[i].VoiceID = id
			}
		}
	}

	m := &Mystery{
		Setting:  skeleton.Setting,
		Victim:   Victim{Name: skeleton.VictimName, Background: skeleton.VictimBackground},
		Murderer: murdererName,
		Weapon:   skeleton.Weapon,
		Motive:   skeleton.Motive,
		Suspects: suspects,
		Clues:    clueSet.Clues,
	}

	// Each suspect holds one searchable location behind the oracle's
	// trust gate, so interrogation can unlock places to search.
	locations := m.ClueLocations()
	for i := range m.Suspects {
		if i < len(locations) {
			m.Suspects[i].LocationHint = locations[i]
		}
	}
	return m
}
