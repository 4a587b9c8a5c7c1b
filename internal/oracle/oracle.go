// Package oracle is the only place where the full truth of a case
// lives. The game layer hands player questions in and receives
// narrative text and observable state back; guilt, secrets, and the
// encounter graph never cross that boundary except through the
// reveal gates implemented here.
package oracle

import (
	"context"
	"fmt"
	"sync"

	"murdermystery/internal/debug"
	"murdermystery/internal/llm"
	"murdermystery/internal/mystery"
)

type textCompleter interface {
	CompleteText(ctx context.Context, req llm.TextCompletionRequest) (string, error)
}

type Oracle struct {
	mu     sync.Mutex
	m      *mystery.Mystery
	graph  *mystery.EncounterGraph
	states map[string]*mystery.SuspectState
	turn   int

	llm   textCompleter
	debug *debug.Logger
}

func New(svc textCompleter, dbg *debug.Logger) *Oracle {
	return &Oracle{
		llm:    svc,
		debug:  dbg,
		states: make(map[string]*mystery.SuspectState),
	}
}

// LoadMystery installs a new case, derives the encounter graph, and
// resets all emotional state.
func (o *Oracle) LoadMystery(m *mystery.Mystery) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.m = m
	o.graph = mystery.BuildEncounterGraph(m)
	o.states = make(map[string]*mystery.SuspectState)
	o.turn = 0
	for _, s := range m.Suspects {
		o.states[s.Name] = mystery.NewSuspectState()
	}
}

func (o *Oracle) Ready() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.m != nil
}

// InterrogationResult is everything the game layer may see from one
// exchange. The reveal flags report gate crossings, not their content.
type InterrogationResult struct {
	SuspectName      string `json:"suspect_name"`
	Response         string `json:"response"`
	TrustDelta       int    `json:"trust_delta"`
	NervousnessDelta int    `json:"nervousness_delta"`
	RevealedLocation bool   `json:"revealed_location"`
	RevealedSecret   bool   `json:"revealed_secret"`
	LocationHint     string `json:"location_hint,omitempty"`
}

// RespondToInterrogation runs one question through the emotional
// model, the reveal gates, and the roleplay LLM call.
func (o *Oracle) RespondToInterrogation(ctx context.Context, suspectName, question string) (*InterrogationResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.m == nil {
		return nil, fmt.Errorf("no mystery loaded")
	}

	suspect := o.m.FindSuspect(suspectName)
	if suspect == nil {
		return &InterrogationResult{
			SuspectName: suspectName,
			Response:    fmt.Sprintf("There's no one here by the name %q. Perhaps you misheard?", suspectName),
		}, nil
	}

	state := o.states[suspect.Name]
	if state == nil {
		state = mystery.NewSuspectState()
		o.states[suspect.Name] = state
	}
	o.turn++

	impact := classifyQuestion(question, suspect.IsGuilty)
	state.Trust = clamp(state.Trust + impact.trustDelta)
	state.Nervousness = clamp(state.Nervousness + impact.nervousnessDelta)

	result := &InterrogationResult{
		SuspectName:      suspect.Name,
		TrustDelta:       impact.trustDelta,
		NervousnessDelta: impact.nervousnessDelta,
	}

	// Location hint gate: innocents open up at high trust, the
	// murderer only under near-total confidence.
	if suspect.LocationHint != "" {
		threshold := 70
		if suspect.IsGuilty {
			threshold = 85
		}
		if state.Trust >= threshold {
			result.RevealedLocation = true
			result.LocationHint = suspect.LocationHint
		}
	}

	// Secret gate: innocents confide when trusted and asked a probing
	// question; the murderer only cracks under pressure after being
	// caught contradicting themselves.
	if !state.SecretRevealed {
		if suspect.IsGuilty {
			if state.Nervousness >= 90 && state.ContradictionsCaught >= 2 {
				result.RevealedSecret = true
			}
		} else if state.Trust >= 60 && impact.probing {
			result.RevealedSecret = true
		}
	}
	if result.RevealedSecret {
		state.SecretRevealed = true
	}

	response, err := o.generateReply(ctx, suspect, state, question, result)
	if err != nil {
		if o.debug != nil {
			o.debug.Printf("Interrogation reply failed for %s: %v", suspect.Name, err)
		}
		response = fallbackReply(suspect, state)
	}
	result.Response = response

	state.Conversations = append(state.Conversations, mystery.Exchange{
		Question: question,
		Answer:   response,
		Turn:     o.turn,
	})

	return result, nil
}

func (o *Oracle) generateReply(ctx context.Context, suspect *mystery.Suspect, state *mystery.SuspectState, question string, result *InterrogationResult) (string, error) {
	ctx = llm.WithOperationType(ctx, "suspect_interrogation")
	ctx = llm.WithCaseContext(ctx, map[string]interface{}{
		"suspect":     suspect.Name,
		"trust":       state.Trust,
		"nervousness": state.Nervousness,
	})

	system := buildSuspectSystemPrompt(o.m, o.graph, suspect, state, result)
	user := buildSuspectUserPrompt(suspect, state, question)

	return o.llm.CompleteText(ctx, llm.TextCompletionRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		MaxTokens:    250,
	})
}

func fallbackReply(suspect *mystery.Suspect, state *mystery.SuspectState) string {
	if state.Nervousness >= 70 {
		return fmt.Sprintf("%s looks away. \"I... I need a moment. This has all been too much.\"", suspect.Name)
	}
	return fmt.Sprintf("%s pauses. \"I'm sorry, could you repeat the question?\"", suspect.Name)
}

// CheckAccusation reports whether the named suspect is the murderer.
// An oracle without a loaded mystery never confirms anything.
func (o *Oracle) CheckAccusation(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.m == nil {
		return false
	}
	suspect := o.m.FindSuspect(name)
	return suspect != nil && suspect.IsGuilty
}

// MurdererName is only for the end-of-game reveal.
func (o *Oracle) MurdererName() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.m == nil {
		return ""
	}
	return o.m.Murderer
}

// PublicSuspect is the guilt-free view of a suspect.
type PublicSuspect struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Personality string `json:"personality"`
	PortraitURL string `json:"portrait_url,omitempty"`
}

func (o *Oracle) PublicSuspects() []PublicSuspect {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.m == nil {
		return nil
	}
	out := make([]PublicSuspect, 0, len(o.m.Suspects))
	for _, s := range o.m.Suspects {
		out = append(out, PublicSuspect{
			Name:        s.Name,
			Role:        s.Role,
			Personality: s.Personality,
			PortraitURL: s.PortraitPath,
		})
	}
	return out
}

// StateSnapshot holds the observable emotional reading for a suspect.
// The game layer uses it for the case board, never for truth.
type StateSnapshot struct {
	Trust                int  `json:"trust"`
	Nervousness          int  `json:"nervousness"`
	ContradictionsCaught int  `json:"contradictions_caught"`
	SecretRevealed       bool `json:"secret_revealed"`
	Exchanges            int  `json:"exchanges"`
}

func (o *Oracle) StateSnapshot(name string) (StateSnapshot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.m == nil {
		return StateSnapshot{}, false
	}
	suspect := o.m.FindSuspect(name)
	if suspect == nil {
		return StateSnapshot{}, false
	}
	state := o.states[suspect.Name]
	if state == nil {
		return StateSnapshot{}, false
	}
	return StateSnapshot{
		Trust:                state.Trust,
		Nervousness:          state.Nervousness,
		ContradictionsCaught: state.ContradictionsCaught,
		SecretRevealed:       state.SecretRevealed,
		Exchanges:            len(state.Conversations),
	}, true
}

// RecordContradiction notes that the player caught the suspect in a
// contradiction, raising pressure toward the confession gate.
func (o *Oracle) RecordContradiction(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.m == nil {
		return
	}
	suspect := o.m.FindSuspect(name)
	if suspect == nil {
		return
	}
	state := o.states[suspect.Name]
	if state == nil {
		return
	}
	state.ContradictionsCaught++
	state.Nervousness = clamp(state.Nervousness + 10)
}

// PriorStatements returns what a suspect has said so far, for the
// contradiction detector.
func (o *Oracle) PriorStatements(name string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.m == nil {
		return nil
	}
	suspect := o.m.FindSuspect(name)
	if suspect == nil {
		return nil
	}
	state := o.states[suspect.Name]
	if state == nil {
		return nil
	}
	out := make([]string, 0, len(state.Conversations))
	for _, ex := range state.Conversations {
		out = append(out, ex.Answer)
	}
	return out
}

// AlibiStatus exposes graph-level corroboration for a suspect's
// critical-window claim.
func (o *Oracle) AlibiStatus(name string) (mystery.AlibiStatus, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.m == nil || o.graph == nil {
		return mystery.AlibiStatus{}, false
	}
	suspect := o.m.FindSuspect(name)
	if suspect == nil {
		return mystery.AlibiStatus{}, false
	}
	return o.graph.AlibiVerificationStatus(mystery.RoleID(suspect.Role)), true
}

// Reset clears the loaded case entirely.
func (o *Oracle) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.m = nil
	o.graph = nil
	o.states = make(map[string]*mystery.SuspectState)
	o.turn = 0
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
