package game

import (
	"context"
	"fmt"
	"strings"

	"murdermystery/internal/captions"
	"murdermystery/internal/llm"
	"murdermystery/internal/mystery"
)

// TurnResult is what one player action produces for the UI layer.
type TurnResult struct {
	Speaker             string   `json:"speaker"`
	Response            string   `json:"response"`
	AudioPath           string   `json:"audio_path,omitempty"`
	CaptionHTML         string   `json:"caption_html,omitempty"`
	CluesFound          []string `json:"clues_found,omitempty"`
	ScenePath           string   `json:"scene_path,omitempty"`
	ContradictionCaught string   `json:"contradiction_caught,omitempty"`
	AccusationMade      string   `json:"accusation_made,omitempty"`
	AccusationCorrect   bool     `json:"accusation_correct,omitempty"`
	WrongAccusations    int      `json:"wrong_accusations,omitempty"`
	GameOver            bool     `json:"game_over"`
	Won                 bool     `json:"won"`
}

// HandleAction processes one player action: "talk", "search", "accuse"
// or "custom".
func (m *Manager) HandleAction(ctx context.Context, sessionID, actionType, target, customMessage string) (*TurnResult, error) {
	session, ok := m.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("unknown session %q", sessionID)
	}
	ctx = llm.WithSessionID(ctx, session.ID)

	if !session.Ready() {
		return &TurnResult{Speaker: "Game Master", Response: holdMessage}, nil
	}
	if over, won := session.Over(); over {
		verdict := "The case is closed. The killer walked free."
		if won {
			verdict = "The case is closed. Justice was served."
		}
		return &TurnResult{Speaker: "Game Master", Response: verdict, GameOver: true, Won: won}, nil
	}

	switch actionType {
	case "talk":
		if target == "" {
			return &TurnResult{Speaker: "Game Master", Response: "Who do you want to talk to?"}, nil
		}
		question := customMessage
		if question == "" {
			question = fmt.Sprintf("Hello, %s. I have some questions for you.", target)
		}
		session.appendMessage("user", "You", question)
		return m.interrogate(ctx, session, target, question)

	case "search":
		if target == "" {
			return &TurnResult{Speaker: "Game Master", Response: "Where do you want to search?"}, nil
		}
		session.appendMessage("user", "You", fmt.Sprintf("I want to search %s.", target))
		return m.search(session, target)

	case "accuse":
		if target == "" {
			return &TurnResult{Speaker: "Game Master", Response: "Who do you accuse?"}, nil
		}
		session.appendMessage("user", "You", fmt.Sprintf("I accuse %s of the murder!", target))
		return m.accuse(session, target)

	case "custom":
		if strings.TrimSpace(customMessage) == "" {
			return &TurnResult{Speaker: "Game Master", Response: "I didn't understand that action."}, nil
		}
		session.appendMessage("user", "You", customMessage)
		if name := m.resolveSuspect(ctx, session, customMessage); name != "" {
			return m.interrogate(ctx, session, name, customMessage)
		}
		return m.narrate(ctx, session, customMessage)

	default:
		return &TurnResult{Speaker: "Game Master", Response: "I didn't understand that action."}, nil
	}
}

// interrogate runs the full turn pipeline for a suspect conversation:
// oracle response, memory logging, contradiction check, then speech.
func (m *Manager) interrogate(ctx context.Context, session *Session, name, question string) (*TurnResult, error) {
	turn := session.nextTurn()
	prior := m.priorStatements(session, name)

	reply, err := session.Oracle.RespondToInterrogation(ctx, name, question)
	if err != nil {
		return nil, fmt.Errorf("interrogation failed: %w", err)
	}

	result := &TurnResult{Speaker: reply.SuspectName, Response: reply.Response}
	if !session.knownSuspect(reply.SuspectName) {
		// Unknown name: the narrator delivers the correction.
		result.Speaker = "Game Master"
		session.appendMessage("assistant", result.Speaker, result.Response)
		return result, nil
	}

	session.markTalkedTo(reply.SuspectName)
	session.appendMessage("assistant", reply.SuspectName, reply.Response)

	if m.memory != nil {
		if err := m.memory.AddStatement(session.ID, reply.SuspectName, reply.Response, turn); err != nil && m.debug != nil {
			m.debug.Printf("failed to record statement: %v", err)
		}
	}

	if m.detector != nil && len(prior) > 0 {
		if hit, found := m.detector.CheckAgainstHistory(ctx, reply.Response, reply.SuspectName, prior); found && hit.IsContradiction {
			session.Oracle.RecordContradiction(reply.SuspectName)
			session.addContradiction(reply.SuspectName, hit.Explanation)
			result.ContradictionCaught = hit.Explanation
		}
	}

	result.AudioPath, result.CaptionHTML = m.speakReply(ctx, session, reply.SuspectName, reply.Response)
	m.logTurn(session, "interrogation", question, reply.Response)
	return result, nil
}

// priorStatements pulls a suspect's recorded testimony from the
// persistent store, falling back to the oracle's in-process transcript
// when the store is absent or holds nothing under that name.
func (m *Manager) priorStatements(session *Session, name string) []string {
	if m.memory != nil {
		history, err := m.memory.History(session.ID, name)
		if err != nil && m.debug != nil {
			m.debug.Printf("testimony lookup failed: %v", err)
		}
		if len(history) > 0 {
			prior := make([]string, 0, len(history))
			for _, st := range history {
				prior = append(prior, st.Content)
			}
			return prior
		}
	}
	return session.Oracle.PriorStatements(name)
}

// search reveals any clues placed at the location, marks it searched,
// and logs discoveries into investigation memory.
func (m *Manager) search(session *Session, location string) (*TurnResult, error) {
	turn := session.nextTurn()
	lower := strings.ToLower(location)

	session.mu.Lock()
	var matches []int
	canonical := location
	for i, c := range session.allClues {
		clueLoc := strings.ToLower(c.Location)
		if clueLoc == lower || strings.Contains(clueLoc, lower) || strings.Contains(lower, clueLoc) {
			matches = append(matches, i)
			canonical = c.Location
		}
	}
	clues := make([]mystery.Clue, 0, len(matches))
	for _, i := range matches {
		clues = append(clues, session.allClues[i])
	}
	session.mu.Unlock()

	session.markSearched(canonical)

	var found []string
	for _, c := range clues {
		if session.addClue(c) {
			found = append(found, c.Description)
			if m.memory != nil {
				if err := m.memory.AddClue(session.ID, c.Location, c.Description, turn); err != nil && m.debug != nil {
					m.debug.Printf("failed to record clue: %v", err)
				}
			}
		}
	}

	var response string
	switch {
	case len(found) > 0:
		response = fmt.Sprintf("You search the %s. %s", canonical, describeFindings(found))
	case len(clues) > 0:
		response = fmt.Sprintf("You search the %s again, but find nothing you haven't already catalogued.", canonical)
	default:
		response = fmt.Sprintf("You search the %s thoroughly, but find nothing of note.", location)
	}

	session.appendMessage("assistant", "Game Master", response)
	m.logTurn(session, "search", location, response)
	return &TurnResult{
		Speaker:     "Game Master",
		Response:    response,
		CluesFound:  found,
		ScenePath:   session.sceneImage(canonical),
		CaptionHTML: buildNarratorCaption(response),
	}, nil
}

// Narrator lines get estimated captions without audio.
func buildNarratorCaption(text string) string {
	return captions.BuildHTML(text, nil, "")
}

func describeFindings(found []string) string {
	if len(found) == 1 {
		return fmt.Sprintf("You discover something: %s", found[0])
	}
	var b strings.Builder
	b.WriteString("You discover several things of interest:")
	for _, f := range found {
		fmt.Fprintf(&b, "\n- %s", f)
	}
	return b.String()
}

// accuse checks the verdict with the oracle. A correct accusation wins,
// the third wrong one loses.
func (m *Manager) accuse(session *Session, name string) (*TurnResult, error) {
	session.nextTurn()
	correct := session.Oracle.CheckAccusation(name)
	strikes := session.recordAccusation(correct)
	over, won := session.Over()

	result := &TurnResult{
		Speaker:           "Game Master",
		AccusationMade:    name,
		AccusationCorrect: correct,
		WrongAccusations:  strikes,
		GameOver:          over,
		Won:               won,
	}

	switch {
	case correct:
		result.Response = fmt.Sprintf(
			"The room falls silent. %s's composure finally cracks. You were right, detective. The case is closed.",
			session.Oracle.MurdererName(),
		)
	case over:
		result.Response = fmt.Sprintf(
			"Another false accusation. Your credibility is spent, and the real killer, %s, walks free. The case is closed.",
			session.Oracle.MurdererName(),
		)
	default:
		result.Response = fmt.Sprintf(
			"%s protests their innocence, and nothing you have proves otherwise. That's strike %d of %d, detective.",
			name, strikes, m.cfg.MaxAccusations,
		)
	}

	session.appendMessage("assistant", "Game Master", result.Response)
	m.logTurn(session, "accusation", name, result.Response)
	return result, nil
}

// narrate handles free-form input that names no suspect: the narrator
// responds in character.
func (m *Manager) narrate(ctx context.Context, session *Session, message string) (*TurnResult, error) {
	session.nextTurn()

	view := session.CaseView()
	var names []string
	for _, s := range view.Suspects {
		names = append(names, fmt.Sprintf("%s (%s)", s.Name, s.Role))
	}

	systemPrompt := fmt.Sprintf(
		"You are the narrator of a murder mystery. Setting: %s. Victim: %s. Suspects: %s. "+
			"Respond to the detective's action in 2-3 atmospheric sentences. Never reveal who is guilty or invent new clues.",
		view.Setting, view.VictimName, strings.Join(names, ", "),
	)

	response, err := m.llm.CompleteText(ctx, llm.TextCompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   message,
		MaxTokens:    200,
	})
	if err != nil || strings.TrimSpace(response) == "" {
		if m.debug != nil {
			m.debug.Printf("narration failed: %v", err)
		}
		response = "You consider your next move carefully. The house is quiet, and every suspect is waiting."
	}

	session.appendMessage("assistant", "Game Master", response)
	m.logTurn(session, "narration", message, response)
	return &TurnResult{
		Speaker:     "Game Master",
		Response:    response,
		CaptionHTML: buildNarratorCaption(response),
	}, nil
}
