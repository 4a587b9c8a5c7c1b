package game

import (
	"context"
	"strings"

	"murdermystery/internal/assistant"
	"murdermystery/internal/llm"
)

// resolveSuspect maps a free-form message to a suspect name, or ""
// when no suspect is clearly addressed. Heuristics run first because
// they are fast and offline; a small model breaks the ties they miss.
func (m *Manager) resolveSuspect(ctx context.Context, session *Session, message string) string {
	view := session.CaseView()
	lower := strings.ToLower(message)
	words := make(map[string]bool)
	for _, w := range strings.Fields(lower) {
		words[strings.Trim(w, ".,!?;:'\"")] = true
	}

	for _, s := range view.Suspects {
		nameLower := strings.ToLower(s.Name)
		parts := strings.Fields(nameLower)

		// Full name anywhere in the message.
		if strings.Contains(lower, nameLower) {
			return s.Name
		}

		// Two consecutive name parts ("helena voss").
		for i := 0; i+1 < len(parts); i++ {
			if strings.Contains(lower, parts[i]+" "+parts[i+1]) {
				return s.Name
			}
		}

		// A single significant name part as a whole word ("voss").
		// Short parts like "dr" or initials are too ambiguous.
		for _, part := range parts {
			if len(part) >= 3 && words[strings.Trim(part, ".")] {
				return s.Name
			}
		}
	}

	return m.resolveSuspectLLM(ctx, view.Suspects, message)
}

// resolveSuspectLLM asks a small model to pick a suspect or answer
// NONE. Any failure resolves to no suspect.
func (m *Manager) resolveSuspectLLM(ctx context.Context, suspects []assistant.SuspectView, message string) string {
	if m.llm == nil || len(suspects) == 0 {
		return ""
	}

	var list strings.Builder
	for _, s := range suspects {
		list.WriteString("- " + s.Name + " (" + s.Role + ")\n")
	}

	response, err := m.llm.CompleteText(ctx, llm.TextCompletionRequest{
		SystemPrompt: "You map a player's message to ONE suspect from a list. " +
			"You MUST answer with exactly one suspect name from the list, or the word NONE if no suspect clearly matches. " +
			"Do not add any explanation.",
		UserPrompt: "Suspects:\n" + list.String() + "\nPlayer message:\n" + message +
			"\n\nAnswer with exactly one suspect name from the list above, or NONE if you are not sure.",
		MaxTokens: 20,
		Model:     m.cfg.ResolverModel,
	})
	if err != nil {
		if m.debug != nil {
			m.debug.Printf("suspect resolver failed: %v", err)
		}
		return ""
	}

	choice := strings.TrimSpace(response)
	if i := strings.IndexByte(choice, '\n'); i >= 0 {
		choice = choice[:i]
	}
	choice = strings.Trim(choice, "-• \"'")
	if choice == "" || strings.EqualFold(choice, "NONE") {
		return ""
	}

	for _, s := range suspects {
		if strings.EqualFold(s.Name, choice) {
			return s.Name
		}
	}
	if m.debug != nil {
		m.debug.Printf("suspect resolver returned %q, which matches no suspect", choice)
	}
	return ""
}
