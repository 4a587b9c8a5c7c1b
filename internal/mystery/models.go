package mystery

import "strings"

// SuspectState tracks the emotional state and interrogation history for
// one suspect. It is owned by the oracle and never shown to the player.
type SuspectState struct {
	Trust                int        `json:"trust"`       // 0 = hostile, 100 = confiding
	Nervousness          int        `json:"nervousness"` // increases when pressed
	Conversations        []Exchange `json:"conversations"`
	ContradictionsCaught int        `json:"contradictions_caught"`
	SecretRevealed       bool       `json:"secret_revealed"`
}

func NewSuspectState() *SuspectState {
	return &SuspectState{Trust: 50, Nervousness: 30}
}

// Exchange is one question/answer pair from an interrogation.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Turn     int    `json:"turn"`
}

type Victim struct {
	Name       string `json:"name"`
	Background string `json:"background"`
}

type Suspect struct {
	Name         string `json:"name"`
	Role         string `json:"role"` // relationship to the victim
	Personality  string `json:"personality"`
	Alibi        string `json:"alibi"`
	Secret       string `json:"secret"`
	ClueTheyKnow string `json:"clue_they_know"`
	IsGuilty     bool   `json:"is_guilty"`
	LocationHint string `json:"location_hint,omitempty"`

	// Voice-casting metadata. Never displayed to players.
	Gender      string `json:"gender,omitempty"`      // male/female
	Age         string `json:"age,omitempty"`         // young/middle_aged/old
	Nationality string `json:"nationality,omitempty"` // american/british/australian/standard

	VoiceID      string `json:"voice_id,omitempty"`
	PortraitPath string `json:"portrait_path,omitempty"`
}

type Clue struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	Significance string `json:"significance"`
}

// Premise is the lightweight teaser generated for fast startup,
// shown to the player while the full case file is still being built.
type Premise struct {
	Setting          string `json:"setting"`
	VictimName       string `json:"victim_name"`
	VictimBackground string `json:"victim_background"`
}

// Mystery is the complete murder scenario: exactly four suspects, one
// of them guilty, and five clues placed around the setting.
type Mystery struct {
	Setting  string    `json:"setting"`
	Victim   Victim    `json:"victim"`
	Murderer string    `json:"murderer"` // full name of the guilty suspect
	Weapon   string    `json:"weapon"`
	Motive   string    `json:"motive"`
	Suspects []Suspect `json:"suspects"`
	Clues    []Clue    `json:"clues"`
}

// FindSuspect resolves a suspect by name, tolerating case differences
// and partial mentions ("Ada" matches "Ada Syntax").
func (m *Mystery) FindSuspect(name string) *Suspect {
	if m == nil {
		return nil
	}
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return nil
	}
	for i := range m.Suspects {
		s := &m.Suspects[i]
		if strings.ToLower(s.Name) == lower || strings.Contains(strings.ToLower(s.Name), lower) {
			return s
		}
	}
	return nil
}

func (m *Mystery) GuiltySuspect() *Suspect {
	if m == nil {
		return nil
	}
	for i := range m.Suspects {
		if m.Suspects[i].IsGuilty {
			return &m.Suspects[i]
		}
	}
	return nil
}

func (m *Mystery) SuspectNames() []string {
	names := make([]string, 0, len(m.Suspects))
	for _, s := range m.Suspects {
		names = append(names, s.Name)
	}
	return names
}

// ClueLocations returns the distinct searchable locations.
func (m *Mystery) ClueLocations() []string {
	seen := make(map[string]bool)
	locations := make([]string, 0, len(m.Clues))
	for _, c := range m.Clues {
		if !seen[c.Location] {
			seen[c.Location] = true
			locations = append(locations, c.Location)
		}
	}
	return locations
}
