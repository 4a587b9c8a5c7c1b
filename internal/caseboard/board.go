// Package caseboard builds the conspiracy-board graph from discovered
// knowledge: suspects, searched locations, recovered clues and caught
// contradictions. Undiscovered truth never reaches a node.
package caseboard

import (
	"fmt"
	"strings"
)

// Node icons and colors, keyed by node kind.
var icons = map[string]string{
	"crime_scene":        "\U0001F534",
	"victim":             "\U0001F480",
	"suspect":            "\U0001F464",
	"suspect_talked":     "\U0001F5E3",
	"suspect_suspicious": "⚠️",
	"location":           "\U0001F4CD",
	"location_searched":  "✅",
	"location_alibi":     "\U0001F3E0",
	"clue_weapon":        "\U0001F52A",
	"clue_document":      "\U0001F4DC",
	"clue_physical":      "\U0001F463",
	"clue_generic":       "\U0001F50E",
	"contradiction":      "❌",
}

var colors = map[string]string{
	"crime_scene":        "#e74c3c",
	"victim":             "#9b59b6",
	"suspect":            "#4a90d9",
	"suspect_talked":     "#2ecc71",
	"suspect_suspicious": "#e74c3c",
	"location":           "#1abc9c",
	"location_searched":  "#27ae60",
	"location_alibi":     "#3498db",
	"clue":               "#f39c12",
	"contradiction":      "#c0392b",
}

// Input is the discovered state the board is drawn from.
type Input struct {
	Setting          string
	VictimName       string
	VictimBackground string
	Suspects         []SuspectEntry
	Clues            []ClueEntry
	Searched         []string
	Contradictions   []ContradictionEntry
}

type SuspectEntry struct {
	Name           string
	Role           string
	Alibi          string
	TalkedTo       bool
	Trust          int
	Nervousness    int
	Contradictions int
}

type ClueEntry struct {
	ID          string
	Description string
	Location    string
}

type ContradictionEntry struct {
	Suspect     string
	Description string
}

// Node is one board entry, shaped for the client-side renderer.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Type  string `json:"type"`
	Desc  string `json:"desc"`
	Color string `json:"color"`
}

// Edge links two nodes. Kind "contradiction" draws red.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind,omitempty"`
}

type Board struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

func (b *Board) addNode(n Node) {
	b.Nodes = append(b.Nodes, n)
}

func (b *Board) addEdge(from, to, kind string) {
	b.Edges = append(b.Edges, Edge{From: from, To: to, Kind: kind})
}

func (b *Board) hasNode(id string) bool {
	for _, n := range b.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// Build assembles the board graph. The crime scene and victim anchor
// the center; everything else hangs off them as it is discovered.
func Build(in Input) *Board {
	b := &Board{}

	b.addNode(Node{
		ID:    "crime_scene",
		Label: truncate(in.Setting, 30),
		Icon:  icons["crime_scene"],
		Type:  "Crime Scene",
		Desc:  fmt.Sprintf("Where %s was found. %s", in.VictimName, in.Setting),
		Color: colors["crime_scene"],
	})
	b.addNode(Node{
		ID:    "victim",
		Label: in.VictimName,
		Icon:  icons["victim"],
		Type:  "Victim",
		Desc:  in.VictimBackground,
		Color: colors["victim"],
	})
	b.addEdge("victim", "crime_scene", "")

	searched := make(map[string]bool)
	for _, loc := range in.Searched {
		searched[strings.ToLower(strings.TrimSpace(loc))] = true
	}

	// Alibi and clue locations share one node per place.
	locationNodes := make(map[string]string)

	for _, s := range in.Suspects {
		kind := "suspect"
		nodeType := "Suspect"
		desc := fmt.Sprintf("Role: %s. Not yet interrogated.", s.Role)
		switch {
		case s.Contradictions > 0 || s.Nervousness >= 70:
			kind = "suspect_suspicious"
			nodeType = "Suspicious"
		case s.TalkedTo:
			kind = "suspect_talked"
			nodeType = "Interrogated"
		}
		if s.TalkedTo {
			desc = fmt.Sprintf("Role: %s. Alibi: %s Trust %d%%, nervousness %d%%.",
				s.Role, s.Alibi, s.Trust, s.Nervousness)
			if s.Contradictions > 0 {
				desc += fmt.Sprintf(" Caught in %d contradiction(s).", s.Contradictions)
			}
		}

		id := suspectNodeID(s.Name)
		b.addNode(Node{
			ID:    id,
			Label: s.Name,
			Icon:  icons[kind],
			Type:  nodeType,
			Desc:  desc,
			Color: colors[kind],
		})
		b.addEdge(id, "victim", "")

		if s.TalkedTo && s.Alibi != "" {
			locID := b.locationNode(locationNodes, s.Alibi, "location_alibi", "Alibi Location")
			b.addEdge(id, locID, "")
		}
	}

	for _, c := range in.Clues {
		kind := classifyClue(c.Description)
		id := "clue_" + c.ID
		b.addNode(Node{
			ID:    id,
			Label: truncate(c.Description, 20),
			Icon:  icons[kind],
			Type:  "Evidence",
			Desc:  fmt.Sprintf("Found at: %s. %s", c.Location, c.Description),
			Color: colors["clue"],
		})

		locKind, locType := "location", "Location"
		if searched[strings.ToLower(strings.TrimSpace(c.Location))] {
			locKind, locType = "location_searched", "Searched"
		}
		locID := b.locationNode(locationNodes, c.Location, locKind, locType)
		b.addEdge(locID, id, "")
	}

	for i, con := range in.Contradictions {
		id := fmt.Sprintf("contradiction_%d", i)
		b.addNode(Node{
			ID:    id,
			Label: fmt.Sprintf("Contradiction #%d", i+1),
			Icon:  icons["contradiction"],
			Type:  "Contradiction",
			Desc:  con.Description,
			Color: colors["contradiction"],
		})
		if suspectID := suspectNodeID(con.Suspect); b.hasNode(suspectID) {
			b.addEdge(id, suspectID, "contradiction")
		}
	}

	return b
}

func (b *Board) locationNode(locations map[string]string, place, kind, nodeType string) string {
	key := strings.ToLower(strings.TrimSpace(place))
	if id, ok := locations[key]; ok {
		return id
	}
	id := fmt.Sprintf("loc_%d", len(locations))
	locations[key] = id
	b.addNode(Node{
		ID:    id,
		Label: truncate(place, 20),
		Icon:  icons[kind],
		Type:  nodeType,
		Desc:  place,
		Color: colors[kind],
	})
	return id
}

func suspectNodeID(name string) string {
	return "suspect_" + strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

var clueKeywords = map[string][]string{
	"clue_weapon":   {"knife", "weapon", "gun", "poison", "murder", "opener", "blade"},
	"clue_document": {"letter", "note", "document", "paper", "email", "photograph"},
	"clue_physical": {"footprint", "fingerprint", "blood", "hair", "fiber", "mud"},
}

func classifyClue(description string) string {
	lower := strings.ToLower(description)
	for _, kind := range []string{"clue_weapon", "clue_document", "clue_physical"} {
		for _, w := range clueKeywords[kind] {
			if strings.Contains(lower, w) {
				return kind
			}
		}
	}
	return "clue_generic"
}

// truncate counts runes so a cut never splits a multibyte character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
