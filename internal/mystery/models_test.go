package mystery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMystery() *Mystery {
	return &Mystery{
		Setting:  "Blackwood Manor, a storm-lashed estate",
		Victim:   Victim{Name: "Lord Edmund Blackwood", Background: "reclusive industrialist"},
		Murderer: "Dr. Helena Voss",
		Weapon:   "letter opener",
		Motive:   "blackmail gone wrong",
		Suspects: []Suspect{
			{Name: "Dr. Helena Voss", Role: "family physician", IsGuilty: true},
			{Name: "James Whitmore", Role: "butler"},
			{Name: "Lady Margaret Blackwood", Role: "estranged wife"},
			{Name: "Thomas Reed", Role: "business partner"},
		},
		Clues: []Clue{
			{ID: "clue_1", Description: "a bloodied handkerchief", Location: "the study"},
			{ID: "clue_2", Description: "a torn letter", Location: "the library"},
			{ID: "clue_3", Description: "muddy footprints", Location: "the conservatory"},
			{ID: "clue_4", Description: "an empty vial", Location: "the study"},
			{ID: "clue_5", Description: "a pawn ticket", Location: "the servants' quarters"},
		},
	}
}

func TestFindSuspect(t *testing.T) {
	m := testMystery()

	found := m.FindSuspect("James Whitmore")
	require.NotNil(t, found)
	assert.Equal(t, "butler", found.Role)

	// Partial and case-insensitive mentions resolve too.
	assert.NotNil(t, m.FindSuspect("helena"))
	assert.NotNil(t, m.FindSuspect("WHITMORE"))
	assert.NotNil(t, m.FindSuspect("  Thomas Reed  "))

	assert.Nil(t, m.FindSuspect("Inspector Grey"))
	assert.Nil(t, m.FindSuspect(""))
}

func TestGuiltySuspect(t *testing.T) {
	m := testMystery()

	guilty := m.GuiltySuspect()
	require.NotNil(t, guilty)
	assert.Equal(t, "Dr. Helena Voss", guilty.Name)
	assert.Equal(t, m.Murderer, guilty.Name)
}

func TestClueLocationsDeduplicates(t *testing.T) {
	m := testMystery()

	locations := m.ClueLocations()
	assert.Len(t, locations, 4)
	assert.Contains(t, locations, "the study")
	assert.Contains(t, locations, "the servants' quarters")
}

func TestStripMarkdownJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain json untouched",
			input: `{"name": "test"}`,
			want:  `{"name": "test"}`,
		},
		{
			name:  "fenced json",
			input: "```json\n{\"name\": \"test\"}\n```",
			want:  `{"name": "test"}`,
		},
		{
			name:  "bare fences",
			input: "```\n[1, 2, 3]\n```",
			want:  `[1, 2, 3]`,
		},
		{
			name:  "prose around the object",
			input: "Here is the JSON you asked for:\n{\"ok\": true}\nLet me know if you need anything else.",
			want:  `{"ok": true}`,
		},
		{
			name:  "whitespace trimmed",
			input: "  \n {\"a\": 1} \n ",
			want:  `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkdownJSON(tt.input))
		})
	}
}

func TestNewSuspectState(t *testing.T) {
	state := NewSuspectState()
	assert.Equal(t, 50, state.Trust)
	assert.Equal(t, 30, state.Nervousness)
	assert.Empty(t, state.Conversations)
	assert.False(t, state.SecretRevealed)
}
