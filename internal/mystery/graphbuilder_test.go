package mystery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEncounterGraph(t *testing.T) {
	m := testMystery()
	m.Suspects[0].Alibi = "I was in the wine cellar fetching a vintage for Lord Blackwood."
	m.Suspects[1].Alibi = "Clearing plates in the kitchen, as always."
	m.Suspects[2].Alibi = "Taking air on the terrace with my cigarettes."
	m.Suspects[3].Alibi = "Reviewing contracts in the guest room."

	g := BuildEncounterGraph(m)

	assert.Equal(t, CriticalWindow, g.MurderTime)
	assert.Equal(t, "murder_scene", g.MurderLocationID)
	assert.Equal(t, RoleID(m.GuiltySuspect().Role), g.MurdererRole)

	// The murderer's critical-window presence is a lie resolving to
	// the scene.
	claimed := g.GetPresence(g.MurdererRole, CriticalWindow)
	require.NotNil(t, claimed)
	assert.False(t, claimed.IsTruthful)

	actual := g.GetActualPresence(g.MurdererRole, CriticalWindow)
	require.NotNil(t, actual)
	assert.Equal(t, "murder_scene", actual.LocationID)

	// Only the murderer was really at the scene.
	assert.Equal(t, []string{g.MurdererRole}, g.PeopleAt("murder_scene", CriticalWindow))

	// Innocents are truthful throughout and uncorroborated alibis only
	// belong to the murderer.
	for _, s := range m.Suspects {
		if s.IsGuilty {
			continue
		}
		p := g.GetPresence(RoleID(s.Role), CriticalWindow)
		require.NotNil(t, p, "missing presence for %s", s.Role)
		assert.True(t, p.IsTruthful)
	}

	status := g.AlibiVerificationStatus(g.MurdererRole)
	assert.True(t, status.Known)
	assert.False(t, status.IsTruthful)
	assert.Empty(t, status.Corroborators)

	// Dinner sightings give every suspect a corroborated dinner
	// presence from the innocents.
	sightings := g.SightingsOf(g.MurdererRole)
	assert.NotEmpty(t, sightings)
	for _, s := range sightings {
		assert.Equal(t, DinnerMain, s.TimeSlot)
	}
}

func TestAlibiPlace(t *testing.T) {
	assert.Equal(t, "wine cellar fetching", alibiPlace("I was in the wine cellar fetching a vintage."))
	assert.Equal(t, "terrace with my", alibiPlace("Taking air on the terrace with my cigarettes, alone."))
	assert.Equal(t, "a private spot", alibiPlace("Nobody can prove anything."))
}
