package mystery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGraph builds a small manor: dining room adjacent to the hallway,
// hallway adjacent to the study (the murder scene). The physician
// claims to be in the dining room during the critical window but was
// really in the study; the butler genuinely was in the hallway.
func testGraph() *EncounterGraph {
	return &EncounterGraph{
		Locations: []LocationNode{
			{ID: "dining_room", Name: "Dining Room", IsPublic: true, AdjacentTo: []string{"hallway"}},
			{ID: "hallway", Name: "Hallway", IsPublic: true, AdjacentTo: []string{"dining_room", "study"}},
			{ID: "study", Name: "Study", IsMurderScene: true, AdjacentTo: []string{"hallway"}},
		},
		Presences: []Presence{
			{PersonRole: "physician", LocationID: "dining_room", TimeSlot: CriticalWindow, Activity: "finishing dessert", IsTruthful: false, ActualLocationID: "study"},
			{PersonRole: "butler", LocationID: "hallway", TimeSlot: CriticalWindow, Activity: "clearing plates", IsTruthful: true},
			{PersonRole: "wife", LocationID: "dining_room", TimeSlot: CriticalWindow, Activity: "talking with guests", IsTruthful: true},
			{PersonRole: "partner", LocationID: "hallway", TimeSlot: CriticalWindow, Activity: "making a phone call", IsTruthful: true},
		},
		Sightings: []Sighting{
			{ObserverRole: "butler", SubjectRole: "physician", LocationID: "hallway", TimeSlot: CriticalWindow, IsTruthful: true, ClaimText: "I passed the doctor in the hallway"},
			{ObserverRole: "butler", SubjectRole: "partner", LocationID: "hallway", TimeSlot: CriticalWindow, IsMutual: true, IsTruthful: true, ClaimText: "Mr. Reed was on the telephone beside me"},
		},
		MurdererRole:     "physician",
		MurderTime:       CriticalWindow,
		MurderLocationID: "study",
	}
}

func TestGetActualPresenceResolvesLies(t *testing.T) {
	g := testGraph()

	claimed := g.GetPresence("physician", CriticalWindow)
	require.NotNil(t, claimed)
	assert.Equal(t, "dining_room", claimed.LocationID)
	assert.False(t, claimed.IsTruthful)

	actual := g.GetActualPresence("physician", CriticalWindow)
	require.NotNil(t, actual)
	assert.Equal(t, "study", actual.LocationID)
	assert.True(t, actual.IsTruthful)

	// Truthful presences come back unchanged.
	butler := g.GetActualPresence("butler", CriticalWindow)
	require.NotNil(t, butler)
	assert.Equal(t, "hallway", butler.LocationID)
}

func TestPeopleAtUsesActualPositions(t *testing.T) {
	g := testGraph()

	assert.Equal(t, []string{"physician"}, g.PeopleAt("study", CriticalWindow))
	assert.ElementsMatch(t, []string{"butler", "partner"}, g.PeopleAt("hallway", CriticalWindow))
	assert.Equal(t, []string{"wife"}, g.PeopleAt("dining_room", CriticalWindow))
	assert.Empty(t, g.PeopleAt("study", EarlyEvening))
}

func TestCanSee(t *testing.T) {
	g := testGraph()

	// Butler in the hallway, physician really in the adjacent study.
	seen, reason := g.CanSee("butler", "physician", CriticalWindow)
	assert.True(t, seen)
	assert.Contains(t, reason, "adjacent")

	// Wife in the dining room cannot see into the study.
	seen, _ = g.CanSee("wife", "physician", CriticalWindow)
	assert.False(t, seen)

	seen, reason = g.CanSee("butler", "gardener", CriticalWindow)
	assert.False(t, seen)
	assert.Contains(t, reason, "no recorded position")
}

func TestValidateSighting(t *testing.T) {
	g := testGraph()

	// The butler's sighting claims the physician was in the hallway,
	// but the physician was really in the study.
	ok, reason := g.ValidateSighting(g.Sightings[0])
	assert.False(t, ok)
	assert.Contains(t, reason, "study")

	// Butler and partner really were both in the hallway.
	ok, _ = g.ValidateSighting(g.Sightings[1])
	assert.True(t, ok)

	_, reason = g.ValidateSighting(Sighting{
		ObserverRole: "gardener", SubjectRole: "butler",
		LocationID: "hallway", TimeSlot: CriticalWindow,
	})
	assert.Contains(t, reason, "no position")
}

func TestAlibiVerificationStatus(t *testing.T) {
	g := testGraph()

	status := g.AlibiVerificationStatus("physician")
	require.True(t, status.Known)
	assert.False(t, status.IsTruthful)
	assert.Equal(t, "dining_room", status.ClaimedLocation)
	assert.Equal(t, "study", status.ActualLocation)
	// The butler's truthful sighting places the physician in the
	// hallway, contradicting the dining room claim.
	assert.Contains(t, status.Contradictors, "butler")
	assert.Empty(t, status.Corroborators)

	partner := g.AlibiVerificationStatus("partner")
	assert.True(t, partner.IsTruthful)
	assert.Contains(t, partner.Corroborators, "butler")

	assert.False(t, g.AlibiVerificationStatus("gardener").Known)
}

func TestDeriveAlibiClaim(t *testing.T) {
	g := testGraph()

	claim := g.DeriveAlibiClaim("partner")
	assert.Equal(t, "hallway", claim.LocationClaimed)
	assert.Equal(t, "making a phone call", claim.Activity)
	assert.Equal(t, "butler", claim.Corroborator)
	assert.True(t, claim.IsTruthful)

	// The murderer's derived claim repeats their lie, uncorroborated.
	claim = g.DeriveAlibiClaim("physician")
	assert.Equal(t, "dining_room", claim.LocationClaimed)
	assert.Empty(t, claim.Corroborator)
	assert.False(t, claim.IsTruthful)

	// Unknown people get a vague but harmless fallback.
	claim = g.DeriveAlibiClaim("gardener")
	assert.Equal(t, "unknown", claim.LocationClaimed)
	assert.True(t, claim.IsTruthful)
}
