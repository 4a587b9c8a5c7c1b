package mystery

import (
	"fmt"
	"strings"
)

// BuildEncounterGraph derives the evening's movement graph from an
// assembled mystery. The layout is deterministic: a public dining room
// where everyone gathers, a connecting hallway, the murder scene, and
// one location per remaining suspect. The murderer's critical-window
// presence is recorded as a lie with their actual location set to the
// scene; everyone else is truthful.
func BuildEncounterGraph(m *Mystery) *EncounterGraph {
	g := &EncounterGraph{
		MurderTime: CriticalWindow,
	}

	scene := "murder_scene"
	g.MurderLocationID = scene

	g.Locations = []LocationNode{
		{ID: "dining_room", Name: "Dining Room", Description: "where the guests gathered", IsPublic: true, AdjacentTo: []string{"hallway"}},
		{ID: "hallway", Name: "Hallway", Description: "connects the public rooms", IsPublic: true, AdjacentTo: []string{"dining_room", scene}},
		{ID: scene, Name: "Murder Scene", Description: fmt.Sprintf("where %s was found", m.Victim.Name), IsMurderScene: true, AdjacentTo: []string{"hallway"}},
	}

	// Everyone is together for the early slots.
	for _, s := range m.Suspects {
		role := RoleID(s.Role)
		for _, slot := range []TimeSlot{EarlyEvening, DinnerStart, DinnerMain} {
			g.Presences = append(g.Presences, Presence{
				PersonRole: role,
				LocationID: "dining_room",
				TimeSlot:   slot,
				Activity:   "with the other guests",
				IsTruthful: true,
			})
		}
	}

	// Critical window: the murderer claims a private spot but was at
	// the scene. Innocents scatter to their own locations, derived
	// from their stated alibis.
	for i, s := range m.Suspects {
		role := RoleID(s.Role)
		if s.IsGuilty {
			g.MurdererRole = role
			claimed := fmt.Sprintf("loc_%d", i)
			g.Locations = append(g.Locations, LocationNode{
				ID:         claimed,
				Name:       alibiPlace(s.Alibi),
				AdjacentTo: []string{"hallway"},
			})
			g.Presences = append(g.Presences, Presence{
				PersonRole:       role,
				LocationID:       claimed,
				TimeSlot:         CriticalWindow,
				Activity:         s.Alibi,
				IsTruthful:       false,
				ActualLocationID: scene,
			})
			continue
		}
		locID := fmt.Sprintf("loc_%d", i)
		g.Locations = append(g.Locations, LocationNode{
			ID:         locID,
			Name:       alibiPlace(s.Alibi),
			AdjacentTo: []string{"hallway"},
		})
		g.Presences = append(g.Presences, Presence{
			PersonRole: role,
			LocationID: locID,
			TimeSlot:   CriticalWindow,
			Activity:   s.Alibi,
			IsTruthful: true,
		})
	}

	// After discovery everyone converges on the scene, then waits in
	// the dining room for the police.
	for _, s := range m.Suspects {
		role := RoleID(s.Role)
		g.Presences = append(g.Presences,
			Presence{PersonRole: role, LocationID: scene, TimeSlot: PostDiscovery, Activity: "at the discovery of the body", IsTruthful: true},
			Presence{PersonRole: role, LocationID: "dining_room", TimeSlot: LateEvening, Activity: "waiting for the police", IsTruthful: true},
		)
	}

	// Sightings: each innocent truthfully saw the others at dinner.
	// Nobody saw the murderer during the critical window, which is
	// exactly what leaves their alibi uncorroborated.
	for _, observer := range m.Suspects {
		if observer.IsGuilty {
			continue
		}
		for _, subject := range m.Suspects {
			if subject.Name == observer.Name {
				continue
			}
			g.Sightings = append(g.Sightings, Sighting{
				ObserverRole: RoleID(observer.Role),
				SubjectRole:  RoleID(subject.Role),
				LocationID:   "dining_room",
				TimeSlot:     DinnerMain,
				IsMutual:     true,
				IsTruthful:   true,
				ClaimText:    fmt.Sprintf("I saw %s at dinner", subject.Name),
			})
		}
	}

	return g
}

// RoleID normalizes a suspect role into a stable graph identifier.
func RoleID(role string) string {
	id := strings.ToLower(strings.TrimSpace(role))
	id = strings.ReplaceAll(id, " ", "_")
	return id
}

// alibiPlace extracts a short display name from an alibi sentence.
func alibiPlace(alibi string) string {
	lower := strings.ToLower(alibi)
	for _, marker := range []string{"in the ", "at the ", "on the ", "in ", "at "} {
		if idx := strings.Index(lower, marker); idx != -1 {
			rest := alibi[idx+len(marker):]
			if end := strings.IndexAny(rest, ".,;"); end != -1 {
				rest = rest[:end]
			}
			words := strings.Fields(rest)
			if len(words) > 3 {
				words = words[:3]
			}
			if len(words) > 0 {
				return strings.Join(words, " ")
			}
		}
	}
	return "a private spot"
}
