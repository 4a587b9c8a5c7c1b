package mystery

import "fmt"

// The encounter graph is the authoritative record of who was where,
// and who saw whom, during the evening of the murder. Alibis and clues
// derive from it, which keeps the case logically consistent: if one
// suspect says "I saw her in the library", her presence record must
// place her in the library at that time.
//
// The murderer's presence during the critical window is recorded as a
// lie: the claimed location plus the actual one.

// TimeSlot is a discrete slice of the mystery timeline. Discrete slots
// keep sighting verification simple.
type TimeSlot string

const (
	EarlyEvening   TimeSlot = "early_evening"   // pre-event
	DinnerStart    TimeSlot = "dinner_start"    // gathering
	DinnerMain     TimeSlot = "dinner_main"     // main course
	CriticalWindow TimeSlot = "critical_window" // the murder happens here
	PostDiscovery  TimeSlot = "post_discovery"  // body found
	LateEvening    TimeSlot = "late_evening"    // police arrive
)

// LocationNode is a physical location in the mystery setting.
type LocationNode struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	IsPublic      bool     `json:"is_public"`
	IsMurderScene bool     `json:"is_murder_scene"`
	AdjacentTo    []string `json:"adjacent_to"`
}

// Presence places a person at a location during one time slot.
type Presence struct {
	PersonRole string   `json:"person_role"`
	LocationID string   `json:"location_id"`
	TimeSlot   TimeSlot `json:"time_slot"`
	Activity   string   `json:"activity"`
	IsTruthful bool     `json:"is_truthful"`
	// Set only when IsTruthful is false: where they actually were.
	ActualLocationID string `json:"actual_location_id,omitempty"`
}

// Sighting is a directed edge: the observer saw the subject.
type Sighting struct {
	ObserverRole string   `json:"observer_role"`
	SubjectRole  string   `json:"subject_role"`
	LocationID   string   `json:"location_id"`
	TimeSlot     TimeSlot `json:"time_slot"`
	IsMutual     bool     `json:"is_mutual"`
	IsTruthful   bool     `json:"is_truthful"`
	ClaimText    string   `json:"claim_text"`
}

type EncounterGraph struct {
	Locations []LocationNode `json:"locations"`
	Presences []Presence     `json:"presences"`
	Sightings []Sighting     `json:"sightings"`

	MurdererRole     string   `json:"murderer_role"`
	MurderTime       TimeSlot `json:"murder_time"`
	MurderLocationID string   `json:"murder_location_id"`
}

// GetPresence returns where a person claims to be at a given time.
func (g *EncounterGraph) GetPresence(role string, slot TimeSlot) *Presence {
	for i := range g.Presences {
		p := &g.Presences[i]
		if p.PersonRole == role && p.TimeSlot == slot {
			return p
		}
	}
	return nil
}

// GetActualPresence resolves lies: the murderer's fake position is
// replaced by where they really were.
func (g *EncounterGraph) GetActualPresence(role string, slot TimeSlot) *Presence {
	p := g.GetPresence(role, slot)
	if p != nil && !p.IsTruthful && p.ActualLocationID != "" {
		return &Presence{
			PersonRole: role,
			LocationID: p.ActualLocationID,
			TimeSlot:   slot,
			Activity:   "committing the murder",
			IsTruthful: true,
		}
	}
	return p
}

func (g *EncounterGraph) SightingsBy(observerRole string) []Sighting {
	var out []Sighting
	for _, s := range g.Sightings {
		if s.ObserverRole == observerRole {
			out = append(out, s)
		}
	}
	return out
}

func (g *EncounterGraph) SightingsOf(subjectRole string) []Sighting {
	var out []Sighting
	for _, s := range g.Sightings {
		if s.SubjectRole == subjectRole {
			out = append(out, s)
		}
	}
	return out
}

// PeopleAt returns everyone actually at a location during a slot.
func (g *EncounterGraph) PeopleAt(locationID string, slot TimeSlot) []string {
	var people []string
	for _, p := range g.Presences {
		if p.TimeSlot != slot {
			continue
		}
		actual := p.LocationID
		if !p.IsTruthful && p.ActualLocationID != "" {
			actual = p.ActualLocationID
		}
		if actual == locationID {
			people = append(people, p.PersonRole)
		}
	}
	return people
}

// CanSee reports whether the observer could have seen the subject,
// based on actual positions: same location, or an adjacent one.
func (g *EncounterGraph) CanSee(observerRole, subjectRole string, slot TimeSlot) (bool, string) {
	observer := g.GetActualPresence(observerRole, slot)
	subject := g.GetActualPresence(subjectRole, slot)

	if observer == nil || subject == nil {
		return false, "one or both people have no recorded position"
	}

	if observer.LocationID == subject.LocationID {
		return true, fmt.Sprintf("both at %s", observer.LocationID)
	}

	for _, loc := range g.Locations {
		if loc.ID != observer.LocationID {
			continue
		}
		for _, adj := range loc.AdjacentTo {
			if adj == subject.LocationID {
				return true, fmt.Sprintf("adjacent locations (%s -> %s)", observer.LocationID, subject.LocationID)
			}
		}
	}

	return false, fmt.Sprintf("different locations: %s vs %s", observer.LocationID, subject.LocationID)
}

// ValidateSighting checks that a sighting is physically possible:
// both parties actually at the claimed location at the claimed time.
func (g *EncounterGraph) ValidateSighting(s Sighting) (bool, string) {
	observer := g.GetActualPresence(s.ObserverRole, s.TimeSlot)
	subject := g.GetActualPresence(s.SubjectRole, s.TimeSlot)

	if observer == nil {
		return false, fmt.Sprintf("observer %s has no position at %s", s.ObserverRole, s.TimeSlot)
	}
	if subject == nil {
		return false, fmt.Sprintf("subject %s has no position at %s", s.SubjectRole, s.TimeSlot)
	}

	if observer.LocationID != s.LocationID {
		return false, fmt.Sprintf("observer was actually at %s, not %s", observer.LocationID, s.LocationID)
	}
	if subject.LocationID != s.LocationID {
		return false, fmt.Sprintf("subject was actually at %s, not %s", subject.LocationID, s.LocationID)
	}

	return true, "sighting is physically possible"
}

// AlibiStatus describes how a person's critical-window alibi can be
// corroborated or contradicted by other people's truthful sightings.
type AlibiStatus struct {
	Known           bool     `json:"known"`
	IsTruthful      bool     `json:"is_truthful"`
	ClaimedLocation string   `json:"claimed_location"`
	ClaimedActivity string   `json:"claimed_activity"`
	ActualLocation  string   `json:"actual_location"`
	Corroborators   []string `json:"corroborators"`
	Contradictors   []string `json:"contradictors"`
}

func (g *EncounterGraph) AlibiVerificationStatus(role string) AlibiStatus {
	p := g.GetPresence(role, CriticalWindow)
	if p == nil {
		return AlibiStatus{}
	}

	actual := p.LocationID
	if !p.IsTruthful && p.ActualLocationID != "" {
		actual = p.ActualLocationID
	}

	status := AlibiStatus{
		Known:           true,
		IsTruthful:      p.IsTruthful,
		ClaimedLocation: p.LocationID,
		ClaimedActivity: p.Activity,
		ActualLocation:  actual,
	}

	for _, s := range g.Sightings {
		if s.TimeSlot != CriticalWindow || s.SubjectRole != role || !s.IsTruthful {
			continue
		}
		if s.LocationID == p.LocationID {
			status.Corroborators = append(status.Corroborators, s.ObserverRole)
		} else {
			status.Contradictors = append(status.Contradictors, s.ObserverRole)
		}
	}

	return status
}

// AlibiClaim is a graph-derived alibi, guaranteed consistent with the
// recorded presences and sightings.
type AlibiClaim struct {
	TimeClaimed     string `json:"time_claimed"`
	LocationClaimed string `json:"location_claimed"`
	Activity        string `json:"activity"`
	Corroborator    string `json:"corroborator,omitempty"`
	IsTruthful      bool   `json:"is_truthful"`
}

func (g *EncounterGraph) DeriveAlibiClaim(role string) AlibiClaim {
	p := g.GetPresence(role, CriticalWindow)
	if p == nil {
		return AlibiClaim{
			TimeClaimed:     "around 9 PM",
			LocationClaimed: "unknown",
			Activity:        "I don't remember exactly",
			IsTruthful:      true,
		}
	}

	corroborator := ""
	for _, s := range g.Sightings {
		if s.SubjectRole == role && s.TimeSlot == CriticalWindow && s.IsTruthful && s.LocationID == p.LocationID {
			corroborator = s.ObserverRole
			break
		}
	}

	return AlibiClaim{
		TimeClaimed:     "around 9 PM",
		LocationClaimed: p.LocationID,
		Activity:        p.Activity,
		Corroborator:    corroborator,
		IsTruthful:      p.IsTruthful,
	}
}
