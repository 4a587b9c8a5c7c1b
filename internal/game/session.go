// Package game orchestrates sessions: it routes player actions to the
// oracle, tracks what the player has discovered, and drives the media
// pipeline for spoken replies. Everything the player is shown flows
// through here; the oracle's ground truth never does.
package game

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"murdermystery/internal/assistant"
	"murdermystery/internal/caseboard"
	"murdermystery/internal/mystery"
	"murdermystery/internal/oracle"
)

// Message is one transcript entry.
type Message struct {
	Role    string `json:"role"` // user or assistant
	Speaker string `json:"speaker"`
	Content string `json:"content"`
}

// Session is one player's investigation. The oracle instance inside it
// is the only holder of the case truth.
type Session struct {
	ID     string
	Oracle *oracle.Oracle

	mu    sync.Mutex
	ready bool
	over  bool
	won   bool

	premise *mystery.Premise

	// Public casting data captured at load time. Guilt never lands here.
	suspects  []assistant.SuspectView
	voiceIDs  map[string]string
	allClues  []mystery.Clue
	setting   string
	victim    mystery.Victim
	titleCard string
	portraits map[string]string
	scenes    map[string]string

	messages          []Message
	clueIDsFound      []string
	cluesFound        []mystery.Clue
	suspectsTalkedTo  []string
	searchedLocations []string
	contradictions    []contradictionNote
	wrongAccusations  int
	maxAccusations    int
	turn              int
}

type contradictionNote struct {
	suspect     string
	description string
}

func newSession(o *oracle.Oracle, maxAccusations int) *Session {
	return &Session{
		ID:             uuid.NewString(),
		Oracle:         o,
		voiceIDs:       make(map[string]string),
		portraits:      make(map[string]string),
		scenes:         make(map[string]string),
		maxAccusations: maxAccusations,
	}
}

// LoadMystery hands the truth to the oracle and keeps only the public
// casting data on the session.
func (s *Session) LoadMystery(m *mystery.Mystery) {
	s.Oracle.LoadMystery(m)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setting = m.Setting
	s.victim = m.Victim
	s.allClues = append([]mystery.Clue(nil), m.Clues...)
	s.suspects = s.suspects[:0]
	for _, sus := range m.Suspects {
		s.suspects = append(s.suspects, assistant.SuspectView{
			Name:        sus.Name,
			Role:        sus.Role,
			Personality: sus.Personality,
			Alibi:       sus.Alibi,
		})
		if sus.VoiceID != "" {
			s.voiceIDs[sus.Name] = sus.VoiceID
		}
		if sus.PortraitPath != "" {
			s.portraits[sus.Name] = sus.PortraitPath
		}
	}
	s.ready = true
}

// setMedia stores the prewarmed art batch: the title card and one
// scene background per clue location.
func (s *Session) setMedia(titleCard string, scenes map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titleCard = titleCard
	for loc, path := range scenes {
		s.scenes[loc] = path
	}
}

func (s *Session) sceneImage(location string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scenes[location]
}

// Media is the generated art for a case, all optional.
type Media struct {
	TitleCard string            `json:"title_card,omitempty"`
	Portraits map[string]string `json:"portraits,omitempty"`
	Scenes    map[string]string `json:"scenes,omitempty"`
}

// Media returns the generated art paths for the case.
func (s *Session) Media() Media {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := Media{TitleCard: s.titleCard}
	if len(s.portraits) > 0 {
		m.Portraits = make(map[string]string, len(s.portraits))
		for k, v := range s.portraits {
			m.Portraits[k] = v
		}
	}
	if len(s.scenes) > 0 {
		m.Scenes = make(map[string]string, len(s.scenes))
		for k, v := range s.scenes {
			m.Scenes[k] = v
		}
	}
	return m
}

func (s *Session) SetPremise(p *mystery.Premise) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.premise = p
}

func (s *Session) Premise() *mystery.Premise {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.premise
}

func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *Session) Over() (over, won bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.over, s.won
}

func (s *Session) Turn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

func (s *Session) appendMessage(role, speaker, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Role: role, Speaker: speaker, Content: content})
}

// Transcript returns a copy of the message log.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

func (s *Session) markTalkedTo(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.suspectsTalkedTo {
		if n == name {
			return
		}
	}
	s.suspectsTalkedTo = append(s.suspectsTalkedTo, name)
	for i := range s.suspects {
		if s.suspects[i].Name == name {
			s.suspects[i].Interviewed = true
		}
	}
}

func (s *Session) markSearched(location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.searchedLocations {
		if l == location {
			return
		}
	}
	s.searchedLocations = append(s.searchedLocations, location)
}

func (s *Session) addClue(c mystery.Clue) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.clueIDsFound {
		if id == c.ID {
			return false
		}
	}
	s.clueIDsFound = append(s.clueIDsFound, c.ID)
	s.cluesFound = append(s.cluesFound, c)
	return true
}

func (s *Session) addContradiction(suspect, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contradictions = append(s.contradictions, contradictionNote{suspect: suspect, description: description})
}

// recordAccusation applies a verdict and returns the updated strike
// count. Reaching the accusation limit ends the game.
func (s *Session) recordAccusation(correct bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if correct {
		s.won = true
		s.over = true
		return s.wrongAccusations
	}
	s.wrongAccusations++
	if s.wrongAccusations >= s.maxAccusations {
		s.over = true
	}
	return s.wrongAccusations
}

func (s *Session) knownSuspect(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sus := range s.suspects {
		if sus.Name == name {
			return true
		}
	}
	return false
}

func (s *Session) voiceID(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceIDs[name]
}

func (s *Session) nextTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turn++
	return s.turn
}

// CaseView assembles the player-visible state for the assistant and
// the case board.
func (s *Session) CaseView() assistant.CaseView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := assistant.CaseView{
		Setting:          s.setting,
		VictimName:       s.victim.Name,
		VictimBackground: s.victim.Background,
		Suspects:         append([]assistant.SuspectView(nil), s.suspects...),
		TotalClues:       len(s.allClues),
		SearchedPlaces:   append([]string(nil), s.searchedLocations...),
		WrongAccusations: s.wrongAccusations,
		Statements:       make(map[string][]string),
	}
	for _, c := range s.contradictions {
		view.Contradictions = append(view.Contradictions, fmt.Sprintf("%s: %s", c.suspect, c.description))
	}
	for _, c := range s.cluesFound {
		view.CluesFound = append(view.CluesFound, assistant.ClueView{
			ID:           c.ID,
			Description:  c.Description,
			Location:     c.Location,
			Significance: c.Significance,
		})
	}
	for _, sus := range s.suspects {
		if stmts := s.Oracle.PriorStatements(sus.Name); len(stmts) > 0 {
			view.Statements[sus.Name] = stmts
		}
	}
	return view
}

// BoardInput assembles the discovered state for the case board.
func (s *Session) BoardInput() caseboard.Input {
	s.mu.Lock()
	suspects := append([]assistant.SuspectView(nil), s.suspects...)
	in := caseboard.Input{
		Setting:          s.setting,
		VictimName:       s.victim.Name,
		VictimBackground: s.victim.Background,
		Searched:         append([]string(nil), s.searchedLocations...),
	}
	for _, c := range s.cluesFound {
		in.Clues = append(in.Clues, caseboard.ClueEntry{
			ID:          c.ID,
			Description: c.Description,
			Location:    c.Location,
		})
	}
	for _, c := range s.contradictions {
		in.Contradictions = append(in.Contradictions, caseboard.ContradictionEntry{
			Suspect:     c.suspect,
			Description: c.description,
		})
	}
	s.mu.Unlock()

	for _, sus := range suspects {
		entry := caseboard.SuspectEntry{
			Name:     sus.Name,
			Role:     sus.Role,
			Alibi:    sus.Alibi,
			TalkedTo: sus.Interviewed,
		}
		if snap, ok := s.Oracle.StateSnapshot(sus.Name); ok {
			entry.Trust = snap.Trust
			entry.Nervousness = snap.Nervousness
			entry.Contradictions = snap.ContradictionsCaught
		}
		in.Suspects = append(in.Suspects, entry)
	}
	return in
}

// Registry holds live sessions by id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
