package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"murdermystery/internal/captions"
	"murdermystery/internal/contradiction"
	"murdermystery/internal/debug"
	"murdermystery/internal/images"
	"murdermystery/internal/llm"
	"murdermystery/internal/logging"
	"murdermystery/internal/memory"
	"murdermystery/internal/mystery"
	"murdermystery/internal/oracle"
	"murdermystery/internal/tts"
)

const holdMessage = "Your full case file is still being prepared. Give me just a moment, then try again."

type textCompleter interface {
	CompleteText(ctx context.Context, req llm.TextCompletionRequest) (string, error)
}

type mysteryGenerator interface {
	GeneratePremise(ctx context.Context, era, tone string) (*mystery.Premise, error)
	Generate(ctx context.Context, premise *mystery.Premise, era, tone string) (*mystery.Mystery, error)
}

type speechSynthesizer interface {
	Available() bool
	Speak(ctx context.Context, text, voiceID string) (*tts.Result, error)
}

type imageGenerator interface {
	Available() bool
	GenerateAllMysteryImages(ctx context.Context, m *mystery.Mystery) map[string]string
}

// Config carries the manager's tunables.
type Config struct {
	Era            string
	Tone           string
	ResolverModel  string // small model for suspect-mention resolution
	MaxAccusations int    // wrong accusations before the case is lost
	GenTimeout     time.Duration
}

// Manager wires the subsystems together and owns the session registry.
type Manager struct {
	cfg       Config
	llm       textCompleter
	generator mysteryGenerator
	detector  *contradiction.Detector
	memory    *memory.Store
	tts       speechSynthesizer
	images    imageGenerator
	sessions  *Registry
	debug     *debug.Logger

	completions *logging.CompletionLogger
	newOracle   func() *oracle.Oracle
}

func NewManager(cfg Config, svc textCompleter, gen mysteryGenerator, det *contradiction.Detector, mem *memory.Store, speech speechSynthesizer, imgs imageGenerator, dbg *debug.Logger) *Manager {
	if cfg.ResolverModel == "" {
		cfg.ResolverModel = "gpt-4o-mini"
	}
	if cfg.MaxAccusations == 0 {
		cfg.MaxAccusations = 3
	}
	if cfg.GenTimeout == 0 {
		cfg.GenTimeout = 3 * time.Minute
	}
	return &Manager{
		cfg:       cfg,
		llm:       svc,
		generator: gen,
		detector:  det,
		memory:    mem,
		tts:       speech,
		images:    imgs,
		sessions:  NewRegistry(),
		debug:     dbg,
		newOracle: func() *oracle.Oracle { return oracle.New(svc, dbg) },
	}
}

// WithCompletionLog enables the per-turn completion audit log.
func (m *Manager) WithCompletionLog(cl *logging.CompletionLogger) *Manager {
	m.completions = cl
	return m
}

func (m *Manager) Session(id string) (*Session, bool) {
	return m.sessions.Get(id)
}

// EndSession drops a session and wipes its investigation record, so
// an abandoned game leaves nothing behind in the statement store.
func (m *Manager) EndSession(sessionID string) bool {
	if _, ok := m.sessions.Get(sessionID); !ok {
		return false
	}
	m.sessions.Remove(sessionID)
	if m.memory != nil {
		if err := m.memory.Clear(sessionID); err != nil && m.debug != nil {
			m.debug.Printf("failed to clear investigation record: %v", err)
		}
	}
	return true
}

// Notebook reads the persistent investigation record. With one speaker
// it returns that suspect's recorded statements; with two it returns
// the statements where their stories mention each other; with neither
// it returns the discovered clues.
func (m *Manager) Notebook(sessionID, speaker, versus string) ([]memory.Statement, error) {
	if m.memory == nil {
		return nil, nil
	}
	switch {
	case speaker != "" && versus != "":
		return m.memory.Related(sessionID, speaker, versus)
	case speaker != "":
		return m.memory.History(sessionID, speaker)
	default:
		return m.memory.Clues(sessionID)
	}
}

// CrossExamine groups every recorded mention of a topic by speaker,
// flagging topics more than one suspect has talked about.
func (m *Manager) CrossExamine(sessionID, topic string) (*memory.CrossReference, error) {
	if m.memory == nil {
		return nil, nil
	}
	return m.memory.CrossReference(sessionID, topic)
}

// CompletionHistory returns a session's recent audit-log entries, or
// nil when auditing is off.
func (m *Manager) CompletionHistory(sessionID string, limit int) ([]logging.CompletionLog, error) {
	if m.completions == nil {
		return nil, nil
	}
	return m.completions.Recent(sessionID, limit)
}

// logTurn records one completed turn in the audit log. Failures are
// logged and swallowed; auditing never blocks play.
func (m *Manager) logTurn(session *Session, operation, input, response string) {
	if m.completions == nil {
		return
	}
	err := m.completions.LogCompletion(session.ID, operation,
		map[string]interface{}{"turn": session.Turn()},
		input, "", response, logging.CompletionMetadata{})
	if err != nil && m.debug != nil {
		m.debug.Printf("completion log failed: %v", err)
	}
}

// StartSession generates the premise synchronously so the player sees
// the case teaser immediately, then builds the full mystery and its
// media in the background. Actions taken before the case file is ready
// get the hold message.
func (m *Manager) StartSession(ctx context.Context) (*Session, error) {
	session := newSession(m.newOracle(), m.cfg.MaxAccusations)
	m.sessions.Add(session)

	// Verdicts memoized for an earlier case must not leak into this one.
	if m.detector != nil {
		m.detector.ClearCache()
	}

	ctx = llm.WithSessionID(ctx, session.ID)
	premise, err := m.generator.GeneratePremise(ctx, m.cfg.Era, m.cfg.Tone)
	if err != nil {
		m.sessions.Remove(session.ID)
		return nil, fmt.Errorf("failed to generate premise: %w", err)
	}
	session.SetPremise(premise)
	session.appendMessage("assistant", "Game Master", openingNarration(premise))

	go m.prepareCase(session, premise)

	return session, nil
}

func (m *Manager) prepareCase(session *Session, premise *mystery.Premise) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.GenTimeout)
	defer cancel()
	ctx = llm.WithSessionID(ctx, session.ID)

	myst, err := m.generator.Generate(ctx, premise, m.cfg.Era, m.cfg.Tone)
	if err != nil {
		if m.debug != nil {
			m.debug.Printf("mystery generation failed for session %s: %v", session.ID, err)
		}
		return
	}

	// Art is cosmetic; generation failures leave paths empty and the
	// game proceeds without it.
	if m.images != nil && m.images.Available() {
		paths := m.images.GenerateAllMysteryImages(ctx, myst)
		for i := range myst.Suspects {
			if p, ok := paths[myst.Suspects[i].Name]; ok {
				myst.Suspects[i].PortraitPath = p
			}
		}
		scenes := make(map[string]string)
		for key, path := range paths {
			if loc, ok := strings.CutPrefix(key, images.ScenePrefix); ok {
				scenes[loc] = path
			}
		}
		session.setMedia(paths[images.TitleCardKey], scenes)
	}

	session.LoadMystery(myst)
	if m.debug != nil {
		m.debug.Printf("case file ready for session %s: %d suspects, %d clues",
			session.ID, len(myst.Suspects), len(myst.Clues))
	}
}

func openingNarration(p *mystery.Premise) string {
	return fmt.Sprintf(
		"%s\n\nThe victim: %s. %s\n\nThe suspects are being gathered. Your case file is on its way, detective.",
		p.Setting, p.VictimName, p.VictimBackground,
	)
}

// speakReply runs the media pipeline for a spoken line: synthesis,
// then the caption fragment. A TTS failure produces a silent turn
// with estimated captions rather than an error.
func (m *Manager) speakReply(ctx context.Context, session *Session, speaker, text string) (audioPath, captionHTML string) {
	if m.tts == nil || !m.tts.Available() {
		return "", captions.BuildHTML(text, nil, "")
	}
	voiceID := session.voiceID(speaker)
	if voiceID == "" {
		return "", captions.BuildHTML(text, nil, "")
	}

	result, err := m.tts.Speak(ctx, text, voiceID)
	if err != nil {
		if m.debug != nil {
			m.debug.Printf("TTS failed for %s: %v", speaker, err)
		}
		return "", captions.BuildHTML(text, nil, "")
	}
	return result.AudioPath, captions.BuildHTML(text, result.Words, result.AudioPath)
}
