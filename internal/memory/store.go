// Package memory is the investigation's long-term record: every
// statement a suspect makes and every clue the player uncovers, kept
// in SQLite so the contradiction tools and the assistant can search
// across the whole session.
package memory

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	KindStatement = "statement"
	KindClue      = "clue"
)

// Statement is one recorded utterance or discovery.
type Statement struct {
	ID        int       `json:"id"`
	SessionID string    `json:"session_id"`
	Speaker   string    `json:"speaker"`
	Content   string    `json:"content"`
	Kind      string    `json:"kind"`
	Turn      int       `json:"turn"`
	Timestamp time.Time `json:"timestamp"`
}

type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "./investigation.db"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS statements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		speaker TEXT NOT NULL,
		content TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'statement',
		turn INTEGER NOT NULL DEFAULT 0,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_statements_session ON statements(session_id);
	CREATE INDEX IF NOT EXISTS idx_statements_speaker ON statements(session_id, speaker);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AddStatement records one suspect utterance.
func (s *Store) AddStatement(sessionID, speaker, content string, turn int) error {
	return s.add(sessionID, speaker, content, KindStatement, turn)
}

// AddClue records a discovered clue; the speaker slot holds the
// location it was found in.
func (s *Store) AddClue(sessionID, location, description string, turn int) error {
	return s.add(sessionID, location, description, KindClue, turn)
}

func (s *Store) add(sessionID, speaker, content, kind string, turn int) error {
	_, err := s.db.Exec(`
		INSERT INTO statements (session_id, speaker, content, kind, turn)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, speaker, content, kind, turn)
	if err != nil {
		return fmt.Errorf("failed to record %s: %w", kind, err)
	}
	return nil
}

// Search finds statements whose content mentions the query, most
// recent first.
func (s *Store) Search(sessionID, query string, limit int) ([]Statement, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT id, session_id, speaker, content, kind, turn, timestamp
		FROM statements
		WHERE session_id = ? AND content LIKE ?
		ORDER BY turn DESC, id DESC
		LIMIT ?
	`, sessionID, "%"+strings.TrimSpace(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()
	return scanStatements(rows)
}

// History returns everything one speaker said, in order.
func (s *Store) History(sessionID, speaker string) ([]Statement, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, speaker, content, kind, turn, timestamp
		FROM statements
		WHERE session_id = ? AND speaker = ? AND kind = ?
		ORDER BY turn ASC, id ASC
	`, sessionID, speaker, KindStatement)
	if err != nil {
		return nil, fmt.Errorf("history lookup failed: %w", err)
	}
	defer rows.Close()
	return scanStatements(rows)
}

// Related finds statements by either of two speakers that mention the
// other, for checking stories against each other.
func (s *Store) Related(sessionID, speakerA, speakerB string) ([]Statement, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, speaker, content, kind, turn, timestamp
		FROM statements
		WHERE session_id = ? AND (
			(speaker = ? AND content LIKE ?) OR
			(speaker = ? AND content LIKE ?)
		)
		ORDER BY turn ASC, id ASC
	`, sessionID, speakerA, "%"+speakerB+"%", speakerB, "%"+speakerA+"%")
	if err != nil {
		return nil, fmt.Errorf("related lookup failed: %w", err)
	}
	defer rows.Close()
	return scanStatements(rows)
}

// CrossReference groups every mention of a topic by speaker. A topic
// multiple suspects talk about is where stories can conflict.
type CrossReference struct {
	Topic             string                 `json:"topic"`
	BySpeaker         map[string][]Statement `json:"by_speaker"`
	PotentialConflict bool                   `json:"potential_conflict"`
}

func (s *Store) CrossReference(sessionID, topic string) (*CrossReference, error) {
	matches, err := s.Search(sessionID, topic, 100)
	if err != nil {
		return nil, err
	}

	ref := &CrossReference{
		Topic:     topic,
		BySpeaker: make(map[string][]Statement),
	}
	for _, m := range matches {
		if m.Kind != KindStatement {
			continue
		}
		ref.BySpeaker[m.Speaker] = append(ref.BySpeaker[m.Speaker], m)
	}
	ref.PotentialConflict = len(ref.BySpeaker) > 1
	return ref, nil
}

// Clues returns the discovered clues for a session.
func (s *Store) Clues(sessionID string) ([]Statement, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, speaker, content, kind, turn, timestamp
		FROM statements
		WHERE session_id = ? AND kind = ?
		ORDER BY turn ASC, id ASC
	`, sessionID, KindClue)
	if err != nil {
		return nil, fmt.Errorf("clue lookup failed: %w", err)
	}
	defer rows.Close()
	return scanStatements(rows)
}

// Clear wipes one session's records, for a fresh game.
func (s *Store) Clear(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM statements WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func scanStatements(rows *sql.Rows) ([]Statement, error) {
	var out []Statement
	for rows.Next() {
		var st Statement
		if err := rows.Scan(&st.ID, &st.SessionID, &st.Speaker, &st.Content, &st.Kind, &st.Turn, &st.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan statement: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
