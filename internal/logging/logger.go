package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type CompletionLog struct {
	ID           int       `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	SessionID    string    `json:"session_id"`
	Operation    string    `json:"operation"`
	CaseContext  string    `json:"case_context"`
	UserInput    string    `json:"user_input"`
	SystemPrompt string    `json:"system_prompt"`
	Response     string    `json:"response"`
	Metadata     string    `json:"metadata"`
}

type CompletionMetadata struct {
	Model         string        `json:"model"`
	MaxTokens     int           `json:"max_tokens"`
	ResponseTime  time.Duration `json:"response_time_ms"`
	StreamingUsed bool          `json:"streaming_used"`
	Error         *string       `json:"error,omitempty"`
}

// CompletionLogger persists every LLM exchange so a session can be
// replayed when debugging mystery generation or interrogation output.
type CompletionLogger struct {
	db *sql.DB
}

func NewCompletionLogger(path string) (*CompletionLogger, error) {
	if path == "" {
		path = "./completions.db"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger := &CompletionLogger{db: db}
	if err := logger.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return logger, nil
}

func (cl *CompletionLogger) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS completions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		session_id TEXT NOT NULL DEFAULT '',
		operation TEXT NOT NULL DEFAULT '',
		case_context TEXT NOT NULL,
		user_input TEXT NOT NULL,
		system_prompt TEXT NOT NULL,
		response TEXT NOT NULL,
		metadata TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_completions_timestamp ON completions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_completions_session ON completions(session_id);
	`

	_, err := cl.db.Exec(schema)
	return err
}

func (cl *CompletionLogger) LogCompletion(
	sessionID string,
	operation string,
	caseContext interface{},
	userInput string,
	systemPrompt string,
	response string,
	metadata CompletionMetadata,
) error {
	caseJson, err := json.Marshal(caseContext)
	if err != nil {
		return fmt.Errorf("failed to marshal case context: %w", err)
	}

	metadataJson, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = cl.db.Exec(`
		INSERT INTO completions (session_id, operation, case_context, user_input, system_prompt, response, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sessionID, operation, string(caseJson), userInput, systemPrompt, response, string(metadataJson))

	return err
}

// Recent returns a session's latest logged completions, newest first.
func (cl *CompletionLogger) Recent(sessionID string, limit int) ([]CompletionLog, error) {
	rows, err := cl.db.Query(`
		SELECT id, timestamp, session_id, operation, case_context, user_input, system_prompt, response, metadata
		FROM completions
		WHERE session_id = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var completions []CompletionLog
	for rows.Next() {
		var c CompletionLog
		err := rows.Scan(&c.ID, &c.Timestamp, &c.SessionID, &c.Operation,
			&c.CaseContext, &c.UserInput, &c.SystemPrompt, &c.Response, &c.Metadata)
		if err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}

	return completions, rows.Err()
}

func (cl *CompletionLogger) Close() error {
	return cl.db.Close()
}
