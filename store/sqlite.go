package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    model TEXT,
    status TEXT DEFAULT 'running',
    error TEXT,
    started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS session_messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id),
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_session_messages_session ON session_messages(session_id);

CREATE TABLE IF NOT EXISTS tool_calls (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id),
    tool_name TEXT NOT NULL,
    params TEXT,
    result TEXT,
    is_error INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_tool_calls_session ON tool_calls(session_id);
`

// NewSQLiteBundle creates a Bundle backed by SQLite at the given path
func NewSQLiteBundle(dbPath string) (*Bundle, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Bundle{
		Sessions: &SQLiteSessionStore{db: db},
		closer:   db.Close,
	}, nil
}

type SQLiteSessionStore struct {
	db *sql.DB
}

func (s *SQLiteSessionStore) CreateSession(question, model string) (string, error) {
	id := generateID()
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, question, model) VALUES (?, ?, ?)`,
		id, question, model,
	)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (s *SQLiteSessionStore) CompleteSession(id string, err error) {
	status := "completed"
	var errMsg *string
	if err != nil {
		status = "failed"
		msg := err.Error()
		errMsg = &msg
	}
	s.db.Exec(
		`UPDATE sessions SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		status, errMsg, time.Now(), id,
	)
}

func (s *SQLiteSessionStore) AppendMessage(sessionID, role, content string) error {
	_, err := s.db.Exec(
		`INSERT INTO session_messages (session_id, role, content) VALUES (?, ?, ?)`,
		sessionID, role, content,
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) StoreToolCall(sessionID, toolName, params, result string, isError bool) error {
	_, err := s.db.Exec(
		`INSERT INTO tool_calls (session_id, tool_name, params, result, is_error) VALUES (?, ?, ?, ?, ?)`,
		sessionID, toolName, params, result, isError,
	)
	if err != nil {
		return fmt.Errorf("store tool call: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) GetSession(id string) (SessionInfo, error) {
	row := s.db.QueryRow(
		`SELECT id, question, model, status, error, started_at, finished_at FROM sessions WHERE id = ?`,
		id,
	)
	info, err := scanSession(row)
	if err == sql.ErrNoRows {
		return SessionInfo{}, fmt.Errorf("session %s not found", id)
	}
	return info, err
}

func (s *SQLiteSessionStore) GetMessages(sessionID string) ([]SessionMessage, error) {
	rows, err := s.db.Query(
		`SELECT id, role, content, created_at FROM session_messages WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	var msgs []SessionMessage
	for rows.Next() {
		var m SessionMessage
		if err := rows.Scan(&m.ID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *SQLiteSessionStore) GetToolCalls(sessionID string) ([]ToolCallInfo, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, tool_name, params, result, is_error, created_at
		 FROM tool_calls WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get tool calls: %w", err)
	}
	defer rows.Close()

	var calls []ToolCallInfo
	for rows.Next() {
		var c ToolCallInfo
		var params, result sql.NullString
		if err := rows.Scan(&c.ID, &c.SessionID, &c.ToolName, &params, &result, &c.IsError, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Params = params.String
		c.Result = result.String
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

func (s *SQLiteSessionStore) ListSessions(limit, offset int) ([]SessionInfo, error) {
	rows, err := s.db.Query(
		`SELECT id, question, model, status, error, started_at, finished_at
		 FROM sessions ORDER BY started_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var infos []SessionInfo
	for rows.Next() {
		info, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (SessionInfo, error) {
	var info SessionInfo
	var model sql.NullString
	var errMsg sql.NullString
	var finishedAt sql.NullTime
	if err := row.Scan(&info.ID, &info.Question, &model, &info.Status, &errMsg, &info.StartedAt, &finishedAt); err != nil {
		return SessionInfo{}, err
	}
	info.Model = model.String
	if errMsg.Valid {
		info.Error = &errMsg.String
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		info.FinishedAt = &t
	}
	return info, nil
}
