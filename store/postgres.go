package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    model TEXT,
    status TEXT DEFAULT 'running',
    error TEXT,
    started_at TIMESTAMPTZ DEFAULT now(),
    finished_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS session_messages (
    id SERIAL PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id),
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMPTZ DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_session_messages_session ON session_messages(session_id);

CREATE TABLE IF NOT EXISTS tool_calls (
    id SERIAL PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id),
    tool_name TEXT NOT NULL,
    params TEXT,
    result TEXT,
    is_error BOOLEAN DEFAULT FALSE,
    created_at TIMESTAMPTZ DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_tool_calls_session ON tool_calls(session_id);
`

// NewPostgresBundle creates a Bundle backed by PostgreSQL at the given DSN
func NewPostgresBundle(dsn string) (*Bundle, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Bundle{
		Sessions: &PostgresSessionStore{db: db},
		closer:   db.Close,
	}, nil
}

type PostgresSessionStore struct {
	db *sql.DB
}

func (s *PostgresSessionStore) CreateSession(question, model string) (string, error) {
	id := generateID()
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, question, model) VALUES ($1, $2, $3)`,
		id, question, model,
	)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (s *PostgresSessionStore) CompleteSession(id string, err error) {
	status := "completed"
	var errMsg *string
	if err != nil {
		status = "failed"
		msg := err.Error()
		errMsg = &msg
	}
	s.db.Exec(
		`UPDATE sessions SET status = $1, error = $2, finished_at = $3 WHERE id = $4`,
		status, errMsg, time.Now(), id,
	)
}

func (s *PostgresSessionStore) AppendMessage(sessionID, role, content string) error {
	_, err := s.db.Exec(
		`INSERT INTO session_messages (session_id, role, content) VALUES ($1, $2, $3)`,
		sessionID, role, content,
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) StoreToolCall(sessionID, toolName, params, result string, isError bool) error {
	_, err := s.db.Exec(
		`INSERT INTO tool_calls (session_id, tool_name, params, result, is_error) VALUES ($1, $2, $3, $4, $5)`,
		sessionID, toolName, params, result, isError,
	)
	if err != nil {
		return fmt.Errorf("store tool call: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) GetSession(id string) (SessionInfo, error) {
	row := s.db.QueryRow(
		`SELECT id, question, model, status, error, started_at, finished_at FROM sessions WHERE id = $1`,
		id,
	)
	info, err := scanSession(row)
	if err == sql.ErrNoRows {
		return SessionInfo{}, fmt.Errorf("session %s not found", id)
	}
	return info, err
}

func (s *PostgresSessionStore) GetMessages(sessionID string) ([]SessionMessage, error) {
	rows, err := s.db.Query(
		`SELECT id, role, content, created_at FROM session_messages WHERE session_id = $1 ORDER BY id`,
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

func (s *PostgresSessionStore) GetToolCalls(sessionID string) ([]ToolCallInfo, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, tool_name, params, result, is_error, created_at
		 FROM tool_calls WHERE session_id = $1 ORDER BY id`,
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

func (s *PostgresSessionStore) ListSessions(limit, offset int) ([]SessionInfo, error) {
	rows, err := s.db.Query(
		`SELECT id, question, model, status, error, started_at, finished_at
		 FROM sessions ORDER BY started_at DESC, id DESC LIMIT $1 OFFSET $2`,
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
