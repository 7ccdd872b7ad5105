package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"ragchat/internal/domain"
)

const timeLayout = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
    session_id TEXT NOT NULL,
    idx        INTEGER NOT NULL,
    role       TEXT NOT NULL,
    content    TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (session_id, idx)
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns (session_id);
`

// Store persists chat sessions in a local SQLite database so conversations
// survive restarts.
type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) SaveSession(ctx context.Context, sess domain.ChatSession) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		sess.ID, sess.Name, sess.CreatedAt.Format(timeLayout),
	)
	return err
}

func (s *Store) SaveTurn(ctx context.Context, sessionID string, turn domain.ChatTurn) error {
	var lastIdx int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(idx), 0) FROM turns WHERE session_id = ?`, sessionID,
	).Scan(&lastIdx)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO turns (session_id, idx, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, lastIdx+1, string(turn.Role), turn.Content, turn.Timestamp.Format(timeLayout),
	)
	return err
}

func (s *Store) RenameSession(ctx context.Context, sessionID, name string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET name = ? WHERE id = ?`, name, sessionID)
	return err
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

func (s *Store) LoadSessions(ctx context.Context) ([]domain.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM sessions ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.ChatSession
	for rows.Next() {
		var sess domain.ChatSession
		var createdAt string
		if err := rows.Scan(&sess.ID, &sess.Name, &createdAt); err != nil {
			return nil, err
		}
		sess.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range sessions {
		turns, err := s.loadTurns(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Turns = turns
	}
	return sessions, nil
}

func (s *Store) loadTurns(ctx context.Context, sessionID string) ([]domain.ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM turns WHERE session_id = ? ORDER BY idx ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []domain.ChatTurn
	for rows.Next() {
		var turn domain.ChatTurn
		var role, createdAt string
		if err := rows.Scan(&role, &turn.Content, &createdAt); err != nil {
			return nil, err
		}
		turn.Role = domain.Role(role)
		turn.Timestamp, _ = time.Parse(timeLayout, createdAt)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}
