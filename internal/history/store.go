// Package history keeps the "recent analyses" list for the running process.
// It is backed by an in-memory SQLite database and disappears on exit.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dyike/CortexDash/models"
	"github.com/dyike/CortexDash/pkg/sqlite"
)

type Store struct {
	db *sql.DB
}

// Summary is one row of the recent analyses list.
type Summary struct {
	SessionID    string
	Company      models.CompanyKey
	CreatedAt    time.Time
	Queries      int
	LastQuestion string
}

func Open() (*Store, error) {
	db, err := sqlite.Open(sqlite.Memory)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    company TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS turns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    sources_json TEXT,
    created_at INTEGER NOT NULL,
    UNIQUE(session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_turns_session_seq ON turns(session_id, seq);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Store) SessionStarted(ctx context.Context, sess *models.Session) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions (id, company, created_at)
VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET company = excluded.company
`, sess.ID, string(sess.Company), sess.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Store) TurnAppended(ctx context.Context, sess *models.Session, t models.Turn) error {
	var sourcesJSON sql.NullString
	if bot, ok := t.(models.BotTurn); ok && len(bot.Sources) > 0 {
		data, err := json.Marshal(bot.Sources)
		if err != nil {
			return fmt.Errorf("encode sources: %w", err)
		}
		sourcesJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO turns (session_id, seq, role, content, sources_json, created_at)
SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?
FROM turns WHERE session_id = ?
`, sess.ID, string(t.Role()), t.Content(), sourcesJSON, time.Now().UnixNano(), sess.ID)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

func (s *Store) SessionCleared(ctx context.Context, sess *models.Session) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sess.ID); err != nil {
		return fmt.Errorf("clear turns: %w", err)
	}
	return nil
}

// Recent lists the newest sessions first. limit <= 0 returns all of them.
func (s *Store) Recent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT s.id, s.company, s.created_at,
       (SELECT COUNT(*) FROM turns t WHERE t.session_id = s.id AND t.role = ?),
       COALESCE((SELECT t.content FROM turns t
                 WHERE t.session_id = s.id AND t.role = ?
                 ORDER BY t.seq DESC LIMIT 1), '')
FROM sessions s
ORDER BY s.created_at DESC, s.rowid DESC
LIMIT ?
`, string(models.RoleUser), string(models.RoleUser), limit)
	if err != nil {
		return nil, fmt.Errorf("query recent sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			company string
			created int64
		)
		if err := rows.Scan(&sum.SessionID, &company, &created, &sum.Queries, &sum.LastQuestion); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sum.Company = models.CompanyKey(company)
		sum.CreatedAt = time.Unix(0, created)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Turns returns the recorded transcript of one session in order.
func (s *Store) Turns(ctx context.Context, sessionID string) ([]models.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT role, content, sources_json FROM turns
WHERE session_id = ?
ORDER BY seq ASC
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var out []models.Turn
	for rows.Next() {
		var (
			role    string
			content string
			sources sql.NullString
		)
		if err := rows.Scan(&role, &content, &sources); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if models.Role(role) == models.RoleUser {
			out = append(out, models.UserTurn{Text: content})
			continue
		}
		bot := models.BotTurn{Text: content}
		if sources.Valid {
			if err := json.Unmarshal([]byte(sources.String), &bot.Sources); err != nil {
				return nil, fmt.Errorf("decode sources: %w", err)
			}
		}
		out = append(out, bot)
	}
	return out, rows.Err()
}
