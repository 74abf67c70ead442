package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS sessions (
    session_key  TEXT PRIMARY KEY,
    agent        TEXT NOT NULL,
    session_id   TEXT NOT NULL,
    locator      TEXT NOT NULL DEFAULT '',
    project      TEXT NOT NULL DEFAULT '',
    model        TEXT NOT NULL DEFAULT '',
    git_branch   TEXT NOT NULL DEFAULT '',
    start_time   TEXT NOT NULL DEFAULT '',
    end_time     TEXT NOT NULL DEFAULT '',
    discovered   TEXT NOT NULL DEFAULT '',
    user_msgs    INTEGER NOT NULL DEFAULT 0,
    asst_msgs    INTEGER NOT NULL DEFAULT 0,
    tool_uses    INTEGER NOT NULL DEFAULT 0,
    input_toks   INTEGER NOT NULL DEFAULT 0,
    output_toks  INTEGER NOT NULL DEFAULT 0,
    skipped      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
    session_key TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    ts          TEXT NOT NULL DEFAULT '',
    role        TEXT NOT NULL,
    content     TEXT NOT NULL,
    thinking    TEXT NOT NULL DEFAULT '',
    tools       TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (session_key, seq)
);

CREATE VIRTUAL TABLE IF NOT EXISTS messages_fts USING fts5(
    content,
    content=messages,
    content_rowid=rowid,
    tokenize='unicode61'
);

-- triggers to keep FTS in sync
CREATE TRIGGER IF NOT EXISTS messages_ai AFTER INSERT ON messages BEGIN
    INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_ad AFTER DELETE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
END;

CREATE TRIGGER IF NOT EXISTS messages_au AFTER UPDATE ON messages BEGIN
    INSERT INTO messages_fts(messages_fts, rowid, content) VALUES('delete', old.rowid, old.content);
    INSERT INTO messages_fts(rowid, content) VALUES (new.rowid, new.content);
END;
`

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	db.Exec("CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)")
	d := &DB{db: db}
	d.migrateIndexVersion()

	return d, nil
}

// indexVersion should be bumped whenever normalization logic changes, to
// force a full re-index of previously indexed sessions.
const indexVersion = "1"

func (d *DB) migrateIndexVersion() {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'index_version'").Scan(&ver)
	if err != nil || ver != indexVersion {
		// force re-index by clearing the change markers
		d.db.Exec("UPDATE sessions SET discovered = ''")
		d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('index_version', ?)", indexVersion)
	}
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

// DiscoveredMarker returns the change marker stored for a session, or ""
// when the session has never been indexed.
func (d *DB) DiscoveredMarker(sessionKey string) (string, error) {
	var marker string
	err := d.db.QueryRow(
		"SELECT discovered FROM sessions WHERE session_key = ?",
		sessionKey,
	).Scan(&marker)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return marker, nil
}

func (d *DB) AllSessionKeys() (map[string]struct{}, error) {
	rows, err := d.db.Query("SELECT session_key FROM sessions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

func (d *DB) DeleteSession(sessionKey string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE session_key = ?", sessionKey); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM sessions WHERE session_key = ?", sessionKey); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) SessionCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n)
	return n, err
}

func (d *DB) MessageCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

type SessionRow struct {
	SessionKey string
	Agent      string
	SessionID  string
	Locator    string
	Project    string
	Model      string
	GitBranch  string
	StartTime  string
	EndTime    string
	UserMsgs   int
	AsstMsgs   int
	ToolUses   int
}

func (d *DB) GetSessionByKey(sessionKey string) (*SessionRow, error) {
	var s SessionRow
	err := d.db.QueryRow(
		`SELECT session_key, agent, session_id, locator, project, model, git_branch,
		        start_time, end_time, user_msgs, asst_msgs, tool_uses
		 FROM sessions WHERE session_key = ?`,
		sessionKey,
	).Scan(&s.SessionKey, &s.Agent, &s.SessionID, &s.Locator, &s.Project, &s.Model,
		&s.GitBranch, &s.StartTime, &s.EndTime, &s.UserMsgs, &s.AsstMsgs, &s.ToolUses)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns sessions newest-first, optionally filtered by agent
// and end-time lower bound.
func (d *DB) ListSessions(agent, since string, limit int) ([]SessionRow, error) {
	query := `SELECT session_key, agent, session_id, locator, project, model, git_branch,
	                 start_time, end_time, user_msgs, asst_msgs, tool_uses
	          FROM sessions WHERE 1=1`
	var args []interface{}
	if agent != "" {
		query += " AND agent = ?"
		args = append(args, agent)
	}
	if since != "" {
		query += " AND end_time >= ?"
		args = append(args, since)
	}
	query += " ORDER BY end_time DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionRow
	for rows.Next() {
		var s SessionRow
		if err := rows.Scan(&s.SessionKey, &s.Agent, &s.SessionID, &s.Locator, &s.Project,
			&s.Model, &s.GitBranch, &s.StartTime, &s.EndTime,
			&s.UserMsgs, &s.AsstMsgs, &s.ToolUses); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

type MessageRow struct {
	SessionKey string
	Seq        int
	Ts         string
	Role       string
	Content    string
	Thinking   string
	Tools      string
}

func (d *DB) GetMessages(sessionKey string) ([]MessageRow, error) {
	rows, err := d.db.Query(
		"SELECT session_key, seq, ts, role, content, thinking, tools FROM messages WHERE session_key = ? ORDER BY seq",
		sessionKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []MessageRow
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.SessionKey, &m.Seq, &m.Ts, &m.Role, &m.Content, &m.Thinking, &m.Tools); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// GetMessagesWindow returns a window of messages around a hit message,
// loading only the necessary rows. startPos is the number of messages
// before the window; totalCount is the session's message count.
func (d *DB) GetMessagesWindow(sessionKey string, hitSeq, context int) (msgs []MessageRow, hitIdx int, startPos int, totalCount int, err error) {
	err = d.db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE session_key = ?", sessionKey,
	).Scan(&totalCount)
	if err != nil {
		return nil, -1, 0, 0, err
	}

	// find the 0-based position of the hit message
	hitPos := -1
	if hitSeq >= 0 {
		err = d.db.QueryRow(`
			SELECT pos FROM (
				SELECT seq, ROW_NUMBER() OVER (ORDER BY seq) - 1 AS pos
				FROM messages WHERE session_key = ?
			) WHERE seq = ?`,
			sessionKey, hitSeq,
		).Scan(&hitPos)
		if err == sql.ErrNoRows {
			hitPos = -1
			err = nil
		} else if err != nil {
			return nil, -1, 0, 0, err
		}
	}

	// compute window bounds
	startPos = 0
	limit := totalCount
	if hitPos >= 0 {
		startPos = hitPos - context
		if startPos < 0 {
			startPos = 0
		}
		endPos := hitPos + context + 1
		if endPos > totalCount {
			endPos = totalCount
		}
		limit = endPos - startPos
	}

	rows, err := d.db.Query(
		"SELECT session_key, seq, ts, role, content, thinking, tools FROM messages WHERE session_key = ? ORDER BY seq LIMIT ? OFFSET ?",
		sessionKey, limit, startPos,
	)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	defer rows.Close()

	var result []MessageRow
	localHitIdx := -1
	for rows.Next() {
		var m MessageRow
		if err := rows.Scan(&m.SessionKey, &m.Seq, &m.Ts, &m.Role, &m.Content, &m.Thinking, &m.Tools); err != nil {
			return nil, -1, 0, 0, err
		}
		if m.Seq == hitSeq {
			localHitIdx = len(result)
		}
		result = append(result, m)
	}
	return result, localHitIdx, startPos, totalCount, rows.Err()
}
