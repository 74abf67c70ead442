package extract

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"crucible/internal/redact"
	"crucible/internal/schema"
	"crucible/internal/timeutil"
)

// AgentCursor is the registry name of the embedded-store extractor.
const AgentCursor = "cursor"

// Recognized key prefixes in the cursorDiskKV table. composerData holds
// composed sessions, bubbleId holds message threads; anything else in the
// table is not a session.
const (
	composerPrefix = "composerData:"
	bubblePrefix   = "bubbleId:"
)

// Candidate field names, probed in fixed priority order. These are
// compatibility shims across producer versions, not incidental lists.
var (
	messageListFields   = []string{"messages", "chatHistory", "history", "conversations"}
	envelopeTimeFields  = []string{"timestamp", "createdAt", "created_at", "startTime", "start_time"}
	envelopeEndFields   = []string{"endTime", "end_time", "lastUpdatedAt", "lastActiveAt"}
	messageTimeFields   = []string{"timestamp", "createdAt", "created_at", "sentAt", "time"}
	envelopeModelFields = []string{"model", "modelId", "model_id", "modelName"}
	envelopeGitFields   = []string{"gitBranch", "git_branch", "branch", "currentBranch"}
)

// roleSynonyms normalizes the role spellings different producer versions
// emit. Roles that map to nothing are dropped.
var roleSynonyms = map[string]string{
	"user":      "user",
	"human":     "user",
	"prompt":    "user",
	"assistant": "assistant",
	"ai":        "assistant",
	"bot":       "assistant",
	"cursor":    "assistant",
}

// CursorExtractor reads sessions out of Cursor's state.vscdb key/value
// stores: one global database plus one per workspace. The store is a
// single-writer SQLite file that may be locked by a running editor, so
// every read goes through a private temp copy (see tempCopy).
type CursorExtractor struct {
	globalDir    string
	workspaceDir string
	red          redact.Redactor
}

func NewCursorExtractor(globalDir, workspaceDir string, red redact.Redactor) *CursorExtractor {
	if red == nil {
		red = redact.NoOp
	}
	return &CursorExtractor{globalDir: globalDir, workspaceDir: workspaceDir, red: red}
}

func (e *CursorExtractor) AgentName() string { return AgentCursor }

func (e *CursorExtractor) StorageLocations() []string {
	return e.dbPaths()
}

func (e *CursorExtractor) dbPaths() []string {
	var paths []string

	global := filepath.Join(e.globalDir, "state.vscdb")
	if _, err := os.Stat(global); err == nil {
		paths = append(paths, global)
	}

	entries, err := os.ReadDir(e.workspaceDir)
	if err != nil {
		return paths
	}
	for _, ent := range entries {
		if !ent.IsDir() {
			continue
		}
		p := filepath.Join(e.workspaceDir, ent.Name(), "state.vscdb")
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	return paths
}

// Discover lists every session across all databases. A database that cannot
// be copied or queried is logged and skipped; the rest are still read.
func (e *CursorExtractor) Discover() ([]schema.SessionHandle, error) {
	var handles []schema.SessionHandle

	for _, dbPath := range e.dbPaths() {
		found, err := e.discoverFromDB(dbPath)
		if err != nil {
			log.Warn("session discovery failed for storage unit", "path", dbPath, "err", err)
			continue
		}
		handles = append(handles, found...)
	}

	sortHandles(handles)
	return handles, nil
}

func (e *CursorExtractor) discoverFromDB(dbPath string) ([]schema.SessionHandle, error) {
	copyPath, cleanup, err := tempCopy(dbPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	db, err := sql.Open("sqlite", copyPath+"?mode=ro")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(
		"SELECT key, value FROM cursorDiskKV WHERE (key LIKE ? OR key LIKE ?) AND value IS NOT NULL",
		composerPrefix+"%", bubblePrefix+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var handles []schema.SessionHandle
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}

		id, ok := sessionIDFromKey(key)
		if !ok {
			continue
		}

		// Best-effort timestamp from the blob envelope; absent is fine.
		var ts string
		var envelope map[string]any
		if err := json.Unmarshal([]byte(value), &envelope); err == nil {
			ts = timeutil.FromFields(envelope, envelopeTimeFields...)
		}

		handles = append(handles, schema.SessionHandle{
			ID:        id,
			Timestamp: ts,
			Locator:   dbPath,
			RawKey:    key,
			Agent:     AgentCursor,
		})
	}
	return handles, rows.Err()
}

// sessionIDFromKey strips a recognized prefix from a store key. Keys that
// match neither prefix are not sessions.
func sessionIDFromKey(key string) (string, bool) {
	if id, ok := strings.CutPrefix(key, composerPrefix); ok {
		return id, true
	}
	if id, ok := strings.CutPrefix(key, bubblePrefix); ok {
		return id, true
	}
	return "", false
}

// Parse searches every database for the session id under both key prefixes.
// Databases that fail to copy or query are skipped; (nil, nil) means no
// unit had the session.
func (e *CursorExtractor) Parse(id string) (*schema.ParsedSession, error) {
	for _, dbPath := range e.dbPaths() {
		session, err := e.parseFromDB(dbPath, id)
		if err != nil {
			log.Warn("session lookup failed for storage unit", "path", dbPath, "err", err)
			continue
		}
		if session != nil {
			return session, nil
		}
	}
	return nil, nil
}

func (e *CursorExtractor) parseFromDB(dbPath, id string) (*schema.ParsedSession, error) {
	copyPath, cleanup, err := tempCopy(dbPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	db, err := sql.Open("sqlite", copyPath+"?mode=ro")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	for _, prefix := range []string{composerPrefix, bubblePrefix} {
		var value string
		err := db.QueryRow("SELECT value FROM cursorDiskKV WHERE key = ?", prefix+id).Scan(&value)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, err
		}
		if session := e.parseBlob(id, value); session != nil {
			return session, nil
		}
	}
	return nil, nil
}

// parseBlob normalizes one stored session value. A blob that is not a JSON
// object is reported as not found (nil), never as an error.
func (e *CursorExtractor) parseBlob(id, blob string) *schema.ParsedSession {
	var data map[string]any
	if err := json.Unmarshal([]byte(blob), &data); err != nil {
		log.Debug("session blob is not valid JSON", "session", id, "err", err)
		return nil
	}

	a := newAssembler(AgentCursor, id)

	for _, f := range envelopeModelFields {
		if v, ok := data[f].(string); ok {
			a.observeModel(v)
			break
		}
	}
	for _, f := range envelopeGitFields {
		if v, ok := data[f].(string); ok {
			a.observeGitBranch(v)
			break
		}
	}
	a.observeTime(timeutil.FromFields(data, envelopeTimeFields...))
	a.observeTime(timeutil.FromFields(data, envelopeEndFields...))

	for _, raw := range messageList(data) {
		msg, ok := raw.(map[string]any)
		if !ok {
			a.skip()
			continue
		}
		e.processMessage(msg, a)
	}

	return a.finish()
}

// messageList probes the alternative field names under which producer
// versions store the conversation, returning the first list found.
func messageList(data map[string]any) []any {
	for _, f := range messageListFields {
		if list, ok := data[f].([]any); ok {
			return list
		}
	}
	return nil
}

func (e *CursorExtractor) processMessage(msg map[string]any, a *assembler) {
	role, _ := msg["role"].(string)
	if role == "" {
		role, _ = msg["type"].(string)
	}
	role, ok := roleSynonyms[role]
	if !ok {
		return
	}

	ex := e.extractCursorContent(msg)

	if ex.Thinking == "" {
		if think, ok := msg["thinking"].(string); ok {
			ex.Thinking = e.red(strings.TrimSpace(think))
		} else if think, ok := msg["reasoning"].(string); ok {
			ex.Thinking = e.red(strings.TrimSpace(think))
		}
	}

	ex.ToolUses = append(ex.ToolUses, e.extractCursorToolCalls(msg)...)

	a.add(role, ex, timeutil.FromFields(msg, messageTimeFields...))
}

// extractCursorContent finds the message text: a content field (string or
// segment list), a bare text field, or a nested message envelope.
func (e *CursorExtractor) extractCursorContent(msg map[string]any) extracted {
	if v, ok := msg["content"]; ok {
		if raw, err := json.Marshal(v); err == nil {
			return extractContent(raw, e.red)
		}
	}
	if text, ok := msg["text"].(string); ok {
		return extracted{Content: e.red(strings.TrimSpace(text))}
	}
	if nested, ok := msg["message"].(map[string]any); ok {
		if content, ok := nested["content"].(string); ok {
			return extracted{Content: e.red(strings.TrimSpace(content))}
		}
	}
	return extracted{}
}

func (e *CursorExtractor) extractCursorToolCalls(msg map[string]any) []schema.ToolCall {
	var calls []schema.ToolCall

	appendCall := func(name string, input any) {
		if name == "" {
			name = "unknown"
		}
		var summary string
		switch v := input.(type) {
		case string:
			summary = truncate(v, maxToolSummary)
		case nil:
		default:
			if raw, err := json.Marshal(v); err == nil {
				summary = summarizeToolInput(name, raw)
			}
		}
		calls = append(calls, schema.ToolCall{Tool: name, Input: e.red(summary)})
	}

	if list, ok := msg["tool_calls"].([]any); ok {
		for _, item := range list {
			tc, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name, _ := tc["name"].(string)
			input := tc["input"]
			if fn, ok := tc["function"].(map[string]any); ok {
				if name == "" {
					name, _ = fn["name"].(string)
				}
				if input == nil {
					input = fn["arguments"]
				}
			}
			appendCall(name, input)
		}
		return calls
	}

	if list, ok := msg["tools"].([]any); ok {
		for _, item := range list {
			tc, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name, _ := tc["name"].(string)
			appendCall(name, tc["input"])
		}
	}
	return calls
}
