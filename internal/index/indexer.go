package index

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"crucible/internal/config"
	"crucible/internal/extract"
	"crucible/internal/redact"
	"crucible/internal/schema"
)

type Stats struct {
	Discovered int
	Updated    int
	Skipped    int
	Pruned     int
	Errors     int
}

func (s Stats) String() string {
	return fmt.Sprintf("discovered=%d updated=%d skipped=%d pruned=%d errors=%d",
		s.Discovered, s.Updated, s.Skipped, s.Pruned, s.Errors)
}

// SessionKey namespaces a session id by its agent, so sessions from
// different sources can never collide in the index.
func SessionKey(agent, id string) string {
	return agent + ":" + id
}

// IndexAll discovers and indexes every session from every registered
// extractor. Per-session failures are counted, logged, and skipped; the
// rest of the run continues.
func IndexAll(db *DB, reg *extract.Registry, cfg *config.Config, red redact.Redactor) (Stats, error) {
	var stats Stats

	// track which sessions still exist, for pruning
	seenKeys := make(map[string]struct{})

	for _, agent := range reg.List() {
		ext, ok := reg.Create(agent, cfg, red)
		if !ok {
			continue
		}

		handles, err := ext.Discover()
		if err != nil {
			stats.Errors++
			log.Warn("discovery failed", "agent", agent, "err", err)
			continue
		}
		stats.Discovered += len(handles)

		for _, h := range handles {
			key := SessionKey(agent, h.ID)
			seenKeys[key] = struct{}{}

			marker, err := db.DiscoveredMarker(key)
			if err != nil {
				stats.Errors++
				continue
			}
			if marker != "" && marker == h.Timestamp {
				stats.Skipped++
				continue
			}

			session, err := ext.Parse(h.ID)
			if err != nil {
				stats.Errors++
				log.Warn("parse failed", "agent", agent, "session", h.ID, "err", err)
				continue
			}
			if session == nil {
				// discovered but no longer parseable; nothing to index
				continue
			}

			if err := indexSession(db, key, h, session); err != nil {
				stats.Errors++
				log.Warn("index failed", "session", key, "err", err)
				continue
			}
			stats.Updated++
		}
	}

	pruned, err := pruneSessions(db, seenKeys)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	return stats, nil
}

func indexSession(db *DB, key string, h schema.SessionHandle, s *schema.ParsedSession) error {
	// delete old data first
	if err := db.DeleteSession(key); err != nil {
		return err
	}

	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (session_key, agent, session_id, locator, project, model,
		                       git_branch, start_time, end_time, discovered,
		                       user_msgs, asst_msgs, tool_uses, input_toks, output_toks, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		key, s.Agent, s.SessionID, h.Locator, s.Project, s.Model,
		s.GitBranch, s.StartTime, s.EndTime, h.Timestamp,
		s.Stats.UserMessages, s.Stats.AssistantMessages, s.Stats.ToolUses,
		s.Stats.InputTokens, s.Stats.OutputTokens, s.Stats.SkippedEntries,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO messages (session_key, seq, ts, role, content, thinking, tools)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range s.Messages {
		if _, err := stmt.Exec(key, i, m.Timestamp, m.Role, m.Content, m.Thinking, flattenTools(m.ToolUses)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// flattenTools renders tool calls as one display line per call.
func flattenTools(calls []schema.ToolCall) string {
	if len(calls) == 0 {
		return ""
	}
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = fmt.Sprintf("%s(%s)", c.Tool, c.Input)
	}
	return strings.Join(lines, "\n")
}

func pruneSessions(db *DB, seenKeys map[string]struct{}) (int, error) {
	allKeys, err := db.AllSessionKeys()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for key := range allKeys {
		if _, ok := seenKeys[key]; !ok {
			if err := db.DeleteSession(key); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
