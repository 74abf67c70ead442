package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"crucible/internal/index"
)

type Result struct {
	SessionKey string
	Seq        int
	EndTime    string
	Agent      string
	Project    string
	Snippet    string
	Role       string
	Rank       float64
}

type Options struct {
	Query string
	Agent string // "" = all, "claude", "cursor"
	Role  string // "" = all, "user", "assistant"
	Since string // "" = no filter, e.g. "2024-01-01"
	Limit int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if idx < 0 {
		// no match, return head
		if len([]rune(text)) > contextChars*2 {
			return string([]rune(text)[:contextChars*2]) + "..."
		}
		return text
	}
	runes := []rune(text)
	qRunes := []rune(query)
	// find rune position of idx
	runePos := len([]rune(text[:idx]))
	start := runePos - contextChars
	if start < 0 {
		start = 0
	}
	end := runePos + len(qRunes) + contextChars
	if end > len(runes) {
		end = len(runes)
	}
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	// wrap the matched part with markers
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	// Fetch more results before dedup so we still have enough after
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = searchLike(db, opts)
	} else {
		results, err = searchFTS(db, opts)
	}
	if err != nil {
		return nil, err
	}

	// Deduplicate: keep only the best-ranked result per session
	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.SessionKey] {
			continue
		}
		seen[r.SessionKey] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

// ListAll returns every indexed session as a result row, newest-first,
// with the first user message as the snippet. Used by the list browser.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 1000
	}

	var conditions []string
	var args []interface{}

	if opts.Agent != "" {
		conditions = append(conditions, "s.agent = ?")
		args = append(args, opts.Agent)
	}
	if opts.Since != "" {
		conditions = append(conditions, "s.end_time >= ?")
		args = append(args, opts.Since)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT
			s.session_key,
			s.end_time,
			s.agent,
			s.project,
			COALESCE((SELECT m.content FROM messages m
			          WHERE m.session_key = s.session_key AND m.role = 'user'
			          ORDER BY m.seq LIMIT 1), '')
		FROM sessions s
		%s
		ORDER BY s.end_time DESC
		LIMIT ?
	`, where)

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		r := Result{Seq: -1}
		if err := rows.Scan(&r.SessionKey, &r.EndTime, &r.Agent, &r.Project, &r.Snippet); err != nil {
			return nil, err
		}
		if len([]rune(r.Snippet)) > 120 {
			r.Snippet = string([]rune(r.Snippet)[:120])
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	var conditions []string
	var args []interface{}

	// FTS match
	conditions = append(conditions, "messages_fts MATCH ?")
	args = append(args, opts.Query)

	// agent filter
	if opts.Agent != "" {
		conditions = append(conditions, "s.agent = ?")
		args = append(args, opts.Agent)
	}

	// role filter
	if opts.Role != "" {
		conditions = append(conditions, "m.role = ?")
		args = append(args, opts.Role)
	}

	// since filter
	if opts.Since != "" {
		conditions = append(conditions, "s.end_time >= ?")
		args = append(args, opts.Since)
	}

	where := strings.Join(conditions, " AND ")

	query := fmt.Sprintf(`
		SELECT
			m.session_key,
			m.seq,
			s.end_time,
			s.agent,
			s.project,
			snippet(messages_fts, 0, '>>>','<<<', '...', 40) as snip,
			m.role,
			bm25(messages_fts, 1.0) as rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN sessions s ON m.session_key = s.session_key
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, where)

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	var conditions []string
	var args []interface{}

	// LIKE match for CJK substring search
	conditions = append(conditions, "m.content LIKE ?")
	args = append(args, "%"+opts.Query+"%")

	// agent filter
	if opts.Agent != "" {
		conditions = append(conditions, "s.agent = ?")
		args = append(args, opts.Agent)
	}

	// role filter
	if opts.Role != "" {
		conditions = append(conditions, "m.role = ?")
		args = append(args, opts.Role)
	}

	// since filter
	if opts.Since != "" {
		conditions = append(conditions, "s.end_time >= ?")
		args = append(args, opts.Since)
	}

	where := strings.Join(conditions, " AND ")

	query := fmt.Sprintf(`
		SELECT
			m.session_key,
			m.seq,
			s.end_time,
			s.agent,
			s.project,
			m.content,
			m.role
		FROM messages m
		JOIN sessions s ON m.session_key = s.session_key
		WHERE %s
		ORDER BY s.end_time DESC
		LIMIT ?
	`, where)

	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var fullText string
		if err := rows.Scan(
			&r.SessionKey, &r.Seq, &r.EndTime,
			&r.Agent, &r.Project,
			&fullText, &r.Role,
		); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(fullText, opts.Query, 30)
		r.Rank = 0
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.SessionKey, &r.Seq, &r.EndTime,
			&r.Agent, &r.Project,
			&r.Snippet, &r.Role, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
