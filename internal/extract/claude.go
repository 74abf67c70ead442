package extract

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"crucible/internal/redact"
	"crucible/internal/schema"
	"crucible/internal/timeutil"
)

// AgentClaude is the registry name of the file-log extractor.
const AgentClaude = "claude"

const maxLineSize = 10 * 1024 * 1024 // 10MB

// claudeEntry is one line of a session transcript. The timestamp is either
// epoch milliseconds or an ISO string depending on producer version, so it
// stays untyped until normalized.
type claudeEntry struct {
	Type      string          `json:"type"`
	IsMeta    bool            `json:"isMeta"`
	Timestamp any             `json:"timestamp"`
	Cwd       string          `json:"cwd"`
	GitBranch string          `json:"gitBranch"`
	Version   string          `json:"version"`
	Message   json.RawMessage `json:"message"`
	Content   json.RawMessage `json:"content"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Model   string          `json:"model"`
	Content json.RawMessage `json:"content"`
	Usage   *claudeUsage    `json:"usage"`
}

type claudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ClaudeExtractor reads sessions stored as line-delimited JSON transcripts,
// one file per session, under <root>/projects/<flattened-cwd>/<id>.jsonl.
type ClaudeExtractor struct {
	root string
	red  redact.Redactor
}

func NewClaudeExtractor(root string, red redact.Redactor) *ClaudeExtractor {
	if red == nil {
		red = redact.NoOp
	}
	return &ClaudeExtractor{root: root, red: red}
}

func (e *ClaudeExtractor) AgentName() string { return AgentClaude }

func (e *ClaudeExtractor) StorageLocations() []string {
	return []string{e.projectsDir()}
}

func (e *ClaudeExtractor) projectsDir() string {
	return filepath.Join(e.root, "projects")
}

// Discover walks every project directory for session files. Unreadable
// directories are skipped, never fatal. Handles are ordered newest-first by
// file modification time.
func (e *ClaudeExtractor) Discover() ([]schema.SessionHandle, error) {
	var handles []schema.SessionHandle

	err := filepath.Walk(e.projectsDir(), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Debug("skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if info.IsDir() {
			if filepath.Base(path) == "subagents" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".jsonl" {
			return nil
		}
		if strings.Contains(filepath.Base(path), "sessions-index") {
			return nil
		}
		handles = append(handles, schema.SessionHandle{
			ID:        strings.TrimSuffix(filepath.Base(path), ".jsonl"),
			Timestamp: info.ModTime().UTC().Format(time.RFC3339),
			Locator:   path,
			Agent:     AgentClaude,
		})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	sortHandles(handles)
	return handles, nil
}

// Parse walks the same tree Discover does, looking for <id>.jsonl, and
// parses the first match. A missing session returns (nil, nil).
func (e *ClaudeExtractor) Parse(id string) (*schema.ParsedSession, error) {
	projectsDir := e.projectsDir()
	target := id + ".jsonl"

	var found string
	err := filepath.Walk(projectsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Debug("skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if info.IsDir() {
			if filepath.Base(path) == "subagents" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Base(path) == target {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if found == "" {
		return nil, nil
	}

	// The project name comes from the top-level flattened-cwd directory,
	// however deep the file itself is nested.
	project := ""
	if rel, err := filepath.Rel(projectsDir, found); err == nil {
		if parts := strings.Split(rel, string(filepath.Separator)); len(parts) > 1 {
			project = buildProjectName(parts[0])
		}
	}
	return e.parseFile(found, id, project)
}

// parseFile folds every line of a transcript through the assembler. A line
// that fails to decode increments skipped_entries and is otherwise ignored;
// a file where nothing decodes yields no session at all.
func (e *ClaudeExtractor) parseFile(path, id, project string) (*schema.ParsedSession, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a := newAssembler(AgentClaude, id)
	a.observeProject(project)
	decoded := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var rec claudeEntry
		if err := json.Unmarshal(line, &rec); err != nil {
			a.skip()
			continue
		}
		decoded = true
		e.processEntry(&rec, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if !decoded {
		return nil, nil
	}
	return a.finish(), nil
}

func (e *ClaudeExtractor) processEntry(rec *claudeEntry, a *assembler) {
	a.observeCwd(rec.Cwd)
	a.observeGitBranch(rec.GitBranch)
	a.observeVersion(rec.Version)

	if rec.IsMeta {
		return
	}
	if rec.Type != "user" && rec.Type != "assistant" {
		return
	}

	// Content lives directly on the entry or nested under a message
	// envelope, depending on producer version.
	content := rec.Content
	var msg claudeMessage
	if len(rec.Message) > 0 {
		if err := json.Unmarshal(rec.Message, &msg); err == nil {
			if len(msg.Content) > 0 {
				content = msg.Content
			}
			a.observeModel(msg.Model)
			if msg.Usage != nil {
				a.addTokens(msg.Usage.InputTokens, msg.Usage.OutputTokens)
			}
		}
	}

	ts := timeutil.Normalize(rec.Timestamp)
	a.observeTime(ts)
	a.add(rec.Type, extractContent(content, e.red), ts)
}

// buildProjectName recovers a readable project name from the flattened
// directory name the agent derives from the working directory, e.g.
// "-Users-alice-Documents-myproject" -> "myproject".
func buildProjectName(dir string) string {
	if !strings.HasPrefix(dir, "-") {
		return dir
	}
	parts := strings.Split(dir, "-") // leading "-" yields an empty first part

	// Prefer whatever follows the last well-known folder marker.
	for i := len(parts) - 1; i >= 0; i-- {
		switch parts[i] {
		case "Documents", "Projects", "src", "repos":
			if i+1 < len(parts) {
				return strings.Join(parts[i+1:], "-")
			}
		}
	}

	// "-Users-<name>-…" / "-home-<name>-…": drop the home prefix.
	if len(parts) > 3 && (parts[1] == "Users" || parts[1] == "home") {
		return strings.Join(parts[3:], "-")
	}
	return dir
}
