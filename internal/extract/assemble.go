package extract

import (
	"crucible/internal/schema"
	"crucible/internal/timeutil"
)

// assembler folds a source's ordered raw entries into one ParsedSession,
// accumulating metadata and statistics along the way. Metadata fields are
// first-non-empty-wins except start/end time, which track min/max.
type assembler struct {
	session schema.ParsedSession
}

func newAssembler(agent, sessionID string) *assembler {
	return &assembler{
		session: schema.ParsedSession{
			SchemaVersion: schema.SchemaVersion,
			SessionID:     sessionID,
			Agent:         agent,
		},
	}
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func (a *assembler) observeProject(v string)   { setIfEmpty(&a.session.Project, v) }
func (a *assembler) observeModel(v string)     { setIfEmpty(&a.session.Model, v) }
func (a *assembler) observeGitBranch(v string) { setIfEmpty(&a.session.GitBranch, v) }
func (a *assembler) observeCwd(v string)       { setIfEmpty(&a.session.Cwd, v) }
func (a *assembler) observeVersion(v string)   { setIfEmpty(&a.session.AgentVersion, v) }

// observeTime widens the session's start/end window. Empty timestamps are
// ignored.
func (a *assembler) observeTime(ts string) {
	if ts == "" {
		return
	}
	a.session.StartTime = timeutil.Min(a.session.StartTime, ts)
	a.session.EndTime = timeutil.Max(a.session.EndTime, ts)
}

// add appends one normalized message. A message whose content is empty
// after redaction and that carries no tool uses is dropped, never emitted.
func (a *assembler) add(role string, ex extracted, ts string) {
	if ex.Content == "" && len(ex.ToolUses) == 0 {
		return
	}

	a.session.Messages = append(a.session.Messages, schema.Message{
		Role:      role,
		Content:   ex.Content,
		Thinking:  ex.Thinking,
		ToolUses:  ex.ToolUses,
		Timestamp: ts,
	})

	switch role {
	case "user":
		a.session.Stats.UserMessages++
	case "assistant":
		a.session.Stats.AssistantMessages++
	}
	a.session.Stats.ToolUses += len(ex.ToolUses)
	a.observeTime(ts)
}

func (a *assembler) addTokens(input, output int) {
	a.session.Stats.InputTokens += input
	a.session.Stats.OutputTokens += output
}

func (a *assembler) skip() {
	a.session.Stats.SkippedEntries++
}

// finish emits the assembled session. A session with zero messages is still
// a valid session; absence of content is not a parse failure.
func (a *assembler) finish() *schema.ParsedSession {
	return &a.session
}
