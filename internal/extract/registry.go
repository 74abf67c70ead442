package extract

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"crucible/internal/config"
	"crucible/internal/redact"
)

// Factory builds a configured Extractor instance.
type Factory func(cfg *config.Config, r redact.Redactor) Extractor

// Registry maps agent names to extractor factories. It is populated once at
// startup and safe for concurrent lookup afterwards.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given name. Overwriting an existing
// entry is allowed (tests swap in doubles this way) and only warned about.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		log.Warn("overwriting registered extractor", "agent", name)
	}
	r.factories[name] = f
}

// Get returns the factory for name, or false if none is registered.
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Create builds a configured extractor, or returns false if the agent is
// unknown.
func (r *Registry) Create(name string, cfg *config.Config, red redact.Redactor) (Extractor, bool) {
	f, ok := r.Get(name)
	if !ok {
		return nil, false
	}
	if red == nil {
		red = redact.NoOp
	}
	return f(cfg, red), true
}

// List returns all registered agent names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry holding every built-in extractor.
// Callers construct it during startup; there is no package-level mutable
// registry state.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(AgentClaude, func(cfg *config.Config, red redact.Redactor) Extractor {
		return NewClaudeExtractor(cfg.ClaudeRoot, red)
	})
	r.Register(AgentCursor, func(cfg *config.Config, red redact.Redactor) Extractor {
		return NewCursorExtractor(cfg.CursorGlobalDir, cfg.CursorWorkspaceDir, red)
	})
	return r
}
