package extract

import (
	"reflect"
	"testing"

	"crucible/internal/config"
	"crucible/internal/redact"
	"crucible/internal/schema"
)

type stubExtractor struct{ name string }

func (s *stubExtractor) AgentName() string          { return s.name }
func (s *stubExtractor) StorageLocations() []string { return nil }
func (s *stubExtractor) Discover() ([]schema.SessionHandle, error) {
	return nil, nil
}
func (s *stubExtractor) Parse(string) (*schema.ParsedSession, error) { return nil, nil }

func stubFactory(name string) Factory {
	return func(*config.Config, redact.Redactor) Extractor {
		return &stubExtractor{name: name}
	}
}

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", stubFactory("stub"))

	ext, ok := r.Create("stub", &config.Config{}, nil)
	if !ok {
		t.Fatal("Create returned not found for registered extractor")
	}
	if ext.AgentName() != "stub" {
		t.Errorf("AgentName = %q", ext.AgentName())
	}

	if _, ok := r.Create("nope", &config.Config{}, nil); ok {
		t.Error("Create should report unknown agents")
	}
}

func TestRegistryOverwriteAllowed(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", stubFactory("first"))
	r.Register("stub", stubFactory("second"))

	ext, _ := r.Create("stub", &config.Config{}, nil)
	if ext.AgentName() != "second" {
		t.Errorf("overwrite did not take effect, got %q", ext.AgentName())
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register("zeta", stubFactory("zeta"))
	r.Register("alpha", stubFactory("alpha"))

	if got := r.List(); !reflect.DeepEqual(got, []string{"alpha", "zeta"}) {
		t.Errorf("List = %v", got)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	for _, name := range []string{AgentClaude, AgentCursor} {
		ext, ok := r.Create(name, config.Defaults("/home/tester"), redact.NoOp)
		if !ok {
			t.Fatalf("built-in extractor %q not registered", name)
		}
		if ext.AgentName() != name {
			t.Errorf("AgentName = %q, want %q", ext.AgentName(), name)
		}
		if len(ext.StorageLocations()) == 0 && name == AgentClaude {
			t.Errorf("%s reports no storage locations", name)
		}
	}
}
