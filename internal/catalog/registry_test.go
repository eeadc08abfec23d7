package catalog

import (
	"errors"
	"testing"

	"github.com/techjoec/driftbuster/internal/apperr"
)

type stubPlugin struct {
	name     string
	priority int
	version  string
}

func (s stubPlugin) Name() string     { return s.name }
func (s stubPlugin) Priority() int    { return s.priority }
func (s stubPlugin) Version() string  { return s.version }
func (s stubPlugin) Detect(path string, sample []byte, text *string) (*Match, error) {
	return nil, nil
}

func TestRegistry_RegisterOrdersByPriorityThenRegistration(t *testing.T) {
	r := NewRegistry()
	must(t, r.Register(stubPlugin{name: "b", priority: 20, version: "1"}))
	must(t, r.Register(stubPlugin{name: "a", priority: 10, version: "1"}))
	must(t, r.Register(stubPlugin{name: "c", priority: 10, version: "1"}))

	got := r.Summary()
	want := []string{"a", "c", "b"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("summary[%d].Name = %q, want %q", i, got[i].Name, name)
		}
	}
}

func TestRegistry_DuplicateNameFails(t *testing.T) {
	r := NewRegistry()
	must(t, r.Register(stubPlugin{name: "a", priority: 10, version: "1"}))
	err := r.Register(stubPlugin{name: "a", priority: 20, version: "2"})
	if err == nil {
		t.Fatalf("expected error on duplicate name")
	}
	if !errors.Is(err, apperr.ErrDuplicateName) {
		t.Fatalf("err = %v, want wrapping ErrDuplicateName", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (failed registration must not leak partial state)", r.Len())
	}
}

func TestRegistry_SummaryStableAcrossCalls(t *testing.T) {
	r := NewRegistry()
	must(t, r.Register(stubPlugin{name: "a", priority: 10, version: "1"}))
	must(t, r.Register(stubPlugin{name: "b", priority: 10, version: "1"}))

	first := r.Summary()
	second := r.Summary()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("summary not stable: %+v vs %+v", first[i], second[i])
		}
	}
}

func TestCatalog_DuplicateFormatIDRejected(t *testing.T) {
	_, err := New([]Entry{
		{Name: "a", FormatID: "x", Priority: 1},
		{Name: "b", FormatID: "x", Priority: 2},
	})
	if err == nil {
		t.Fatalf("expected error for duplicate format_id")
	}
}

func TestCatalog_Default_PriorityOrder(t *testing.T) {
	c := Default()
	entries := c.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Priority > entries[i].Priority {
			t.Fatalf("entries not priority-ordered at %d: %d > %d", i, entries[i-1].Priority, entries[i].Priority)
		}
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
