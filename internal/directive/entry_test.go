package directive

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewSetDeduplicates(t *testing.T) {
	set := NewSet("", []KeywordEntry{
		{Name: "opt"},
		{Name: "freq"},
		{Name: "OPT", Params: []Parameter{{Name: "maxcycles", Value: "50"}}},
	})

	want := []string{"OPT", "freq"}
	if diff := cmp.Diff(want, set.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	e, ok := set.Lookup("opt")
	if !ok {
		t.Fatal("opt not found after dedup")
	}
	if v, _ := e.Param("maxcycles"); v != "50" {
		t.Errorf("later entry should replace the earlier one, got maxcycles=%q", v)
	}
}

func TestAddReplacesInPlace(t *testing.T) {
	set := NewSet("", []KeywordEntry{{Name: "opt"}, {Name: "freq"}})

	next := set.Add(KeywordEntry{Name: "Opt", Params: []Parameter{{Name: "maxcycles", Value: "10"}}})

	if diff := cmp.Diff([]string{"Opt", "freq"}, next.Names()); diff != "" {
		t.Errorf("replacement must keep position (-want +got):\n%s", diff)
	}
	// The original snapshot is untouched.
	if diff := cmp.Diff([]string{"opt", "freq"}, set.Names()); diff != "" {
		t.Errorf("original set mutated (-want +got):\n%s", diff)
	}
}

func TestRemove(t *testing.T) {
	set := NewSet("", []KeywordEntry{{Name: "opt"}, {Name: "freq"}})

	next := set.Remove("OPT")
	if diff := cmp.Diff([]string{"freq"}, next.Names()); diff != "" {
		t.Errorf("remove mismatch (-want +got):\n%s", diff)
	}

	// Removing an absent keyword is a no-op snapshot, not an error.
	same := next.Remove("missing")
	if diff := cmp.Diff(next.Names(), same.Names()); diff != "" {
		t.Errorf("no-op removal changed the set (-want +got):\n%s", diff)
	}
}

func TestSetParameterSnapshot(t *testing.T) {
	set := NewSet("Link1", []KeywordEntry{
		{Name: "td", Params: []Parameter{{Name: "nstates", Value: "50"}}},
	})

	next, ok := set.SetParameter("TD", "root", "2")
	if !ok {
		t.Fatal("SetParameter reported keyword missing")
	}
	if v, _ := mustLookup(t, next, "td").Param("root"); v != "2" {
		t.Errorf("root = %q, want 2", v)
	}
	if _, ok := mustLookup(t, set, "td").Param("root"); ok {
		t.Error("original snapshot gained the new parameter")
	}

	if _, ok := set.SetParameter("opt", "x", "1"); ok {
		t.Error("SetParameter on an absent keyword must report false")
	}
}

func TestMethodPart(t *testing.T) {
	cases := map[string]string{
		"b3lyp/6-311g(d,p)": "b3lyp",
		"b3lyp":             "b3lyp",
		"/weird":            "/weird",
	}
	for name, want := range cases {
		e := KeywordEntry{Name: name}
		if got := e.MethodPart(); got != want {
			t.Errorf("MethodPart(%q) = %q, want %q", name, got, want)
		}
	}
}

func mustLookup(t *testing.T, s *DirectiveSet, name string) *KeywordEntry {
	t.Helper()
	e, ok := s.Lookup(name)
	if !ok {
		t.Fatalf("keyword %q not in set", name)
	}
	return &e
}
