package directive

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeSchema is a minimal schema for parser tests: keyword -> declared
// parameter names.
type fakeSchema map[string][]string

func (s fakeSchema) ParameterNames(keyword string) ([]string, bool) {
	names, ok := s[strings.ToLower(keyword)]
	return names, ok
}

var testSchema = fakeSchema{
	"opt":  nil,
	"freq": nil,
	"td":   {"nstates", "root"},
	"scrf": {"model", "solvent"},
}

func TestParseRouteLine(t *testing.T) {
	p := NewParser(testSchema)

	entries, err := p.Parse("#p opt freq b3lyp/6-311g(d,p) td=(nstates=50,root=1) scrf=(smd,solvent=water)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []KeywordEntry{
		{Name: "opt"},
		{Name: "freq"},
		{Name: "b3lyp/6-311g(d,p)", Unrecognized: true},
		{Name: "td", Params: []Parameter{{Name: "nstates", Value: "50"}, {Name: "root", Value: "1"}}},
		{Name: "scrf", Params: []Parameter{{Name: "model", Value: "smd"}, {Name: "solvent", Value: "water"}}},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePositionalAssignment(t *testing.T) {
	p := NewParser(testSchema)

	// Bare items consume the declared names not taken by explicit bindings,
	// in declaration order.
	entries, err := p.Parse("#p td=(20,root=3)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []Parameter{{Name: "nstates", Value: "20"}, {Name: "root", Value: "3"}}
	if diff := cmp.Diff(want, entries[0].Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSimpleValue(t *testing.T) {
	p := NewParser(testSchema)

	entries, err := p.Parse("#p guess=read")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []KeywordEntry{{
		Name:         "guess",
		Params:       []Parameter{{Name: "value", Value: "read"}},
		Unrecognized: true,
	}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestParseUnknownKeywordKeepsBareFlags(t *testing.T) {
	p := NewParser(testSchema)

	entries, err := p.Parse("#p mystery=(alpha,beta=2)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []Parameter{{Name: "alpha", Value: ""}, {Name: "beta", Value: "2"}}
	if diff := cmp.Diff(want, entries[0].Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
	if !entries[0].Unrecognized {
		t.Error("expected the unknown keyword to be flagged Unrecognized")
	}
}

func TestParseMarker(t *testing.T) {
	p := NewParser(testSchema)

	if _, err := p.Parse("  #P opt"); err != nil {
		t.Errorf("marker should match case-insensitively with leading space: %v", err)
	}
	for _, line := range []string{"", "opt freq", "#popt", "# p opt"} {
		if _, err := p.Parse(line); err == nil {
			t.Errorf("Parse(%q) succeeded, want marker error", line)
		}
	}
}

func TestParseErrors(t *testing.T) {
	p := NewParser(testSchema)

	cases := []struct {
		name string
		line string
		pos  int
	}{
		{"unbalanced open", "#p td=(nstates=50", 6},
		{"unbalanced close", "#p opt)", 6},
		{"empty value", "#p guess=", 8},
		{"empty keyword", "#p =read", 3},
		{"positional overflow", "#p td=(1,2,3)", 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Parse(tc.line)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tc.line)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("want *ParseError, got %T: %v", err, err)
			}
			if pe.Position != tc.pos {
				t.Errorf("Position = %d, want %d (%v)", pe.Position, tc.pos, err)
			}
		})
	}
}

func TestParseNilSchema(t *testing.T) {
	p := NewParser(nil)

	entries, err := p.Parse("#p scrf=(smd,solvent=water)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []Parameter{{Name: "smd", Value: ""}, {Name: "solvent", Value: "water"}}
	if diff := cmp.Diff(want, entries[0].Params); diff != "" {
		t.Errorf("params mismatch (-want +got):\n%s", diff)
	}
}
