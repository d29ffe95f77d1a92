package directive

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRenderCanonical(t *testing.T) {
	p := NewParser(testSchema)
	s := NewSerializer(testSchema)

	entries, err := p.Parse("#p opt   freq  td=(root=1,nstates=50)")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	set := NewSet("", entries)

	got := s.Render(set)
	want := "#p opt freq td=(nstates=50,root=1)"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	p := NewParser(testSchema)
	s := NewSerializer(testSchema)

	lines := []string{
		"#p opt freq b3lyp/6-311g(d,p) td=(nstates=50,root=1) scrf=(smd,solvent=water)",
		"#p sp mystery=(alpha,beta=2)",
		"#p guess=read",
	}
	for _, line := range lines {
		entries, err := p.Parse(line)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", line, err)
		}
		rendered := s.Render(NewSet("", entries))
		again, err := p.Parse(rendered)
		if err != nil {
			t.Fatalf("reparse of %q failed: %v", rendered, err)
		}
		if diff := cmp.Diff(entries, again); diff != "" {
			t.Errorf("round trip of %q not stable (-first +second):\n%s", line, diff)
		}
		// Canonical text is a fixed point.
		if second := s.Render(NewSet("", again)); second != rendered {
			t.Errorf("second render %q != first %q", second, rendered)
		}
	}
}

func TestRenderSimpleValueForm(t *testing.T) {
	s := NewSerializer(testSchema)

	set := NewSet("", []KeywordEntry{
		{Name: "guess", Params: []Parameter{{Name: "value", Value: "read"}}},
	})
	if got := s.Render(set); got != "#p guess=read" {
		t.Errorf("Render = %q, want %q", got, "#p guess=read")
	}
}

func TestRenderBareFlagInsideGroup(t *testing.T) {
	s := NewSerializer(testSchema)

	set := NewSet("", []KeywordEntry{
		{Name: "mystery", Params: []Parameter{{Name: "alpha", Value: ""}, {Name: "beta", Value: "2"}}},
	})
	if got := s.Render(set); got != "#p mystery=(alpha,beta=2)" {
		t.Errorf("Render = %q, want %q", got, "#p mystery=(alpha,beta=2)")
	}
}

func TestRenderSchemaOrdersParams(t *testing.T) {
	s := NewSerializer(testSchema)

	set := NewSet("", []KeywordEntry{
		{Name: "scrf", Params: []Parameter{
			{Name: "extra", Value: "1"},
			{Name: "solvent", Value: "dmso"},
			{Name: "model", Value: "pcm"},
		}},
	})
	want := "#p scrf=(model=pcm,solvent=dmso,extra=1)"
	if got := s.Render(set); got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRenderEmptySet(t *testing.T) {
	s := NewSerializer(nil)
	if got := s.Render(NewSet("", nil)); got != "#p" {
		t.Errorf("Render of empty set = %q, want %q", got, "#p")
	}
}
