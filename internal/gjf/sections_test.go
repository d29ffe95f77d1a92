package gjf

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gjfed/internal/directive"
)

const multiSection = `%chk=job.chk
#p opt freq b3lyp

title line

0 1
C 0.0 0.0 0.0

--Link1--
%chk=job.chk
#p td=(nstates=50,root=1) b3lyp nosymm

excited states

0 1
C 0.0 0.0 0.0
`

func TestSplit(t *testing.T) {
	sections, err := Split(strings.NewReader(multiSection))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}

	if sections[0].ID() != "" || sections[1].ID() != "Link1" {
		t.Errorf("section ids = %q, %q; want \"\", Link1", sections[0].ID(), sections[1].ID())
	}
	if got := sections[0].Route(); got != "#p opt freq b3lyp" {
		t.Errorf("section 0 route = %q", got)
	}
	if got := sections[1].Route(); got != "#p td=(nstates=50,root=1) b3lyp nosymm" {
		t.Errorf("section 1 route = %q", got)
	}
}

func TestSplitNoMarker(t *testing.T) {
	sections, err := Split(strings.NewReader("#p sp hf\n\ntitle\n\n0 1\nH 0 0 0\n"))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(sections))
	}
	if !sections[0].HasRoute() {
		t.Error("route line not found")
	}
}

func TestSplitLeadingMarker(t *testing.T) {
	sections, err := Split(strings.NewReader("--Link1--\n#p sp hf\n"))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(sections) != 1 {
		t.Fatalf("a file opening with a marker has no leading section, got %d", len(sections))
	}
	if sections[0].Link != 1 || sections[0].Index != 0 {
		t.Errorf("section = %+v", sections[0])
	}
}

func TestSplitNoRoute(t *testing.T) {
	sections, err := Split(strings.NewReader("just a comment\nno route here\n"))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if sections[0].HasRoute() {
		t.Error("HasRoute = true for a section without a keyword line")
	}
	if sections[0].Route() != "" {
		t.Errorf("Route = %q, want empty", sections[0].Route())
	}
}

func TestJoinRoundTrip(t *testing.T) {
	sections, err := Split(strings.NewReader(multiSection))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if got := Join(sections); got != multiSection {
		t.Errorf("Join did not reproduce the input:\n%s", cmp.Diff(multiSection, got))
	}
}

func TestWithRoute(t *testing.T) {
	sections, err := Split(strings.NewReader(multiSection))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	edited := sections[0].WithRoute("#p sp hf")
	if edited.Route() != "#p sp hf" {
		t.Errorf("edited route = %q", edited.Route())
	}
	if sections[0].Route() != "#p opt freq b3lyp" {
		t.Error("WithRoute mutated the original section")
	}
	// Only the route line changed.
	if len(edited.Lines) != len(sections[0].Lines) {
		t.Errorf("line count changed: %d != %d", len(edited.Lines), len(sections[0].Lines))
	}
}

func TestSectionParse(t *testing.T) {
	sections, err := Split(strings.NewReader(multiSection))
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	set, err := sections[1].Parse(directive.NewParser(nil))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if set.Section != "Link1" {
		t.Errorf("set section = %q, want Link1", set.Section)
	}
	if diff := cmp.Diff([]string{"td", "b3lyp", "nosymm"}, set.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}
