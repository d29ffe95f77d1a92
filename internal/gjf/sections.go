// Package gjf splits a Gaussian input file into its calculation sections and
// splices edited route lines back in. It knows two conventions and nothing
// else: --LinkN-- marker lines delimit sections, and the first line starting
// with the route marker inside a section is that section's keyword line.
// Geometry, charge/multiplicity and comment content pass through untouched.
package gjf

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gjfed/internal/directive"
)

var (
	linkPattern  = regexp.MustCompile(`^--Link(\d+)--$`)
	routePattern = regexp.MustCompile(`^#p\s`)
)

// Section is one calculation block of a .gjf file: the leading block, or a
// block introduced by a --LinkN-- marker.
type Section struct {
	Index     int      // zero-based position in the file
	Link      int      // N from --LinkN--; 0 for the leading section
	StartLine int      // zero-based line number of the section's first line
	Lines     []string // section content, without the marker line, no trailing newlines
	RouteLine int      // index into Lines of the keyword line, -1 if none
}

// ID names the section the way the editor presents it: "" (default) for the
// leading block, "LinkN" otherwise.
func (s *Section) ID() string {
	if s.Link == 0 {
		return ""
	}
	return fmt.Sprintf("Link%d", s.Link)
}

// HasRoute reports whether the section contains a keyword line.
func (s *Section) HasRoute() bool {
	return s.RouteLine >= 0
}

// Route returns the raw keyword line, or "" when the section has none.
func (s *Section) Route() string {
	if !s.HasRoute() {
		return ""
	}
	return s.Lines[s.RouteLine]
}

// Parse extracts the section's DirectiveSet through the given parser.
func (s *Section) Parse(p *directive.Parser) (*directive.DirectiveSet, error) {
	if !s.HasRoute() {
		return nil, fmt.Errorf("section %d has no route line", s.Index)
	}
	entries, err := p.Parse(strings.TrimSpace(s.Route()))
	if err != nil {
		return nil, fmt.Errorf("section %d: %w", s.Index, err)
	}
	return directive.NewSet(s.ID(), entries), nil
}

// WithRoute returns a copy of the section with the keyword line replaced.
// Every other line is carried over byte for byte.
func (s *Section) WithRoute(line string) Section {
	out := *s
	out.Lines = append([]string(nil), s.Lines...)
	if s.HasRoute() {
		out.Lines[s.RouteLine] = line
	}
	return out
}

// Split reads a .gjf body into sections. A file without any --LinkN-- marker
// is one section; content before the first marker is the leading section.
func Split(r io.Reader) ([]Section, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	sections := []Section{{Index: 0, RouteLine: -1}}
	lineNo := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if m := linkPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			link := 0
			fmt.Sscanf(m[1], "%d", &link)
			sections = append(sections, Section{
				Index:     len(sections),
				Link:      link,
				StartLine: lineNo + 1,
				RouteLine: -1,
			})
			lineNo++
			continue
		}
		cur := &sections[len(sections)-1]
		if cur.RouteLine < 0 && routePattern.MatchString(strings.TrimSpace(line)) {
			cur.RouteLine = len(cur.Lines)
		}
		cur.Lines = append(cur.Lines, line)
		lineNo++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	// A file that opens with a marker has no leading section.
	if len(sections) > 1 && len(sections[0].Lines) == 0 {
		sections = sections[1:]
		for i := range sections {
			sections[i].Index = i
		}
	}
	return sections, nil
}

// Join reassembles the file body from sections, reinserting the marker line
// before every Link section. The output ends with a newline.
func Join(sections []Section) string {
	var sb strings.Builder
	for _, s := range sections {
		if s.Link > 0 {
			fmt.Fprintf(&sb, "--Link%d--\n", s.Link)
		}
		for _, line := range s.Lines {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
