// Package directive models one Gaussian route line as structured data: an
// ordered set of keyword entries with their parameters, plus the parser that
// extracts them from text and the serializer that renders them back.
//
// Parsing is permissive about catalog coverage: a keyword the catalog does
// not know is retained and flagged Unrecognized rather than rejected, so a
// file stays editable even when the catalog is incomplete. Catalog policy is
// enforced later, by validation, never here.
package directive

import "strings"

// Parameter is one name/value pair inside a keyword's parameter group.
// Values are raw strings; numeric or enumerated interpretation is the
// validator's concern. A Parameter with an empty Value is a bare flag
// (e.g. smd in scrf=(smd,solvent=water) when scrf is not in the catalog).
type Parameter struct {
	Name  string
	Value string
}

// KeywordEntry is one keyword as it appears on a route line. A compound
// method/basis token such as b3lyp/6-311g(d,p) is a single entry whose Name
// is the full compound string; it is never decomposed.
type KeywordEntry struct {
	Name         string
	Params       []Parameter
	Unrecognized bool // true when the catalog did not know the name at parse time
}

// Param returns the value of a named parameter, case-insensitively.
func (e *KeywordEntry) Param(name string) (string, bool) {
	for _, p := range e.Params {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}

// SetParam replaces the named parameter's value, appending it if absent.
func (e *KeywordEntry) SetParam(name, value string) {
	for i, p := range e.Params {
		if strings.EqualFold(p.Name, name) {
			e.Params[i].Value = value
			return
		}
	}
	e.Params = append(e.Params, Parameter{Name: name, Value: value})
}

// clone deep-copies the entry.
func (e KeywordEntry) clone() KeywordEntry {
	out := e
	out.Params = append([]Parameter(nil), e.Params...)
	return out
}

// MethodPart returns the method half of a compound method/basis name, or the
// name itself when it is not compound. Used by rule matching so that a
// compound token still counts as its method for requires-rules.
func (e *KeywordEntry) MethodPart() string {
	if i := strings.IndexByte(e.Name, '/'); i > 0 {
		return e.Name[:i]
	}
	return e.Name
}

// DirectiveSet is the ordered keyword sequence of one file section. Keyword
// names are unique within a set, case-insensitively. All mutating operations
// return a fresh snapshot; an existing set is never modified in place, so a
// failure mid-edit cannot corrupt session state.
type DirectiveSet struct {
	Section string // "" for the default section, "Link1", "Link2", ...
	Entries []KeywordEntry
}

// NewSet builds a set from parsed entries. A later entry with a name already
// present replaces the earlier one in place, preserving its position.
func NewSet(section string, entries []KeywordEntry) *DirectiveSet {
	s := &DirectiveSet{Section: section}
	for _, e := range entries {
		s.add(e)
	}
	return s
}

// Clone deep-copies the set.
func (s *DirectiveSet) Clone() *DirectiveSet {
	out := &DirectiveSet{Section: s.Section, Entries: make([]KeywordEntry, len(s.Entries))}
	for i, e := range s.Entries {
		out.Entries[i] = e.clone()
	}
	return out
}

// Lookup finds an entry by name, case-insensitively.
func (s *DirectiveSet) Lookup(name string) (KeywordEntry, bool) {
	for _, e := range s.Entries {
		if strings.EqualFold(e.Name, name) {
			return e.clone(), true
		}
	}
	return KeywordEntry{}, false
}

// Contains reports whether a keyword is present, case-insensitively.
func (s *DirectiveSet) Contains(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Names returns the entry names in set order.
func (s *DirectiveSet) Names() []string {
	names := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		names[i] = e.Name
	}
	return names
}

// Add returns a snapshot with the entry added. If a keyword of the same name
// is already present the new entry replaces it at its existing position; a
// set never holds two entries with one name.
func (s *DirectiveSet) Add(e KeywordEntry) *DirectiveSet {
	out := s.Clone()
	out.add(e)
	return out
}

func (s *DirectiveSet) add(e KeywordEntry) {
	for i, cur := range s.Entries {
		if strings.EqualFold(cur.Name, e.Name) {
			s.Entries[i] = e.clone()
			return
		}
	}
	s.Entries = append(s.Entries, e.clone())
}

// Remove returns a snapshot without the named keyword. Removing a keyword
// that is not present is a no-op.
func (s *DirectiveSet) Remove(name string) *DirectiveSet {
	out := &DirectiveSet{Section: s.Section}
	for _, e := range s.Entries {
		if strings.EqualFold(e.Name, name) {
			continue
		}
		out.Entries = append(out.Entries, e.clone())
	}
	return out
}

// SetParameter returns a snapshot with one parameter of one keyword changed.
// The second return is false when the keyword is not in the set.
func (s *DirectiveSet) SetParameter(keyword, param, value string) (*DirectiveSet, bool) {
	out := s.Clone()
	for i := range out.Entries {
		if strings.EqualFold(out.Entries[i].Name, keyword) {
			out.Entries[i].SetParam(param, value)
			return out, true
		}
	}
	return out, false
}
