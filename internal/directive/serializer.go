package directive

import "strings"

// Serializer renders a DirectiveSet back into a route line. Rendering is the
// left inverse of parsing: parsing the rendered line yields structurally
// equal entries, though the literal text is canonicalized (single spaces,
// parameters in schema-declared order).
type Serializer struct {
	schema Schema
}

// NewSerializer creates a serializer backed by the given schema. A nil
// schema renders parameters in insertion order.
func NewSerializer(schema Schema) *Serializer {
	return &Serializer{schema: schema}
}

// Render produces the canonical route line for a set: the marker, then each
// entry in set order, joined by single spaces.
func (s *Serializer) Render(set *DirectiveSet) string {
	parts := make([]string, 0, len(set.Entries)+1)
	parts = append(parts, Marker)
	for _, e := range set.Entries {
		parts = append(parts, s.renderEntry(e))
	}
	return strings.Join(parts, " ")
}

// renderEntry renders one keyword: bare, name=value for a lone "value"
// parameter, or name=(p1=v1,...) otherwise.
func (s *Serializer) renderEntry(e KeywordEntry) string {
	if len(e.Params) == 0 {
		return e.Name
	}
	params := s.orderParams(e)
	if len(params) == 1 && strings.EqualFold(params[0].Name, "value") && params[0].Value != "" {
		return e.Name + "=" + params[0].Value
	}
	items := make([]string, len(params))
	for i, p := range params {
		if p.Value == "" {
			items[i] = p.Name // bare flag, e.g. smd
		} else {
			items[i] = p.Name + "=" + p.Value
		}
	}
	return e.Name + "=(" + strings.Join(items, ",") + ")"
}

// orderParams sorts an entry's parameters into schema declaration order;
// parameters the schema does not declare follow in insertion order. Supplied
// order never leaks into output, so rendering is reproducible.
func (s *Serializer) orderParams(e KeywordEntry) []Parameter {
	if s.schema == nil {
		return e.Params
	}
	declared, known := s.schema.ParameterNames(e.Name)
	if !known || len(declared) == 0 {
		return e.Params
	}
	out := make([]Parameter, 0, len(e.Params))
	used := make(map[string]bool, len(e.Params))
	for _, d := range declared {
		for _, p := range e.Params {
			if strings.EqualFold(p.Name, d) {
				out = append(out, p)
				used[strings.ToLower(p.Name)] = true
				break
			}
		}
	}
	for _, p := range e.Params {
		if !used[strings.ToLower(p.Name)] {
			out = append(out, p)
		}
	}
	return out
}
