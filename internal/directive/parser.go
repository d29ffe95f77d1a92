package directive

import (
	"fmt"
	"strings"
)

// Marker is the token that opens every route line.
const Marker = "#p"

// ParseError reports malformed route syntax. Position is the zero-based
// column in the original line. Parse errors are always recoverable: the
// caller surfaces them for correction, the process never dies over one.
type ParseError struct {
	Position int
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("column %d: %s", e.Position, e.Reason)
}

func parseErrorf(pos int, format string, args ...interface{}) error {
	return &ParseError{Position: pos, Reason: fmt.Sprintf(format, args...)}
}

// Schema supplies the declared parameter names of a keyword, in declaration
// order, for positional-token assignment. The second return reports whether
// the keyword is known at all. *catalog.Catalog satisfies this.
type Schema interface {
	ParameterNames(keyword string) ([]string, bool)
}

// Parser turns a raw route line into keyword entries. A nil schema is valid:
// every keyword then parses as unrecognized and bare parameter tokens keep
// their literal names.
type Parser struct {
	schema Schema
}

// NewParser creates a parser backed by the given schema.
func NewParser(schema Schema) *Parser {
	return &Parser{schema: schema}
}

// token is one whitespace-delimited unit of the route line, with parenthesis
// groups kept intact.
type token struct {
	text string
	pos  int
}

// Parse extracts the ordered keyword entries from a route line. The line
// must start with the route marker. Parsing consults the schema only to
// assign positional parameters; it performs no validation.
func (p *Parser) Parse(line string) ([]KeywordEntry, error) {
	rest, offset, err := stripMarker(line)
	if err != nil {
		return nil, err
	}
	tokens, err := tokenize(rest, offset)
	if err != nil {
		return nil, err
	}
	entries := make([]KeywordEntry, 0, len(tokens))
	for _, tok := range tokens {
		entry, err := p.parseToken(tok)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// stripMarker removes the leading route marker and returns the remainder
// plus its offset into the original line.
func stripMarker(line string) (string, int, error) {
	trimmed := strings.TrimLeft(line, " \t")
	lead := len(line) - len(trimmed)
	if !strings.HasPrefix(strings.ToLower(trimmed), Marker) {
		return "", 0, parseErrorf(lead, "route line must start with %q", Marker)
	}
	rest := trimmed[len(Marker):]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", 0, parseErrorf(lead, "route line must start with %q", Marker)
	}
	return rest, lead + len(Marker), nil
}

// tokenize splits on whitespace while keeping parenthesis groups together,
// so td=(nstates=50,root=1) stays one token. Unbalanced parentheses are a
// ParseError at the offending column.
func tokenize(s string, offset int) ([]token, error) {
	var tokens []token
	depth := 0
	var openStack []int
	start := -1

	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, token{text: s[start:end], pos: offset + start})
			start = -1
		}
	}
	for i, r := range s {
		switch r {
		case '(':
			depth++
			openStack = append(openStack, offset+i)
			if start < 0 {
				start = i
			}
		case ')':
			depth--
			if depth < 0 {
				return nil, parseErrorf(offset+i, "unbalanced closing parenthesis")
			}
			openStack = openStack[:len(openStack)-1]
			if start < 0 {
				start = i
			}
		case ' ', '\t':
			if depth == 0 {
				flush(i)
			} else if start < 0 {
				start = i
			}
		default:
			if start < 0 {
				start = i
			}
		}
	}
	if depth > 0 {
		return nil, parseErrorf(openStack[0], "unbalanced opening parenthesis")
	}
	flush(len(s))
	return tokens, nil
}

// parseToken handles one route token: a bare keyword, keyword=value, or
// keyword=(...). A compound method/basis token has no top-level '=' and so
// falls through as a bare keyword with its full compound name.
func (p *Parser) parseToken(tok token) (KeywordEntry, error) {
	eq := indexTopLevel(tok.text, '=')
	if eq < 0 {
		return p.newEntry(tok.text, nil), nil
	}
	name := tok.text[:eq]
	if name == "" {
		return KeywordEntry{}, parseErrorf(tok.pos, "empty keyword before '='")
	}
	value := tok.text[eq+1:]
	if value == "" {
		return KeywordEntry{}, parseErrorf(tok.pos+eq, "keyword %q has '=' with no value", name)
	}
	if value[0] == '(' && value[len(value)-1] == ')' {
		params, err := p.parseGroup(name, value[1:len(value)-1], tok.pos+eq+2)
		if err != nil {
			return KeywordEntry{}, err
		}
		return p.newEntry(name, params), nil
	}
	// Simple keyword=value form: a single parameter named "value".
	return p.newEntry(name, []Parameter{{Name: "value", Value: value}}), nil
}

// parseGroup parses the comma-separated body of a parameter group. Named
// items bind directly; bare items are positional and consume the schema's
// declared parameter names in declaration order, skipping names already
// bound. For a keyword the schema does not know, bare items keep their
// literal text as flag parameters.
func (p *Parser) parseGroup(keyword, body string, offset int) ([]Parameter, error) {
	items, positions := splitTopLevel(body, offset)

	// First pass: which declared names are taken by explicit bindings.
	named := make(map[string]bool)
	for i, item := range items {
		if item == "" {
			return nil, parseErrorf(positions[i], "empty parameter in group for %q", keyword)
		}
		if eq := indexTopLevel(item, '='); eq >= 0 {
			key := item[:eq]
			if key == "" {
				return nil, parseErrorf(positions[i], "empty parameter name in group for %q", keyword)
			}
			named[strings.ToLower(key)] = true
		}
	}

	declared, known := p.declaredNames(keyword)
	var free []string
	if known {
		for _, d := range declared {
			if !named[strings.ToLower(d)] {
				free = append(free, d)
			}
		}
	}

	// Second pass: build the parameter list in appearance order.
	params := make([]Parameter, 0, len(items))
	next := 0
	for i, item := range items {
		eq := indexTopLevel(item, '=')
		if eq >= 0 {
			params = append(params, Parameter{Name: item[:eq], Value: item[eq+1:]})
			continue
		}
		if !known {
			params = append(params, Parameter{Name: item, Value: ""})
			continue
		}
		if next >= len(free) {
			return nil, parseErrorf(positions[i],
				"keyword %q: positional parameter %q exceeds the %d declared parameters", keyword, item, len(declared))
		}
		params = append(params, Parameter{Name: free[next], Value: item})
		next++
	}
	return params, nil
}

func (p *Parser) declaredNames(keyword string) ([]string, bool) {
	if p.schema == nil {
		return nil, false
	}
	return p.schema.ParameterNames(keyword)
}

func (p *Parser) newEntry(name string, params []Parameter) KeywordEntry {
	_, known := p.declaredNames(name)
	return KeywordEntry{Name: name, Params: params, Unrecognized: !known}
}

// indexTopLevel finds the first occurrence of c outside any parentheses.
func indexTopLevel(s string, c byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case c:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits on commas outside parentheses, returning the pieces
// and the column of each piece's first character.
func splitTopLevel(s string, offset int) ([]string, []int) {
	var parts []string
	var positions []int
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				positions = append(positions, offset+start)
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	positions = append(positions, offset+start)
	return parts, positions
}
