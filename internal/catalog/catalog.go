// Package catalog holds the static registry of known Gaussian route keywords,
// their categories and parameter schemas, and the compatibility rules that
// constrain which keywords may appear together on one route line.
//
// A Catalog is loaded once at startup and is immutable afterwards, so it can
// be shared freely between editing sessions. Validation behavior is therefore
// a pure function of (directive set, catalog).
package catalog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParameterDef describes one named parameter of a keyword: its position in
// the schema fixes both positional-token assignment during parsing and the
// canonical rendering order during serialization.
type ParameterDef struct {
	Name    string   `yaml:"name"`
	Default string   `yaml:"default,omitempty"`
	Options []string `yaml:"options,omitempty"` // allowed values; empty means free-form
}

// KeywordDefinition is one catalog entry. The Name is the identity key
// (case-insensitive); the casing from the catalog source is preserved for
// display.
type KeywordDefinition struct {
	Name        string         `yaml:"name"`
	Category    string         `yaml:"-"` // category id, filled during load
	Description string         `yaml:"description"`
	Parameters  []ParameterDef `yaml:"parameters,omitempty"`
}

// ParameterNames returns the declared parameter names in schema order.
func (d *KeywordDefinition) ParameterNames() []string {
	names := make([]string, len(d.Parameters))
	for i, p := range d.Parameters {
		names[i] = p.Name
	}
	return names
}

// Parameter returns the definition of a named parameter, case-insensitively.
func (d *KeywordDefinition) Parameter(name string) (ParameterDef, bool) {
	for _, p := range d.Parameters {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return ParameterDef{}, false
}

// Category groups keywords for menu navigation and for category-scoped rules.
type Category struct {
	ID       string
	Display  string
	Keywords []string // display-cased keyword names, catalog order
}

// LoadError reports a structurally invalid catalog source. It is fatal at
// startup: the engine cannot run without a valid catalog.
type LoadError struct {
	Reason string
}

func (e *LoadError) Error() string {
	return "catalog: " + e.Reason
}

func loadErrorf(format string, args ...interface{}) error {
	return &LoadError{Reason: fmt.Sprintf(format, args...)}
}

// Catalog is the immutable keyword registry.
type Catalog struct {
	defs       map[string]*KeywordDefinition // lower(name) -> def
	order      []string                      // lower names, catalog order
	categories map[string]*Category          // lower(id) -> category
	catOrder   []string
	rules      []Rule
}

// yamlCatalog is the on-disk shape.
type yamlCatalog struct {
	Categories []struct {
		ID       string              `yaml:"id"`
		Name     string              `yaml:"name"`
		Keywords []KeywordDefinition `yaml:"keywords"`
	} `yaml:"categories"`
	Rules []yamlRule `yaml:"rules"`
}

// Load reads a catalog from YAML. Structural problems (missing names,
// duplicate keywords, rules referencing unknown keywords or categories)
// produce a *LoadError.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, loadErrorf("read source: %v", err)
	}
	var src yamlCatalog
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, loadErrorf("decode source: %v", err)
	}
	if len(src.Categories) == 0 {
		return nil, loadErrorf("source declares no categories")
	}

	c := &Catalog{
		defs:       make(map[string]*KeywordDefinition),
		categories: make(map[string]*Category),
	}
	for _, yc := range src.Categories {
		if yc.ID == "" {
			return nil, loadErrorf("category with empty id")
		}
		catKey := strings.ToLower(yc.ID)
		if _, dup := c.categories[catKey]; dup {
			return nil, loadErrorf("duplicate category %q", yc.ID)
		}
		display := yc.Name
		if display == "" {
			display = yc.ID
		}
		cat := &Category{ID: yc.ID, Display: display}
		c.categories[catKey] = cat
		c.catOrder = append(c.catOrder, catKey)

		for i := range yc.Keywords {
			def := yc.Keywords[i]
			if def.Name == "" {
				return nil, loadErrorf("category %q: keyword with empty name", yc.ID)
			}
			key := strings.ToLower(def.Name)
			if _, dup := c.defs[key]; dup {
				return nil, loadErrorf("duplicate keyword %q", def.Name)
			}
			seen := make(map[string]bool, len(def.Parameters))
			for _, p := range def.Parameters {
				if p.Name == "" {
					return nil, loadErrorf("keyword %q: parameter with empty name", def.Name)
				}
				pk := strings.ToLower(p.Name)
				if seen[pk] {
					return nil, loadErrorf("keyword %q: duplicate parameter %q", def.Name, p.Name)
				}
				seen[pk] = true
			}
			def.Category = yc.ID
			c.defs[key] = &def
			c.order = append(c.order, key)
			cat.Keywords = append(cat.Keywords, def.Name)
		}
	}

	for i, yr := range src.Rules {
		rule, err := yr.toRule()
		if err != nil {
			return nil, loadErrorf("rule %d: %v", i, err)
		}
		for _, term := range rule.terms() {
			if !c.resolvable(term) {
				return nil, loadErrorf("rule %d references unknown keyword or category %q", i, term)
			}
		}
		c.rules = append(c.rules, rule)
	}
	return c, nil
}

// New assembles a catalog directly from definitions and rules, without the
// structural checks Load performs. It exists for callers that build catalogs
// programmatically (tests, mostly); Load remains the checked path, and a rule
// referencing something unresolvable will surface from the validator instead.
func New(categories []Category, defs []KeywordDefinition, rules []Rule) *Catalog {
	c := &Catalog{
		defs:       make(map[string]*KeywordDefinition),
		categories: make(map[string]*Category),
		rules:      rules,
	}
	for i := range categories {
		cat := categories[i]
		key := strings.ToLower(cat.ID)
		c.categories[key] = &cat
		c.catOrder = append(c.catOrder, key)
	}
	for i := range defs {
		def := defs[i]
		key := strings.ToLower(def.Name)
		c.defs[key] = &def
		c.order = append(c.order, key)
		if cat, ok := c.categories[strings.ToLower(def.Category)]; ok {
			cat.Keywords = append(cat.Keywords, def.Name)
		}
	}
	return c
}

// LoadFile loads a catalog from a path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, loadErrorf("open %s: %v", path, err)
	}
	defer f.Close()
	return Load(f)
}

// resolvable reports whether a rule term names a known keyword or category.
func (c *Catalog) resolvable(term string) bool {
	key := strings.ToLower(term)
	if _, ok := c.defs[key]; ok {
		return true
	}
	_, ok := c.categories[key]
	return ok
}

// Lookup finds a keyword definition by name, case-insensitively.
func (c *Catalog) Lookup(name string) (*KeywordDefinition, bool) {
	def, ok := c.defs[strings.ToLower(name)]
	return def, ok
}

// Keywords returns all definitions in catalog order.
func (c *Catalog) Keywords() []*KeywordDefinition {
	out := make([]*KeywordDefinition, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.defs[key])
	}
	return out
}

// Categories returns all categories in catalog order.
func (c *Catalog) Categories() []*Category {
	out := make([]*Category, 0, len(c.catOrder))
	for _, key := range c.catOrder {
		out = append(out, c.categories[key])
	}
	return out
}

// Category finds a category by id, case-insensitively.
func (c *Catalog) Category(id string) (*Category, bool) {
	cat, ok := c.categories[strings.ToLower(id)]
	return cat, ok
}

// HasCategory reports whether the id names a known category.
func (c *Catalog) HasCategory(id string) bool {
	_, ok := c.categories[strings.ToLower(id)]
	return ok
}

// Rules returns every rule in source order.
func (c *Catalog) Rules() []Rule {
	return c.rules
}

// RulesFor returns the rules in scope for a keyword: rules naming the keyword
// directly come before rules matching only through its category, so
// validation messages tie-break deterministically.
func (c *Catalog) RulesFor(name string) []Rule {
	key := strings.ToLower(name)
	def := c.defs[key]

	var direct, byCategory []Rule
	for _, rule := range c.rules {
		switch {
		case rule.namesDirectly(key):
			direct = append(direct, rule)
		case def != nil && rule.namesCategory(def.Category):
			byCategory = append(byCategory, rule)
		}
	}
	return append(direct, byCategory...)
}

// ParameterNames returns the declared parameter names for a keyword in
// schema order, and whether the keyword is known at all. This satisfies the
// directive parser's schema interface.
func (c *Catalog) ParameterNames(keyword string) ([]string, bool) {
	def, ok := c.defs[strings.ToLower(keyword)]
	if !ok {
		return nil, false
	}
	return def.ParameterNames(), true
}

// Search returns definitions whose name or description contains the query,
// case-insensitively, optionally restricted to one category.
func (c *Catalog) Search(query, categoryID string) []*KeywordDefinition {
	q := strings.ToLower(query)
	var out []*KeywordDefinition
	for _, key := range c.order {
		def := c.defs[key]
		if categoryID != "" && !strings.EqualFold(def.Category, categoryID) {
			continue
		}
		if strings.Contains(strings.ToLower(def.Name), q) ||
			strings.Contains(strings.ToLower(def.Description), q) {
			out = append(out, def)
		}
	}
	return out
}
