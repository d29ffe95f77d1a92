package catalog

import (
	"fmt"
	"strings"
)

// RuleKind discriminates the three constraint forms a catalog may express.
type RuleKind int

const (
	// MutuallyExclusive: the two terms must not co-occur on one route line.
	MutuallyExclusive RuleKind = iota
	// Requires: the subject may appear only if at least one keyword from the
	// disjunction is also present.
	Requires
	// Recommends: advisory only; absence of the companion is reported but
	// never invalidates the set.
	Recommends
)

func (k RuleKind) String() string {
	switch k {
	case MutuallyExclusive:
		return "mutually_exclusive"
	case Requires:
		return "requires"
	case Recommends:
		return "recommends"
	default:
		return fmt.Sprintf("RuleKind(%d)", int(k))
	}
}

// Rule is one compatibility constraint. Terms are keyword names or category
// ids; a category term applies to every keyword in that category.
//
// For MutuallyExclusive, Subject and Objects[0] are the two sides.
// For Requires, Objects is the disjunction: one match satisfies the rule.
// For Recommends, Objects[0] is the recommended companion.
type Rule struct {
	Kind    RuleKind
	Subject string
	Objects []string
}

// terms returns every keyword/category reference the rule makes.
func (r Rule) terms() []string {
	return append([]string{r.Subject}, r.Objects...)
}

// namesDirectly reports whether any term equals the (lowercased) keyword name.
func (r Rule) namesDirectly(lowerName string) bool {
	for _, t := range r.terms() {
		if strings.ToLower(t) == lowerName {
			return true
		}
	}
	return false
}

// namesCategory reports whether any term equals the category id.
func (r Rule) namesCategory(categoryID string) bool {
	for _, t := range r.terms() {
		if strings.EqualFold(t, categoryID) {
			return true
		}
	}
	return false
}

// String renders the rule the way it is written in validation messages.
func (r Rule) String() string {
	switch r.Kind {
	case MutuallyExclusive:
		return fmt.Sprintf("mutually_exclusive(%s, %s)", r.Subject, strings.Join(r.Objects, ", "))
	case Requires:
		return fmt.Sprintf("requires(%s, {%s})", r.Subject, strings.Join(r.Objects, " | "))
	case Recommends:
		return fmt.Sprintf("recommends(%s, %s)", r.Subject, strings.Join(r.Objects, ", "))
	}
	return "unknown rule"
}

// yamlRule is the on-disk rule shape. Exactly one of the three kind blocks
// must be present.
type yamlRule struct {
	Exclusive []string `yaml:"mutually_exclusive,omitempty"`
	Requires  *struct {
		Keyword string   `yaml:"keyword"`
		AnyOf   []string `yaml:"any_of"`
	} `yaml:"requires,omitempty"`
	Recommends *struct {
		Keyword string `yaml:"keyword"`
		With    string `yaml:"with"`
	} `yaml:"recommends,omitempty"`
}

func (y yamlRule) toRule() (Rule, error) {
	declared := 0
	if len(y.Exclusive) > 0 {
		declared++
	}
	if y.Requires != nil {
		declared++
	}
	if y.Recommends != nil {
		declared++
	}
	if declared != 1 {
		return Rule{}, fmt.Errorf("expected exactly one of mutually_exclusive, requires, recommends")
	}

	switch {
	case len(y.Exclusive) > 0:
		if len(y.Exclusive) != 2 {
			return Rule{}, fmt.Errorf("mutually_exclusive takes exactly two terms, got %d", len(y.Exclusive))
		}
		return Rule{Kind: MutuallyExclusive, Subject: y.Exclusive[0], Objects: y.Exclusive[1:]}, nil
	case y.Requires != nil:
		if y.Requires.Keyword == "" || len(y.Requires.AnyOf) == 0 {
			return Rule{}, fmt.Errorf("requires needs a keyword and a non-empty any_of")
		}
		return Rule{Kind: Requires, Subject: y.Requires.Keyword, Objects: y.Requires.AnyOf}, nil
	default:
		if y.Recommends.Keyword == "" || y.Recommends.With == "" {
			return Rule{}, fmt.Errorf("recommends needs a keyword and a companion")
		}
		return Rule{Kind: Recommends, Subject: y.Recommends.Keyword, Objects: []string{y.Recommends.With}}, nil
	}
}
