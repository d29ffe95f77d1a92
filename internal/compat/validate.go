// Package compat evaluates a directive set against the catalog's
// compatibility rules. Invalid content is never an error here: hard
// violations and advisories come back as data in a Result, and the
// interactive layer decides whether to warn, block or fix. The only error
// Validate can return is a catalog/set mismatch, which is a programming
// defect, not a user mistake.
package compat

import (
	"fmt"
	"sort"
	"strings"

	"gjfed/internal/catalog"
	"gjfed/internal/directive"
)

// Violation is one hard rule failure: the rule, the offending keywords (set
// order is irrelevant; pairs are unordered) and, for requires-rules, the
// unsatisfied disjunction.
type Violation struct {
	Rule     catalog.Rule
	Keywords []string
	Missing  []string
	Message  string
}

// Advisory is an unsatisfied recommends-rule. Advisories never invalidate a
// set.
type Advisory struct {
	Keyword     string
	Recommended string
	Message     string
}

// Result is the outcome of one validation pass. It is purely derived data:
// validating never mutates the set, and validating the same set twice (or in
// any entry order) yields an equal Result.
type Result struct {
	Violations []Violation
	Advisories []Advisory
}

// OK reports whether the set has no hard violations. Advisories do not count.
func (r *Result) OK() bool {
	return len(r.Violations) == 0
}

// CatalogError reports an inconsistency between a directive set and the
// catalog it is validated against, such as a rule referencing a category the
// catalog cannot resolve. This indicates a programming or integration
// defect; it is surfaced rather than silently ignored.
type CatalogError struct {
	Term string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("compat: rule references %q, which is neither a known keyword nor a category", e.Term)
}

// Validate evaluates every rule in scope for every entry of the set.
//
// Mutually-exclusive rules are checked over unordered entry pairs and each
// offending pair is reported once, no matter which entry's scope produced
// it. Requires-rules are satisfied by any other entry matching any term of
// the disjunction. Recommends-rules produce advisories only.
func Validate(set *directive.DirectiveSet, cat *catalog.Catalog) (*Result, error) {
	res := &Result{}
	seenViolations := make(map[string]bool)
	seenAdvisories := make(map[string]bool)

	for i := range set.Entries {
		entry := &set.Entries[i]
		for _, rule := range rulesInScope(cat, entry) {
			var err error
			switch rule.Kind {
			case catalog.MutuallyExclusive:
				err = checkExclusive(set, cat, entry, rule, res, seenViolations)
			case catalog.Requires:
				err = checkRequires(set, cat, entry, rule, res, seenViolations)
			case catalog.Recommends:
				err = checkRecommends(set, cat, entry, rule, res, seenAdvisories)
			}
			if err != nil {
				return nil, err
			}
		}
	}

	// Canonical ordering makes Result equality independent of entry order.
	sort.Slice(res.Violations, func(i, j int) bool {
		return res.Violations[i].Message < res.Violations[j].Message
	})
	sort.Slice(res.Advisories, func(i, j int) bool {
		return res.Advisories[i].Message < res.Advisories[j].Message
	})
	return res, nil
}

// rulesInScope unions the catalog's rules for the entry name and, for a
// compound method/basis token, for its method part, preserving the
// name-before-category ordering RulesFor guarantees.
func rulesInScope(cat *catalog.Catalog, e *directive.KeywordEntry) []catalog.Rule {
	rules := cat.RulesFor(e.Name)
	if method := e.MethodPart(); !strings.EqualFold(method, e.Name) {
		for _, extra := range cat.RulesFor(method) {
			dup := false
			for _, have := range rules {
				if have.String() == extra.String() {
					dup = true
					break
				}
			}
			if !dup {
				rules = append(rules, extra)
			}
		}
	}
	return rules
}

func checkExclusive(set *directive.DirectiveSet, cat *catalog.Catalog, entry *directive.KeywordEntry,
	rule catalog.Rule, res *Result, seen map[string]bool) error {

	other := rule.Objects[0]
	onSubject, err := matches(cat, entry, rule.Subject)
	if err != nil {
		return err
	}
	onObject, err := matches(cat, entry, other)
	if err != nil {
		return err
	}
	if !onSubject && !onObject {
		return nil
	}
	opposite := other
	if !onSubject {
		opposite = rule.Subject
	}
	for i := range set.Entries {
		partner := &set.Entries[i]
		if partner == entry {
			continue
		}
		hit, err := matches(cat, partner, opposite)
		if err != nil {
			return err
		}
		if !hit {
			continue
		}
		pair := []string{entry.Name, partner.Name}
		sort.Slice(pair, func(a, b int) bool {
			return strings.ToLower(pair[a]) < strings.ToLower(pair[b])
		})
		key := rule.String() + "|" + strings.ToLower(pair[0]) + "|" + strings.ToLower(pair[1])
		if seen[key] {
			continue
		}
		seen[key] = true
		res.Violations = append(res.Violations, Violation{
			Rule:     rule,
			Keywords: pair,
			Message:  fmt.Sprintf("%s and %s are mutually exclusive [%s]", pair[0], pair[1], rule),
		})
	}
	return nil
}

func checkRequires(set *directive.DirectiveSet, cat *catalog.Catalog, entry *directive.KeywordEntry,
	rule catalog.Rule, res *Result, seen map[string]bool) error {

	onSubject, err := matches(cat, entry, rule.Subject)
	if err != nil {
		return err
	}
	if !onSubject {
		return nil
	}
	for _, term := range rule.Objects {
		for i := range set.Entries {
			partner := &set.Entries[i]
			if partner == entry {
				continue
			}
			hit, err := matches(cat, partner, term)
			if err != nil {
				return err
			}
			if hit {
				return nil // disjunction satisfied
			}
		}
	}
	key := rule.String() + "|" + strings.ToLower(entry.Name)
	if seen[key] {
		return nil
	}
	seen[key] = true
	res.Violations = append(res.Violations, Violation{
		Rule:     rule,
		Keywords: []string{entry.Name},
		Missing:  rule.Objects,
		Message: fmt.Sprintf("%s requires one of: %s [%s]",
			entry.Name, strings.Join(rule.Objects, ", "), rule),
	})
	return nil
}

func checkRecommends(set *directive.DirectiveSet, cat *catalog.Catalog, entry *directive.KeywordEntry,
	rule catalog.Rule, res *Result, seen map[string]bool) error {

	onSubject, err := matches(cat, entry, rule.Subject)
	if err != nil {
		return err
	}
	if !onSubject {
		return nil
	}
	companion := rule.Objects[0]
	for i := range set.Entries {
		partner := &set.Entries[i]
		if partner == entry {
			continue
		}
		hit, err := matches(cat, partner, companion)
		if err != nil {
			return err
		}
		if hit {
			return nil
		}
	}
	key := rule.String() + "|" + strings.ToLower(entry.Name)
	if seen[key] {
		return nil
	}
	seen[key] = true
	res.Advisories = append(res.Advisories, Advisory{
		Keyword:     entry.Name,
		Recommended: companion,
		Message:     fmt.Sprintf("%s is recommended together with %s [%s]", entry.Name, companion, rule),
	})
	return nil
}

// matches reports whether an entry satisfies a rule term. A keyword term
// matches by name; a category term matches through the entry's catalog
// definition. A compound method/basis entry also matches through its method
// part, so b3lyp/6-311g(d,p) counts as b3lyp and as a method. A term that is
// neither a known keyword nor a category is a CatalogError.
func matches(cat *catalog.Catalog, e *directive.KeywordEntry, term string) (bool, error) {
	if _, ok := cat.Lookup(term); ok {
		return strings.EqualFold(e.Name, term) || strings.EqualFold(e.MethodPart(), term), nil
	}
	if cat.HasCategory(term) {
		if def, ok := cat.Lookup(e.Name); ok {
			return strings.EqualFold(def.Category, term), nil
		}
		if def, ok := cat.Lookup(e.MethodPart()); ok {
			return strings.EqualFold(def.Category, term), nil
		}
		return false, nil
	}
	return false, &CatalogError{Term: term}
}
