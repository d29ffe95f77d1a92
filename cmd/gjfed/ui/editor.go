package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"gjfed/internal/compat"
	"gjfed/internal/directive"
)

// candidate is one keyword offered by the add-keyword picker, with the
// compatibility outcome of adding it to the current set.
type candidate struct {
	name       string
	desc       string
	present    bool
	violations int // new hard violations adding it would cause
	advisories int // new advisories adding it would cause
}

// --- keyword list (edit page) ---------------------------------------------

func (m Model) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	set := m.sess.Directive(m.section)
	n := len(set.Entries)
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}
	case "a":
		m.switchTo(pageCategory)
	case "d", "x":
		if n == 0 {
			return m, nil
		}
		name := set.Entries[m.cursor].Name
		if _, err := m.sess.RemoveKeyword(m.section, name); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		if m.cursor > 0 {
			m.cursor--
		}
		m.status = fmt.Sprintf("removed %s", name)
	case "e", "enter":
		if n == 0 {
			return m, nil
		}
		m.paramKeyword = set.Entries[m.cursor].Name
		m.switchTo(pageParams)
	case "s":
		m.switchTo(pagePreview)
	case "esc", "q":
		m.switchTo(pageSections)
		m.cursor = m.section
	}
	return m, nil
}

func (m Model) viewEdit() string {
	set := m.sess.Directive(m.section)
	res := m.sess.Result(m.section)

	var b strings.Builder
	label := set.Section
	if label == "" {
		label = "main"
	}
	b.WriteString(m.styles.Title.Render(fmt.Sprintf("%s · %s", m.sess.Path, label)))
	b.WriteString("\n")

	if len(set.Entries) == 0 {
		b.WriteString(m.styles.Muted.Render("route line is empty; press a to add a keyword"))
		b.WriteString("\n")
	}
	for i, e := range set.Entries {
		line := renderEntrySummary(e)
		if e.Unrecognized {
			line += " " + m.styles.Warning.Render("(unrecognized)")
		}
		if i == m.cursor {
			b.WriteString(m.styles.Selected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if res != nil {
		for _, v := range res.Violations {
			b.WriteString(m.styles.Error.Render("✗ " + v.Message))
			b.WriteString("\n")
		}
		for _, a := range res.Advisories {
			b.WriteString(m.styles.Warning.Render("! " + a.Message))
			b.WriteString("\n")
		}
		if res.OK() && len(res.Advisories) == 0 {
			b.WriteString(m.styles.Success.Render("✓ no rule violations"))
			b.WriteString("\n")
		}
	}
	b.WriteString(m.styles.Footer.Render("a add · d delete · enter parameters · s save · esc sections"))
	return b.String()
}

func renderEntrySummary(e directive.KeywordEntry) string {
	if len(e.Params) == 0 {
		return e.Name
	}
	parts := make([]string, len(e.Params))
	for i, p := range e.Params {
		if p.Value == "" {
			parts[i] = p.Name
		} else {
			parts[i] = p.Name + "=" + p.Value
		}
	}
	return fmt.Sprintf("%s(%s)", e.Name, strings.Join(parts, ", "))
}

// --- category picker ------------------------------------------------------

func (m Model) updateCategory(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	cats := m.deps.Catalog.Categories()
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(cats)-1 {
			m.cursor++
		}
	case "enter":
		m.categoryID = cats[m.cursor].ID
		m.buildCandidates()
		m.switchTo(pageKeyword)
	case "esc", "q":
		m.switchTo(pageEdit)
	}
	return m, nil
}

func (m Model) viewCategory() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Add keyword · pick a category"))
	b.WriteString("\n")
	for i, c := range m.deps.Catalog.Categories() {
		line := fmt.Sprintf("%s (%d)", c.Display, len(c.Keywords))
		if i == m.cursor {
			b.WriteString(m.styles.Selected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Footer.Render("enter pick · esc back"))
	return b.String()
}

// buildCandidates lists the selected category's keywords, annotated with the
// validation outcome of adding each to the current set. The what-if check
// runs on a snapshot; the working set is untouched.
func (m *Model) buildCandidates() {
	m.candidates = nil
	cat, ok := m.deps.Catalog.Category(m.categoryID)
	if !ok {
		return
	}
	set := m.sess.Directive(m.section)
	base := m.sess.Result(m.section)
	baseViolations, baseAdvisories := 0, 0
	if base != nil {
		baseViolations = len(base.Violations)
		baseAdvisories = len(base.Advisories)
	}
	for _, name := range cat.Keywords {
		c := candidate{name: name, present: set.Contains(name)}
		if def, ok := m.deps.Catalog.Lookup(name); ok {
			c.desc = def.Description
		}
		if !c.present {
			probe := set.Add(directive.KeywordEntry{Name: name})
			if res, err := compat.Validate(probe, m.deps.Catalog); err == nil {
				c.violations = len(res.Violations) - baseViolations
				c.advisories = len(res.Advisories) - baseAdvisories
			}
		}
		m.candidates = append(m.candidates, c)
	}
}

// --- keyword picker -------------------------------------------------------

func (m Model) updateKeyword(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.candidates)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.candidates) == 0 {
			return m, nil
		}
		c := m.candidates[m.cursor]
		if c.present {
			m.errMsg = fmt.Sprintf("%s is already on the route line", c.name)
			return m, nil
		}
		if _, err := m.sess.AddKeyword(m.section, c.name, nil); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.switchTo(pageEdit)
		m.status = fmt.Sprintf("added %s", c.name)
	case "esc", "q":
		m.switchTo(pageCategory)
	}
	return m, nil
}

func (m Model) viewKeyword() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Add keyword · " + m.categoryID))
	b.WriteString("\n")
	for i, c := range m.candidates {
		line := c.name
		switch {
		case c.present:
			line += " " + m.styles.Muted.Render("(present)")
		case c.violations > 0:
			line += " " + m.styles.Error.Render("✗ conflicts")
		case c.advisories > 0:
			line += " " + m.styles.Warning.Render("! advisory")
		default:
			line += " " + m.styles.Success.Render("✓")
		}
		if c.desc != "" {
			line += "  " + m.styles.Muted.Render(c.desc)
		}
		if i == m.cursor {
			b.WriteString(m.styles.Selected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Footer.Render("enter add · esc categories"))
	return b.String()
}

// --- parameter editor -----------------------------------------------------

func (m Model) updateParams(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.paramEditing {
			var cmd tea.Cmd
			m.valueInput, cmd = m.valueInput.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	entry, found := m.sess.Directive(m.section).Lookup(m.paramKeyword)
	if !found {
		m.switchTo(pageEdit)
		return m, nil
	}
	names := m.paramNames(&entry)

	if m.paramEditing {
		switch key.String() {
		case "enter":
			value := strings.TrimSpace(m.valueInput.Value())
			m.paramEditing = false
			m.valueInput.Blur()
			if _, err := m.sess.SetParameter(m.section, m.paramKeyword, names[m.cursor], value); err != nil {
				m.errMsg = err.Error()
			}
			return m, nil
		case "esc":
			m.paramEditing = false
			m.valueInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.valueInput, cmd = m.valueInput.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(names)-1 {
			m.cursor++
		}
	case "enter", "e":
		if len(names) == 0 {
			return m, nil
		}
		cur, _ := entry.Param(names[m.cursor])
		m.valueInput.SetValue(cur)
		m.valueInput.CursorEnd()
		m.valueInput.Focus()
		m.paramEditing = true
		return m, textinput.Blink
	case "tab":
		// Cycle through catalog options for enumerated parameters.
		if len(names) == 0 {
			return m, nil
		}
		m.cycleOption(&entry, names[m.cursor])
	case "esc", "q":
		m.switchTo(pageEdit)
	}
	return m, nil
}

// paramNames merges the schema's declared parameters with whatever the entry
// already carries, schema order first.
func (m *Model) paramNames(entry *directive.KeywordEntry) []string {
	var names []string
	seen := make(map[string]bool)
	if declared, ok := m.deps.Catalog.ParameterNames(entry.Name); ok {
		for _, n := range declared {
			names = append(names, n)
			seen[strings.ToLower(n)] = true
		}
	}
	for _, p := range entry.Params {
		if !seen[strings.ToLower(p.Name)] {
			names = append(names, p.Name)
			seen[strings.ToLower(p.Name)] = true
		}
	}
	return names
}

// cycleOption advances an enumerated parameter to its next catalog option.
func (m *Model) cycleOption(entry *directive.KeywordEntry, param string) {
	def, ok := m.deps.Catalog.Lookup(entry.Name)
	if !ok {
		return
	}
	pdef, ok := def.Parameter(param)
	if !ok || len(pdef.Options) == 0 {
		return
	}
	cur, _ := entry.Param(param)
	next := pdef.Options[0]
	for i, opt := range pdef.Options {
		if strings.EqualFold(opt, cur) {
			next = pdef.Options[(i+1)%len(pdef.Options)]
			break
		}
	}
	if _, err := m.sess.SetParameter(m.section, m.paramKeyword, param, next); err != nil {
		m.errMsg = err.Error()
	}
}

func (m Model) viewParams() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Parameters · " + m.paramKeyword))
	b.WriteString("\n")

	entry, found := m.sess.Directive(m.section).Lookup(m.paramKeyword)
	if !found {
		return b.String()
	}
	names := m.paramNames(&entry)
	if len(names) == 0 {
		b.WriteString(m.styles.Muted.Render("this keyword takes no parameters"))
		b.WriteString("\n")
	}
	for i, name := range names {
		value, set := entry.Param(name)
		line := name
		switch {
		case set && value != "":
			line += " = " + value
		case set:
			line += " " + m.styles.Muted.Render("(flag)")
		default:
			line += " " + m.styles.Muted.Render("(unset)")
		}
		if def, ok := m.deps.Catalog.Lookup(entry.Name); ok {
			if pdef, ok := def.Parameter(name); ok && len(pdef.Options) > 0 {
				line += "  " + m.styles.Muted.Render("["+strings.Join(pdef.Options, "|")+"]")
			}
		}
		if i == m.cursor {
			b.WriteString(m.styles.Selected.Render("> " + line))
			if m.paramEditing {
				b.WriteString("\n  ")
				b.WriteString(m.styles.Prompt.Render("value: "))
				b.WriteString(m.valueInput.View())
			}
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Footer.Render("enter edit value · tab cycle options · esc back"))
	return b.String()
}

// --- save preview ---------------------------------------------------------

func (m Model) updatePreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "enter":
		backupPath, err := m.sess.Save()
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.switchTo(pageEdit)
		m.status = "saved; backup at " + backupPath
	case "n", "esc", "q":
		m.switchTo(pageEdit)
	}
	return m, nil
}

func (m Model) viewPreview() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Save"))
	b.WriteString("\n")

	if m.sess.Stale() {
		b.WriteString(m.styles.Warning.Render("the file changed on disk; saving will overwrite that change"))
		b.WriteString("\n\n")
	}
	before, after, err := m.sess.Preview(m.section)
	if err != nil {
		b.WriteString(m.styles.Error.Render(err.Error()))
		return b.String()
	}
	b.WriteString(m.styles.Muted.Render("before"))
	b.WriteString("\n")
	b.WriteString(m.styles.RouteLine.Render(before))
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("after"))
	b.WriteString("\n")
	b.WriteString(m.styles.RouteLine.Render(after))
	b.WriteString("\n")

	if res := m.sess.Result(m.section); res != nil && !res.OK() {
		b.WriteString(m.styles.Error.Render(fmt.Sprintf("%d violation(s) remain; the file will be saved as shown", len(res.Violations))))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Footer.Render("y save · esc cancel"))
	return b.String()
}
