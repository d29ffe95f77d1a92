// Package session ties the engine together for one file being edited: it
// loads the sections, exposes snapshot-based edit operations, re-validates
// after every edit and writes the result back through the backup store.
//
// A session owns its DirectiveSets exclusively. Every edit produces a new
// snapshot, so a failed operation leaves the previous state intact; there is
// no partially-applied edit to roll back.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gjfed/internal/backup"
	"gjfed/internal/catalog"
	"gjfed/internal/compat"
	"gjfed/internal/directive"
	"gjfed/internal/gjf"
	"gjfed/internal/watcher"
)

// Session is one editing session over one .gjf file.
type Session struct {
	ID   string
	Path string

	log        *zap.Logger
	cat        *catalog.Catalog
	parser     *directive.Parser
	serializer *directive.Serializer
	backups    *backup.Store
	watch      *watcher.Watcher

	sections []gjf.Section
	sets     map[int]*directive.DirectiveSet // section index -> working set
	results  map[int]*compat.Result          // latest validation per section
	dirty    bool
}

// Open loads a file and parses every section that has a route line. A
// section whose route line fails to parse does not abort the session; the
// parse error is recorded and the section stays read-only until fixed
// externally.
func Open(path string, cat *catalog.Catalog, store *backup.Store, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sections, err := gjf.Split(f)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", path, err)
	}

	id := uuid.NewString()
	s := &Session{
		ID:         id,
		Path:       path,
		log:        log.With(zap.String("session", shortID(id)), zap.String("file", filepath.Base(path))),
		cat:        cat,
		parser:     directive.NewParser(cat),
		serializer: directive.NewSerializer(cat),
		backups:    store,
		sections:   sections,
		sets:       make(map[int]*directive.DirectiveSet),
		results:    make(map[int]*compat.Result),
	}
	for i := range sections {
		if !sections[i].HasRoute() {
			continue
		}
		set, err := sections[i].Parse(s.parser)
		if err != nil {
			s.log.Warn("route line not parseable", zap.Int("section", i), zap.Error(err))
			continue
		}
		s.sets[i] = set
		if err := s.revalidate(i); err != nil {
			return nil, err
		}
	}

	if w, err := watcher.Watch(path, log); err != nil {
		// Watching is best-effort: a filesystem without inotify should not
		// prevent editing.
		s.log.Warn("file watch unavailable", zap.Error(err))
	} else {
		s.watch = w
	}

	s.log.Info("session opened", zap.Int("sections", len(sections)), zap.Int("editable", len(s.sets)))
	return s, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Sections returns the loaded sections. Callers must not mutate them.
func (s *Session) Sections() []gjf.Section {
	return s.sections
}

// Directive returns the working set for a section, or nil when the section
// has no parseable route line.
func (s *Session) Directive(index int) *directive.DirectiveSet {
	return s.sets[index]
}

// Result returns the latest validation result for a section, or nil.
func (s *Session) Result(index int) *compat.Result {
	return s.results[index]
}

// Dirty reports whether any edit has not been saved yet.
func (s *Session) Dirty() bool {
	return s.dirty
}

// Stale reports whether the file changed on disk after it was loaded.
func (s *Session) Stale() bool {
	return s.watch != nil && s.watch.Modified()
}

// Catalog exposes the catalog the session validates against.
func (s *Session) Catalog() *catalog.Catalog {
	return s.cat
}

// AddKeyword inserts (or replaces) a keyword in a section's set. Parameters
// default from the catalog schema when none are given. Returns the
// re-validated result.
func (s *Session) AddKeyword(index int, name string, params []directive.Parameter) (*compat.Result, error) {
	set, err := s.editable(index)
	if err != nil {
		return nil, err
	}
	entry := directive.KeywordEntry{Name: name, Params: params}
	if def, ok := s.cat.Lookup(name); ok {
		if len(params) == 0 {
			for _, p := range def.Parameters {
				if p.Default != "" {
					entry.Params = append(entry.Params, directive.Parameter{Name: p.Name, Value: p.Default})
				}
			}
		}
	} else {
		entry.Unrecognized = true
	}
	s.sets[index] = set.Add(entry)
	s.dirty = true
	s.log.Debug("keyword added", zap.Int("section", index), zap.String("keyword", name))
	if err := s.revalidate(index); err != nil {
		return nil, err
	}
	return s.results[index], nil
}

// RemoveKeyword drops a keyword from a section's set; removing an absent
// keyword is a no-op that still returns the current result.
func (s *Session) RemoveKeyword(index int, name string) (*compat.Result, error) {
	set, err := s.editable(index)
	if err != nil {
		return nil, err
	}
	if set.Contains(name) {
		s.sets[index] = set.Remove(name)
		s.dirty = true
		s.log.Debug("keyword removed", zap.Int("section", index), zap.String("keyword", name))
		if err := s.revalidate(index); err != nil {
			return nil, err
		}
	}
	return s.results[index], nil
}

// SetParameter changes one parameter of one keyword.
func (s *Session) SetParameter(index int, keyword, param, value string) (*compat.Result, error) {
	set, err := s.editable(index)
	if err != nil {
		return nil, err
	}
	next, ok := set.SetParameter(keyword, param, value)
	if !ok {
		return nil, fmt.Errorf("section %d has no keyword %q", index, keyword)
	}
	s.sets[index] = next
	s.dirty = true
	s.log.Debug("parameter set",
		zap.Int("section", index), zap.String("keyword", keyword),
		zap.String("param", param), zap.String("value", value))
	if err := s.revalidate(index); err != nil {
		return nil, err
	}
	return s.results[index], nil
}

// Render returns the canonical route line for a section's working set.
func (s *Session) Render(index int) (string, error) {
	set, err := s.editable(index)
	if err != nil {
		return "", err
	}
	return s.serializer.Render(set), nil
}

// Preview returns the original route line and its edited replacement.
func (s *Session) Preview(index int) (before, after string, err error) {
	set, err := s.editable(index)
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(s.sections[index].Route()), s.serializer.Render(set), nil
}

// Validate recomputes a section's result on demand.
func (s *Session) Validate(index int) (*compat.Result, error) {
	if _, err := s.editable(index); err != nil {
		return nil, err
	}
	if err := s.revalidate(index); err != nil {
		return nil, err
	}
	return s.results[index], nil
}

func (s *Session) editable(index int) (*directive.DirectiveSet, error) {
	set, ok := s.sets[index]
	if !ok {
		return nil, fmt.Errorf("section %d has no editable route line", index)
	}
	return set, nil
}

func (s *Session) revalidate(index int) error {
	res, err := compat.Validate(s.sets[index], s.cat)
	if err != nil {
		return fmt.Errorf("validate section %d: %w", index, err)
	}
	s.results[index] = res
	return nil
}

// Save backs up the original, splices every edited route line back into its
// section, and atomically replaces the file. It returns the backup path.
func (s *Session) Save() (string, error) {
	backupPath, err := s.backups.Create(s.Path)
	if err != nil {
		return "", fmt.Errorf("backup before save: %w", err)
	}

	// Suspend the watch across our own write so the save does not flag the
	// session as stale.
	if s.watch != nil {
		s.watch.Close()
		s.watch = nil
		defer func() {
			if w, err := watcher.Watch(s.Path, s.log); err == nil {
				s.watch = w
			}
		}()
	}

	updated := make([]gjf.Section, len(s.sections))
	for i := range s.sections {
		if set, ok := s.sets[i]; ok {
			updated[i] = s.sections[i].WithRoute(s.serializer.Render(set))
		} else {
			updated[i] = s.sections[i]
		}
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, []byte(gjf.Join(updated)), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("replace %s: %w", s.Path, err)
	}

	s.sections = updated
	s.dirty = false
	s.log.Info("file saved", zap.String("backup", backupPath))
	return backupPath, nil
}

// Close releases the file watcher.
func (s *Session) Close() error {
	if s.watch != nil {
		return s.watch.Close()
	}
	return nil
}
