package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gjfed/internal/backup"
	"gjfed/internal/catalog"
	"gjfed/internal/directive"
)

const inputFile = `%chk=job.chk
#p opt freq b3lyp

title

0 1
C 0.0 0.0 0.0

--Link1--
#p td b3lyp

excited states
`

func openSession(t *testing.T, content string) *Session {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "job.gjf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store, err := backup.NewStore(filepath.Join(dir, "backups"), nil)
	require.NoError(t, err)

	s, err := Open(path, catalog.Default(), store, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := openSession(t, inputFile)

	require.Len(t, s.Sections(), 2)
	require.NotNil(t, s.Directive(0))
	require.NotNil(t, s.Directive(1))
	assert.False(t, s.Dirty())

	// Both sections were validated on open.
	require.NotNil(t, s.Result(0))
	assert.True(t, s.Result(0).OK())
	require.NotNil(t, s.Result(1))
	assert.True(t, s.Result(1).OK())
}

func TestOpenSkipsBadRouteLine(t *testing.T) {
	s := openSession(t, "#p td=(nstates=50\n\ntitle\n")

	require.Len(t, s.Sections(), 1)
	assert.Nil(t, s.Directive(0), "an unparseable section must stay read-only")

	_, err := s.AddKeyword(0, "opt", nil)
	assert.Error(t, err)
}

func TestAddKeyword(t *testing.T) {
	s := openSession(t, inputFile)

	res, err := s.AddKeyword(0, "scrf", nil)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.True(t, s.Dirty())

	entry, ok := s.Directive(0).Lookup("scrf")
	require.True(t, ok)
	// Defaults come from the catalog schema.
	model, _ := entry.Param("model")
	assert.Equal(t, "pcm", model)

	// Adding a conflicting keyword is recorded, not rejected.
	res, err = s.AddKeyword(0, "td", nil)
	require.NoError(t, err)
	assert.False(t, res.OK())
}

func TestAddUnknownKeyword(t *testing.T) {
	s := openSession(t, inputFile)

	res, err := s.AddKeyword(0, "mystery", []directive.Parameter{{Name: "x", Value: "1"}})
	require.NoError(t, err)
	assert.True(t, res.OK())

	entry, ok := s.Directive(0).Lookup("mystery")
	require.True(t, ok)
	assert.True(t, entry.Unrecognized)
}

func TestRemoveKeyword(t *testing.T) {
	s := openSession(t, inputFile)

	res, err := s.RemoveKeyword(0, "freq")
	require.NoError(t, err)
	assert.False(t, s.Directive(0).Contains("freq"))
	// opt without freq downgrades to an advisory, not a violation.
	assert.True(t, res.OK())
	assert.Len(t, res.Advisories, 1)

	// Removing an absent keyword is a no-op that still reports state.
	dirtyBefore := s.Dirty()
	res, err = s.RemoveKeyword(0, "missing")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, dirtyBefore, s.Dirty())
}

func TestSetParameter(t *testing.T) {
	s := openSession(t, inputFile)

	_, err := s.SetParameter(1, "td", "nstates", "25")
	require.NoError(t, err)

	entry, _ := s.Directive(1).Lookup("td")
	v, _ := entry.Param("nstates")
	assert.Equal(t, "25", v)

	_, err = s.SetParameter(1, "absent", "x", "1")
	assert.Error(t, err)
}

func TestRenderAndPreview(t *testing.T) {
	s := openSession(t, inputFile)

	_, err := s.RemoveKeyword(0, "opt")
	require.NoError(t, err)

	line, err := s.Render(0)
	require.NoError(t, err)
	assert.Equal(t, "#p freq b3lyp", line)

	before, after, err := s.Preview(0)
	require.NoError(t, err)
	assert.Equal(t, "#p opt freq b3lyp", before)
	assert.Equal(t, "#p freq b3lyp", after)
}

func TestSave(t *testing.T) {
	s := openSession(t, inputFile)

	_, err := s.AddKeyword(1, "nosymm", nil)
	require.NoError(t, err)

	backupPath, err := s.Save()
	require.NoError(t, err)
	assert.False(t, s.Dirty())

	// The backup holds the pre-save content.
	saved, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, inputFile, string(saved))

	// The file carries the edited route line; everything else survives.
	data, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "#p td b3lyp nosymm\n")
	assert.Contains(t, content, "%chk=job.chk\n")
	assert.Contains(t, content, "--Link1--\n")
	assert.Contains(t, content, "excited states\n")

	// Our own save must not mark the session stale.
	assert.False(t, s.Stale())
}

func TestSaveCanonicalizesUntouchedSections(t *testing.T) {
	s := openSession(t, "#p  opt   freq  b3lyp\n\ntitle\n")

	_, err := s.AddKeyword(0, "nosymm", nil)
	require.NoError(t, err)
	_, err = s.Save()
	require.NoError(t, err)

	data, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	first := strings.SplitN(string(data), "\n", 2)[0]
	assert.Equal(t, "#p opt freq b3lyp nosymm", first)
}
