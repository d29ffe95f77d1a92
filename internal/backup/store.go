// Package backup manages timestamped copies of .gjf files. A backup is taken
// before every overwrite; nothing in the editor ever destroys the only copy
// of an input file.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const suffix = ".gjf.bak"

// Store is a backup directory. The zero value is not usable; create one with
// NewStore.
type Store struct {
	dir string
	log *zap.Logger
	now func() time.Time // overridable for tests
}

// NewStore opens (creating if needed) a backup directory.
func NewStore(dir string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir %s: %w", dir, err)
	}
	return &Store{dir: dir, log: log, now: time.Now}, nil
}

// Dir returns the backup directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Create copies the file into the store under a timestamped name
// (<stem>_<YYYYMMDD>_<HHMMSS>.gjf.bak) and returns the backup path.
func (s *Store) Create(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := fmt.Sprintf("%s_%s%s", stem, s.now().Format("20060102_150405"), suffix)
	dest := filepath.Join(s.dir, name)

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create backup %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("write backup %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close backup %s: %w", dest, err)
	}
	s.log.Debug("backup created", zap.String("source", path), zap.String("backup", dest))
	return dest, nil
}

// List returns backup paths, sorted by name (and therefore by timestamp).
// A non-empty stem restricts the listing to backups of that file.
func (s *Store) List(stem string) ([]string, error) {
	pattern := "*" + suffix
	if stem != "" {
		pattern = stem + "_*" + suffix
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Latest returns the most recent backup for a stem, or "" when none exists.
func (s *Store) Latest(stem string) (string, error) {
	backups, err := s.List(stem)
	if err != nil || len(backups) == 0 {
		return "", err
	}
	return backups[len(backups)-1], nil
}

// Restore copies a backup over the target. Unless overwrite is set, an
// existing target makes Restore a no-op returning false.
func (s *Store) Restore(backupPath, target string, overwrite bool) (bool, error) {
	src, err := os.Open(backupPath)
	if err != nil {
		return false, fmt.Errorf("open backup %s: %w", backupPath, err)
	}
	defer src.Close()

	if !overwrite {
		if _, err := os.Stat(target); err == nil {
			return false, nil
		}
	}
	out, err := os.Create(target)
	if err != nil {
		return false, fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return false, fmt.Errorf("restore to %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return false, fmt.Errorf("close %s: %w", target, err)
	}
	s.log.Info("backup restored", zap.String("backup", backupPath), zap.String("target", target))
	return true, nil
}

// Cleanup removes all but the newest keepLastN backups and returns the paths
// it removed. Removal failures are logged and skipped, never fatal.
func (s *Store) Cleanup(keepLastN int) ([]string, error) {
	backups, err := s.List("")
	if err != nil {
		return nil, err
	}
	if keepLastN < 0 || len(backups) <= keepLastN {
		return nil, nil
	}
	type aged struct {
		path  string
		mtime time.Time
	}
	byAge := make([]aged, 0, len(backups))
	for _, b := range backups {
		info, err := os.Stat(b)
		if err != nil {
			continue
		}
		byAge = append(byAge, aged{path: b, mtime: info.ModTime()})
	}
	sort.Slice(byAge, func(i, j int) bool { return byAge[i].mtime.Before(byAge[j].mtime) })

	var removed []string
	for _, a := range byAge[:max(0, len(byAge)-keepLastN)] {
		if err := os.Remove(a.path); err != nil {
			s.log.Warn("could not remove backup", zap.String("path", a.path), zap.Error(err))
			continue
		}
		removed = append(removed, a.path)
	}
	return removed, nil
}

// Info summarizes the store for display.
type Info struct {
	Dir          string
	Total        int
	PerFile      map[string]int // stem -> backup count
	DiskUsageKiB int64
}

// Info gathers counts and disk usage across the store.
func (s *Store) Info() (Info, error) {
	backups, err := s.List("")
	if err != nil {
		return Info{}, err
	}
	info := Info{Dir: s.dir, Total: len(backups), PerFile: make(map[string]int)}
	for _, b := range backups {
		info.PerFile[stemOf(b)]++
		if st, err := os.Stat(b); err == nil {
			info.DiskUsageKiB += st.Size() / 1024
		}
	}
	return info, nil
}

// stemOf recovers the original file stem from a backup name by stripping the
// suffix and the trailing _YYYYMMDD_HHMMSS timestamp.
func stemOf(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), suffix)
	parts := strings.Split(name, "_")
	if len(parts) >= 3 {
		return strings.Join(parts[:len(parts)-2], "_")
	}
	return name
}
