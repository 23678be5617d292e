// Package backup keeps timestamped copies of the campaign store next to it.
package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/deskagent/internal/errors"
)

const (
	DefaultRetain = 5
	stampLayout   = "20060102_150405"
)

// Manager snapshots SourcePath as <base>_backup_<YYYYMMDD_HHMMSS>[_N]<ext>
// in the same directory and keeps at most Retain snapshots.
type Manager struct {
	SourcePath string
	Retain     int
	Now        func() time.Time
}

func NewManager(sourcePath string, retain int) *Manager {
	if retain <= 0 {
		retain = DefaultRetain
	}
	return &Manager{SourcePath: sourcePath, Retain: retain, Now: time.Now}
}

func (m *Manager) parts() (dir, base, ext string) {
	dir = filepath.Dir(m.SourcePath)
	ext = filepath.Ext(m.SourcePath)
	base = strings.TrimSuffix(filepath.Base(m.SourcePath), ext)
	return dir, base, ext
}

func (m *Manager) pattern() *regexp.Regexp {
	_, base, ext := m.parts()
	return regexp.MustCompile("^" + regexp.QuoteMeta(base) + `_backup_(\d{8}_\d{6})(?:_(\d+))?` + regexp.QuoteMeta(ext) + "$")
}

// Backup copies the store and prunes old snapshots. A missing store is an
// error; an empty backup is never fabricated.
func (m *Manager) Backup() (string, error) {
	src, err := os.Open(m.SourcePath)
	if err != nil {
		return "", appErrors.NewIO("backup", m.SourcePath, err)
	}
	defer src.Close()

	dir, base, ext := m.parts()
	stamp := m.Now().Format(stampLayout)
	target := filepath.Join(dir, fmt.Sprintf("%s_backup_%s%s", base, stamp, ext))
	var dst *os.File
	for n := 1; ; n++ {
		dst, err = os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", appErrors.NewIO("create backup", target, err)
		}
		target = filepath.Join(dir, fmt.Sprintf("%s_backup_%s_%d%s", base, stamp, n, ext))
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(target)
		return "", appErrors.NewIO("copy backup", target, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(target)
		return "", appErrors.NewIO("close backup", target, err)
	}

	logrus.WithField("path", target).Info("Campaign store backed up")
	if _, err := m.Prune(m.Retain); err != nil {
		return target, err
	}
	return target, nil
}

type entry struct {
	path  string
	stamp string
	seq   int
}

// List returns existing backups, oldest first.
func (m *Manager) List() ([]string, error) {
	entries, err := m.entries()
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.path
	}
	return paths, nil
}

func (m *Manager) entries() ([]entry, error) {
	dir, _, _ := m.parts()
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, appErrors.NewIO("list backups", dir, err)
	}

	re := m.pattern()
	var entries []entry
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		match := re.FindStringSubmatch(f.Name())
		if match == nil {
			continue
		}
		e := entry{path: filepath.Join(dir, f.Name()), stamp: match[1]}
		if match[2] != "" {
			fmt.Sscanf(match[2], "%d", &e.seq)
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].stamp != entries[j].stamp {
			return entries[i].stamp < entries[j].stamp
		}
		return entries[i].seq < entries[j].seq
	})
	return entries, nil
}

// Prune deletes the oldest backups beyond retain and returns the removed
// paths.
func (m *Manager) Prune(retain int) ([]string, error) {
	if retain < 0 {
		retain = 0
	}
	entries, err := m.entries()
	if err != nil {
		return nil, err
	}
	if len(entries) <= retain {
		return nil, nil
	}

	var removed []string
	for _, e := range entries[:len(entries)-retain] {
		if err := os.Remove(e.path); err != nil {
			return removed, appErrors.NewIO("remove backup", e.path, err)
		}
		removed = append(removed, e.path)
	}
	logrus.WithField("removed", len(removed)).Debug("Old backups pruned")
	return removed, nil
}
