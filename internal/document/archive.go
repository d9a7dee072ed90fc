package document

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// StampLayout is the UTC timestamp embedded in backup names
const StampLayout = "20060102T150405Z"

const backupPrefix = "buildstate-"

// Backup is one archived copy of a project's documents
type Backup struct {
	Ref        string // archive name without extension, e.g. buildstate-20261019T101530Z
	Time       time.Time
	Structured string // empty when the document did not exist
	Narrative  string
}

// Snapshot archives the current on-disk documents under a name derived from
// at. A backup from the same second with identical content is reused; a
// different one gets a numeric suffix. The reference is relative to the
// project root.
func Snapshot(p Paths, at time.Time) (string, error) {
	jsonData, err := readOptional(p.Structured())
	if err != nil {
		return "", err
	}
	mdData, err := readOptional(p.Narrative())
	if err != nil {
		return "", err
	}

	dir := p.Archive()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := backupPrefix + at.UTC().Format(StampLayout)
	for n := 0; ; n++ {
		name := base
		if n > 0 {
			name = base + "-" + strconv.Itoa(n)
		}
		jsonPath := filepath.Join(dir, name+".json")
		mdPath := filepath.Join(dir, name+".md")

		same, taken, err := matchesBackup(jsonPath, mdPath, jsonData, mdData)
		if err != nil {
			return "", err
		}
		if same {
			return reference(p, name), nil
		}
		if taken {
			continue
		}

		if jsonData != nil {
			if err := writeFileAtomic(jsonPath, jsonData); err != nil {
				return "", err
			}
		}
		if mdData != nil {
			if err := writeFileAtomic(mdPath, mdData); err != nil {
				return "", err
			}
		}
		return reference(p, name), nil
	}
}

// ListBackups returns the project's backups, oldest first
func ListBackups(p Paths) ([]Backup, error) {
	entries, err := os.ReadDir(p.Archive())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}

	byRef := make(map[string]*Backup)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, backupPrefix) {
			continue
		}
		ext := filepath.Ext(name)
		if ext != ".json" && ext != ".md" {
			continue
		}
		ref := strings.TrimSuffix(name, ext)
		b, ok := byRef[ref]
		if !ok {
			stamp := strings.TrimPrefix(ref, backupPrefix)
			if i := strings.IndexByte(stamp, '-'); i >= 0 {
				stamp = stamp[:i]
			}
			ts, err := time.Parse(StampLayout, stamp)
			if err != nil {
				continue
			}
			b = &Backup{Ref: ref, Time: ts}
			byRef[ref] = b
		}
		if ext == ".json" {
			b.Structured = filepath.Join(p.Archive(), name)
		} else {
			b.Narrative = filepath.Join(p.Archive(), name)
		}
	}

	backups := make([]Backup, 0, len(byRef))
	for _, b := range byRef {
		backups = append(backups, *b)
	}
	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].Time.Equal(backups[j].Time) {
			return backups[i].Time.Before(backups[j].Time)
		}
		return backupSeq(backups[i].Ref) < backupSeq(backups[j].Ref)
	})
	return backups, nil
}

// Restore copies a backup over the live documents and returns the
// reference of a snapshot of what it replaced, empty when neither live
// document existed. A document the backup does not hold is removed, so the
// pair on disk matches the backup. ref may be the archive name or the
// reference returned by Snapshot.
func Restore(p Paths, ref string, at time.Time) (string, error) {
	name := strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
	backups, err := ListBackups(p)
	if err != nil {
		return "", err
	}
	var found *Backup
	for i := range backups {
		if backups[i].Ref == name {
			found = &backups[i]
			break
		}
	}
	if found == nil {
		return "", fmt.Errorf("backup %s not found in %s", name, p.Archive())
	}

	var saved string
	if fileExists(p.Structured()) || fileExists(p.Narrative()) {
		if saved, err = Snapshot(p, at); err != nil {
			return "", fmt.Errorf("failed to back up the live documents: %w", err)
		}
	}

	for _, f := range []struct{ src, dst string }{
		{found.Structured, p.Structured()},
		{found.Narrative, p.Narrative()},
	} {
		if f.src == "" {
			if err := os.Remove(f.dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return saved, fmt.Errorf("failed to remove %s: %w", f.dst, err)
			}
			continue
		}
		if err := copyAtomic(f.src, f.dst); err != nil {
			return saved, err
		}
	}
	return saved, nil
}

func matchesBackup(jsonPath, mdPath string, jsonData, mdData []byte) (same, taken bool, err error) {
	oldJSON, err := readOptional(jsonPath)
	if err != nil {
		return false, false, err
	}
	oldMD, err := readOptional(mdPath)
	if err != nil {
		return false, false, err
	}
	if oldJSON == nil && oldMD == nil {
		return false, false, nil
	}
	same = bytes.Equal(oldJSON, jsonData) && (oldJSON == nil) == (jsonData == nil) &&
		bytes.Equal(oldMD, mdData) && (oldMD == nil) == (mdData == nil)
	return same, true, nil
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func copyAtomic(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read backup %s: %w", src, err)
	}
	return writeFileAtomic(dst, data)
}

func reference(p Paths, name string) string {
	ref := filepath.Join(p.Archive(), name)
	if rel, err := filepath.Rel(p.Root, ref); err == nil {
		return filepath.ToSlash(rel)
	}
	return ref
}

func backupSeq(ref string) int {
	i := strings.LastIndexByte(ref, '-')
	if i < len(backupPrefix) {
		return 0
	}
	n, err := strconv.Atoi(ref[i+1:])
	if err != nil {
		return 0
	}
	return n
}
