package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/mariov96/session-continuity-framework-sub000/internal/tree"
	"github.com/mariov96/session-continuity-framework-sub000/pkg/types"
)

// DefaultStaleAfter is how old a lock must be before another writer may break it
const DefaultStaleAfter = 10 * time.Minute

// Lock is a held advisory lock on a project
type Lock struct {
	Path    string
	Owner   string
	Created time.Time
}

// LockInfo describes the holder of an existing lock
type LockInfo struct {
	Owner   string
	PID     int64
	Created time.Time
}

// AcquireLock creates the project's lock file exclusively. An existing lock
// older than staleAfter is broken; a fresh one yields types.ErrLocked.
func AcquireLock(p Paths, staleAfter time.Duration) (*Lock, error) {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	path := p.LockFile()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	owner := uuid.New().String()
	now := time.Now().UTC()
	body := tree.NewMap()
	body.Set("owner", tree.String(owner))
	body.Set("pid", tree.Int(int64(os.Getpid())))
	body.Set("created", tree.String(now.Format(time.RFC3339Nano)))

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, werr := f.Write(body.JSON())
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, fmt.Errorf("failed to write lock %s: %w", path, errors.Join(werr, cerr))
			}
			return &Lock{Path: path, Owner: owner, Created: now}, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("failed to create lock %s: %w", path, err)
		}

		info, statErr := os.Stat(path)
		if statErr != nil {
			continue
		}
		if time.Since(info.ModTime()) < staleAfter {
			holder, _ := ReadLock(p)
			return nil, fmt.Errorf("%w: %s held by %s since %s", types.ErrLocked,
				path, holder.Owner, holder.Created.Format(time.RFC3339))
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to break stale lock %s: %w", path, err)
		}
	}
	return nil, fmt.Errorf("%w: %s", types.ErrLocked, path)
}

// ReadLock reports the current holder of the project lock
func ReadLock(p Paths) (LockInfo, error) {
	data, err := os.ReadFile(p.LockFile())
	if err != nil {
		return LockInfo{}, err
	}
	r := gjson.ParseBytes(data)
	created, _ := time.Parse(time.RFC3339Nano, r.Get("created").String())
	return LockInfo{
		Owner:   r.Get("owner").String(),
		PID:     r.Get("pid").Int(),
		Created: created,
	}, nil
}

// Release removes the lock if this holder still owns it
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read lock %s: %w", l.Path, err)
	}
	if gjson.GetBytes(data, "owner").String() != l.Owner {
		return nil
	}
	if err := os.Remove(l.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to release lock %s: %w", l.Path, err)
	}
	return nil
}
