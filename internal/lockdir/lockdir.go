// Package lockdir provides the mutual-exclusion primitive guarding
// daemon runs: a directory created atomically (create-exclusive), with
// owner metadata stored inside.
package lockdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// OwnerFile is the metadata file written inside the lock directory.
const OwnerFile = "owner.json"

// ErrHeld is returned when the lock is already taken.
var ErrHeld = errors.New("lock already held")

// Owner records who acquired the lock.
type Owner struct {
	PID        int       `json:"pid"`
	RunID      string    `json:"run_id"`
	Host       string    `json:"host"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Lock is a directory-based mutex. Mkdir either creates the directory
// or fails because it exists, so creation doubles as test-and-set.
type Lock struct {
	fs   afero.Fs
	path string
}

// New returns a Lock at path on the given filesystem.
func New(fs afero.Fs, path string) *Lock {
	return &Lock{fs: fs, path: path}
}

// Path returns the lock directory path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock and records the owner. When the lock is held,
// the error reports the recorded owner if it can be read.
func (l *Lock) Acquire(runID string) error {
	if err := l.fs.Mkdir(l.path, 0o755); err != nil {
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("create lock %s: %w", l.path, err)
		}
		if owner, readErr := l.Owner(); readErr == nil {
			return fmt.Errorf("%w: %s by pid %d on %s (run %s) since %s",
				ErrHeld, l.path, owner.PID, owner.Host, owner.RunID,
				owner.AcquiredAt.Format(time.RFC3339))
		}
		return fmt.Errorf("%w: %s", ErrHeld, l.path)
	}

	host, _ := os.Hostname()
	owner := Owner{
		PID:        os.Getpid(),
		RunID:      runID,
		Host:       host,
		AcquiredAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(owner)
	if err != nil {
		return fmt.Errorf("encode lock owner: %w", err)
	}
	if err := afero.WriteFile(l.fs, filepath.Join(l.path, OwnerFile), raw, 0o644); err != nil {
		// Leave no half-acquired lock behind.
		_ = l.fs.RemoveAll(l.path)
		return fmt.Errorf("write lock owner: %w", err)
	}
	return nil
}

// Owner reads the metadata recorded by the current holder.
func (l *Lock) Owner() (Owner, error) {
	raw, err := afero.ReadFile(l.fs, filepath.Join(l.path, OwnerFile))
	if err != nil {
		return Owner{}, err
	}
	var owner Owner
	if err := json.Unmarshal(raw, &owner); err != nil {
		return Owner{}, fmt.Errorf("decode lock owner: %w", err)
	}
	return owner, nil
}

// Held reports whether the lock directory exists.
func (l *Lock) Held() (bool, error) {
	return afero.DirExists(l.fs, l.path)
}

// Release removes the lock directory. Only the holder should call it.
func (l *Lock) Release() error {
	if err := l.fs.RemoveAll(l.path); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}

// Clean force-removes a leftover lock directory, held or not.
func (l *Lock) Clean() error {
	if err := l.fs.RemoveAll(l.path); err != nil {
		return fmt.Errorf("clean lock %s: %w", l.path, err)
	}
	return nil
}
