// Package instance guarantees at most one sortbot process organizes a given
// root at a time, using an advisory file lock under the state directory.
package instance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"sortbot/internal/faults"
)

// Lock is a held single-instance lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file used for root inside lockDir. The name is
// derived from the cleaned absolute root so different spellings of the same
// directory share a lock.
func LockPath(lockDir, root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	sum := sha256.Sum256([]byte(abs))
	base := sanitize(filepath.Base(abs))
	return filepath.Join(lockDir, fmt.Sprintf("%s-%s.lock", base, hex.EncodeToString(sum[:6]))), nil
}

// Acquire takes the lock for root without blocking. A lock already held by
// another process is reported as a configuration error.
func Acquire(lockDir, root string) (*Lock, error) {
	path, err := LockPath(lockDir, root)
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "instance", "lock path", root, err)
	}
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "instance", "create lock directory", lockDir, err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "instance", "acquire lock", path, err)
	}
	if !ok {
		return nil, faults.Wrap(faults.ErrConfiguration, "instance", "acquire lock",
			fmt.Sprintf("another sortbot instance is already organizing %s (lock %s)", root, path), nil)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release unlocks. It is safe to call on a nil Lock and more than once.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if !l.lock.Locked() {
		return nil
	}
	return l.lock.Unlock()
}

func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "_" {
		return "root"
	}
	return name
}
