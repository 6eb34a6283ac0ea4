package organizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"sortbot/internal/faults"
)

// CheckLayout verifies, once at startup, that organizing root cannot loop or
// swallow sortbot's own files. It fails with faults.ErrConfiguration when
// root is missing or not writable, when an existing category directory
// resolves to root or one of its ancestors, or when a protected path (log
// directory or file, history database, lock directory) is root itself or one
// of its direct entries. Deeper nesting is fine because only direct entries
// are organized.
func (o *Organizer) CheckLayout(protected ...string) error {
	rootResolved, err := checkRoot(o.root)
	if err != nil {
		return err
	}

	for _, label := range o.categorizer.Labels() {
		categoryPath := filepath.Join(o.root, label)
		info, err := os.Stat(categoryPath)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return layoutError(fmt.Sprintf("inspect category %s", categoryPath), err)
		}
		if !info.IsDir() {
			return layoutError(fmt.Sprintf("category path %s exists and is not a directory", categoryPath), nil)
		}
		resolved, err := filepath.EvalSymlinks(categoryPath)
		if err != nil {
			return layoutError(fmt.Sprintf("resolve category %s", categoryPath), err)
		}
		if resolved == rootResolved || within(resolved, rootResolved) {
			return layoutError(fmt.Sprintf("category %s resolves to %s which contains the root; moving files there would loop", label, resolved), nil)
		}
	}

	for _, path := range protected {
		if strings.TrimSpace(path) == "" {
			continue
		}
		resolved, err := resolveExisting(path)
		if err != nil {
			return layoutError(fmt.Sprintf("resolve %s", path), err)
		}
		if resolved == rootResolved || filepath.Dir(resolved) == rootResolved {
			return layoutError(fmt.Sprintf("%s would be organized as an entry of root %s", path, o.root), nil)
		}
	}
	return nil
}

func checkRoot(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", layoutError(fmt.Sprintf("root %s does not exist", root), nil)
		}
		return "", layoutError(fmt.Sprintf("inspect root %s", root), err)
	}
	if !info.IsDir() {
		return "", layoutError(fmt.Sprintf("root %s is not a directory", root), nil)
	}
	if err := unix.Access(root, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return "", layoutError(fmt.Sprintf("root %s is not readable and writable", root), err)
	}
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", layoutError(fmt.Sprintf("resolve root %s", root), err)
	}
	return resolved, nil
}

// resolveExisting evaluates symlinks on the longest existing prefix of path,
// so paths that are about to be created still compare correctly.
func resolveExisting(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	var missing []string
	current := abs
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			parts := append([]string{resolved}, missing...)
			return filepath.Join(parts...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs, nil
		}
		missing = append([]string{filepath.Base(current)}, missing...)
		current = parent
	}
}

// within reports whether path is strictly inside dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func layoutError(message string, err error) error {
	return faults.Wrap(faults.ErrConfiguration, "organizer", "check layout", message, err)
}
