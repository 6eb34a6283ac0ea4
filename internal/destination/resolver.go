package destination

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MaxProbes bounds the numbered-suffix search in Resolve.
const MaxProbes = 100000

var monthAbbreviations = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// ErrProbesExhausted is returned when every numbered candidate is taken.
var ErrProbesExhausted = errors.New("no free file name")

// Resolver builds destination directories and unique file names.
type Resolver struct {
	dirMode fs.FileMode
}

// NewResolver returns a Resolver creating directories with mode 0o755.
func NewResolver() *Resolver {
	return &Resolver{dirMode: 0o755}
}

// MonthAbbreviation returns the fixed English three-letter month name.
func MonthAbbreviation(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthAbbreviations[m-1]
}

// DirectoryPath returns root/category/YYYY/Mon without touching the filesystem.
func DirectoryPath(root, category string, ts time.Time) string {
	year := fmt.Sprintf("%04d", ts.Year())
	return filepath.Join(root, category, year, MonthAbbreviation(ts.Month()))
}

// DirectoryFor returns root/category/YYYY/Mon and ensures the whole chain
// exists. Existing directories are not an error.
func (r *Resolver) DirectoryFor(root, category string, ts time.Time) (string, error) {
	dir := DirectoryPath(root, category, ts)
	if err := os.MkdirAll(dir, r.dirMode); err != nil {
		return "", fmt.Errorf("create destination %s: %w", dir, err)
	}
	return dir, nil
}

// Resolve returns dir/name when that entry is free, otherwise the first free
// stem(N)ext with N counting up from 1. Callers must hold the directory lock.
func (r *Resolver) Resolve(dir, name string) (string, error) {
	candidate := filepath.Join(dir, name)
	free, err := isFree(candidate)
	if err != nil {
		return "", err
	}
	if free {
		return candidate, nil
	}

	stem, ext := SplitName(name)
	for counter := 1; counter <= MaxProbes; counter++ {
		candidate = filepath.Join(dir, NumberedName(stem, ext, counter))
		free, err := isFree(candidate)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w for %s in %s after %d probes", ErrProbesExhausted, name, dir, MaxProbes)
}

// SplitName splits name on its last dot. The extension keeps its dot;
// "archive.tar.gz" yields ("archive.tar", ".gz"). A leading dot alone does not
// start an extension.
func SplitName(name string) (stem, ext string) {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx:]
}

// NumberedName formats stem(counter)ext.
func NumberedName(stem, ext string, counter int) string {
	return stem + "(" + strconv.Itoa(counter) + ")" + ext
}

func isFree(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, fmt.Errorf("probe %s: %w", path, err)
}
