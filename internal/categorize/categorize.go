package categorize

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"sortbot/internal/faults"
)

// Category labels shipped with the default rule table.
const (
	Pictures  = "Pictures"
	Documents = "Documents"
	Videos    = "Videos"
	Audio     = "Audio"
	Archives  = "Archives"
	Others    = "Others"
)

// Rules maps a category label to the extensions it claims. Extensions are
// compared lower-cased and without a leading dot.
type Rules map[string][]string

// DefaultRules returns a fresh copy of the built-in rule table.
func DefaultRules() Rules {
	return Rules{
		Pictures:  {"jpg", "jpeg", "png", "gif", "bmp", "svg", "webp"},
		Documents: {"pdf", "doc", "docx", "txt", "rtf", "odt", "xls", "xlsx", "ppt", "pptx"},
		Videos:    {"mp4", "avi", "mkv", "mov", "wmv", "flv", "webm"},
		Audio:     {"mp3", "wav", "flac", "aac", "ogg", "m4a"},
		Archives:  {"zip", "rar", "tar", "gz", "7z", "bz2"},
	}
}

// Categorizer resolves a category label for a file name.
type Categorizer struct {
	byExtension map[string]string
	fallback    string
	labels      []string
}

// New validates rules and builds the extension lookup. An extension claimed by
// two categories is rejected here rather than at lookup time.
func New(rules Rules, fallback string) (*Categorizer, error) {
	fallback = strings.TrimSpace(fallback)
	if err := validateLabel(fallback); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "categorize", "default category", err.Error(), nil)
	}

	labels := make([]string, 0, len(rules)+1)
	for label := range rules {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	byExtension := make(map[string]string)
	for _, label := range labels {
		if err := validateLabel(label); err != nil {
			return nil, faults.Wrap(faults.ErrConfiguration, "categorize", "rule label", err.Error(), nil)
		}
		for _, raw := range rules[label] {
			ext := NormalizeExtension(raw)
			if ext == "" {
				return nil, faults.Wrap(faults.ErrConfiguration, "categorize", "rule extension",
					fmt.Sprintf("category %q lists an empty extension", label), nil)
			}
			if owner, ok := byExtension[ext]; ok && owner != label {
				return nil, faults.Wrap(faults.ErrConfiguration, "categorize", "rule extension",
					fmt.Sprintf("extension %q claimed by both %q and %q", ext, owner, label), nil)
			}
			byExtension[ext] = label
		}
	}

	if _, ok := rules[fallback]; !ok {
		labels = append(labels, fallback)
	}
	return &Categorizer{byExtension: byExtension, fallback: fallback, labels: labels}, nil
}

// MustDefault returns a Categorizer over DefaultRules with Others as fallback.
func MustDefault() *Categorizer {
	c, err := New(DefaultRules(), Others)
	if err != nil {
		panic(err)
	}
	return c
}

// Category returns the label for fileName. Unknown or missing extensions
// resolve to the fallback category.
func (c *Categorizer) Category(fileName string) string {
	ext := Extension(fileName)
	if ext == "" {
		return c.fallback
	}
	if label, ok := c.byExtension[ext]; ok {
		return label
	}
	return c.fallback
}

// Default returns the fallback category label.
func (c *Categorizer) Default() string {
	return c.fallback
}

// Labels returns every category label, sorted, fallback included.
func (c *Categorizer) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Extensions returns the sorted extensions claimed by label.
func (c *Categorizer) Extensions(label string) []string {
	var out []string
	for ext, owner := range c.byExtension {
		if owner == label {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}

// Extension returns the lower-cased last dot segment of the base name.
// Names without a dot and dot-files such as ".bashrc" have no extension.
func Extension(fileName string) string {
	base := filepath.Base(fileName)
	idx := strings.LastIndexByte(base, '.')
	if idx <= 0 || idx == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[idx+1:])
}

// NormalizeExtension lower-cases raw and strips surrounding space and a leading dot.
func NormalizeExtension(raw string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "."))
}

func validateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("category label must not be empty")
	}
	if label == "." || label == ".." || strings.ContainsAny(label, `/\`) {
		return fmt.Errorf("category label %q is not a valid directory name", label)
	}
	return nil
}
