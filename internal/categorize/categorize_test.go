package categorize_test

import (
	"errors"
	"testing"

	"sortbot/internal/categorize"
	"sortbot/internal/faults"
)

func TestCategoryRecognizedExtensions(t *testing.T) {
	c := categorize.MustDefault()
	for label, exts := range categorize.DefaultRules() {
		for _, ext := range exts {
			for _, name := range []string{"file." + ext, "FILE." + upper(ext), "my.file." + ext} {
				if got := c.Category(name); got != label {
					t.Fatalf("Category(%q) = %q, want %q", name, got, label)
				}
			}
		}
	}
}

func TestCategoryFallsBackToDefault(t *testing.T) {
	c := categorize.MustDefault()
	cases := []string{"README", "archive.unknown", ".bashrc", "trailing.", "", "noext/"}
	for _, name := range cases {
		if got := c.Category(name); got != categorize.Others {
			t.Fatalf("Category(%q) = %q, want %q", name, got, categorize.Others)
		}
	}
}

func TestCategoryUsesLastSegment(t *testing.T) {
	c := categorize.MustDefault()
	if got := c.Category("backup.tar.gz"); got != categorize.Archives {
		t.Fatalf("expected archives, got %q", got)
	}
	if got := c.Category("report.pdf.exe"); got != categorize.Others {
		t.Fatalf("expected others, got %q", got)
	}
}

func TestNewRejectsDuplicateExtension(t *testing.T) {
	rules := categorize.Rules{
		"Pictures": {"jpg"},
		"Scans":    {".JPG"},
	}
	_, err := categorize.New(rules, "Others")
	if err == nil {
		t.Fatal("expected duplicate extension error")
	}
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestNewRejectsInvalidLabels(t *testing.T) {
	if _, err := categorize.New(categorize.Rules{"a/b": {"x"}}, "Others"); err == nil {
		t.Fatal("expected error for label containing separator")
	}
	if _, err := categorize.New(categorize.DefaultRules(), " "); err == nil {
		t.Fatal("expected error for blank fallback")
	}
	if _, err := categorize.New(categorize.Rules{"Docs": {" "}}, "Others"); err == nil {
		t.Fatal("expected error for empty extension")
	}
}

func TestCustomRules(t *testing.T) {
	c, err := categorize.New(categorize.Rules{"Ebooks": {".EPUB", "mobi"}}, "Misc")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Category("novel.epub"); got != "Ebooks" {
		t.Fatalf("expected Ebooks, got %q", got)
	}
	if got := c.Category("photo.jpg"); got != "Misc" {
		t.Fatalf("expected Misc fallback, got %q", got)
	}
	labels := c.Labels()
	if len(labels) != 2 || labels[0] != "Ebooks" || labels[1] != "Misc" {
		t.Fatalf("unexpected labels %v", labels)
	}
	exts := c.Extensions("Ebooks")
	if len(exts) != 2 || exts[0] != "epub" || exts[1] != "mobi" {
		t.Fatalf("unexpected extensions %v", exts)
	}
}

func upper(s string) string {
	out := []byte(s)
	for i, b := range out {
		if b >= 'a' && b <= 'z' {
			out[i] = b - 32
		}
	}
	return string(out)
}
