package organizer_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"sortbot/internal/categorize"
	"sortbot/internal/config"
	"sortbot/internal/faults"
	"sortbot/internal/mover"
	"sortbot/internal/organizer"
	"sortbot/internal/report"
	"sortbot/internal/testsupport"
)

var december = time.Date(2025, time.December, 14, 12, 0, 0, 0, time.Local)

func newOrganizer(t *testing.T, root string, sink report.Sink) *organizer.Organizer {
	t.Helper()
	org, err := organizer.New(organizer.Options{
		Root:    root,
		Mover:   mover.New(mover.Options{MaxRetries: 3, InitialBackoff: time.Millisecond, Sleep: testsupport.InstantSleep}),
		Sink:    sink,
		Ignore:  config.DefaultIgnore(),
		Workers: 4,
	})
	if err != nil {
		t.Fatalf("organizer.New: %v", err)
	}
	return org
}

func TestOrganizeOneMovesIntoCategoryYearMonth(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "report.pdf")
	testsupport.WriteFile(t, src, "quarterly", december)

	var rec report.Recorder
	result := newOrganizer(t, root, &rec).OrganizeOne(context.Background(), src)

	want := filepath.Join(root, "Documents", "2025", "Dec", "report.pdf")
	if result.Outcome.Status != mover.StatusMoved || result.Outcome.Path != want {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Category != categorize.Documents {
		t.Fatalf("expected Documents, got %q", result.Category)
	}
	testsupport.AssertMissing(t, src)
	if testsupport.ReadFile(t, want) != "quarterly" {
		t.Fatal("content changed")
	}

	events := rec.Events()
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].Level != report.LevelInfo || events[0].DestinationPath != want || events[0].Status != "moved" {
		t.Fatalf("unexpected event %+v", events[0])
	}
}

func TestOrganizeOneRenamesOnCollision(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "Pictures", "2025", "Dec", "photo.jpg")
	testsupport.WriteFile(t, existing, "first", december)
	src := filepath.Join(root, "photo.jpg")
	testsupport.WriteFile(t, src, "second", december)

	var rec report.Recorder
	result := newOrganizer(t, root, &rec).OrganizeOne(context.Background(), src)

	want := filepath.Join(root, "Pictures", "2025", "Dec", "photo(1).jpg")
	if result.Outcome.Path != want {
		t.Fatalf("expected %s, got %+v", want, result.Outcome)
	}
	if testsupport.ReadFile(t, existing) != "first" || testsupport.ReadFile(t, want) != "second" {
		t.Fatal("collision handling modified existing data")
	}
}

func TestOrganizeOneUsesDefaultCategory(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"Makefile", "data.xyz"} {
		src := filepath.Join(root, name)
		testsupport.WriteFile(t, src, name, december)
		result := newOrganizer(t, root, &report.Recorder{}).OrganizeOne(context.Background(), src)
		if result.Category != categorize.Others {
			t.Fatalf("%s: expected Others, got %q", name, result.Category)
		}
		if want := filepath.Join(root, "Others", "2025", "Dec", name); result.Outcome.Path != want {
			t.Fatalf("%s: expected %s, got %s", name, want, result.Outcome.Path)
		}
	}
}

func TestOrganizeOneSkips(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, ".env"), "secret", time.Time{})
	testsupport.WriteFile(t, filepath.Join(root, "movie.mkv.part"), "partial", time.Time{})
	testsupport.WriteFile(t, filepath.Join(root, "~$budget.xlsx"), "lock", time.Time{})
	testsupport.WriteFile(t, filepath.Join(root, "setup.tmp"), "tmp", time.Time{})
	if err := os.Mkdir(filepath.Join(root, "folder"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	target := filepath.Join(t.TempDir(), "target.pdf")
	testsupport.WriteFile(t, target, "x", time.Time{})
	if err := os.Symlink(target, filepath.Join(root, "link.pdf")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	cases := map[string]string{
		".env":           organizer.ReasonHidden,
		"movie.mkv.part": organizer.ReasonIgnored,
		"~$budget.xlsx":  organizer.ReasonIgnored,
		"setup.tmp":      organizer.ReasonIgnored,
		"folder":         organizer.ReasonDirectory,
		"link.pdf":       organizer.ReasonSymlink,
	}
	org := newOrganizer(t, root, &report.Recorder{})
	for name, reason := range cases {
		path := filepath.Join(root, name)
		result := org.OrganizeOne(context.Background(), path)
		if result.Outcome.Status != mover.StatusSkipped || result.Outcome.Reason != reason {
			t.Errorf("%s: expected skip %q, got %+v", name, reason, result.Outcome)
		}
		if _, err := os.Lstat(path); err != nil {
			t.Errorf("%s: skipped entry must stay in place: %v", name, err)
		}
	}
}

func TestOrganizeOneVanishedSource(t *testing.T) {
	root := t.TempDir()
	var rec report.Recorder
	result := newOrganizer(t, root, &rec).OrganizeOne(context.Background(), filepath.Join(root, "ghost.pdf"))
	if result.Outcome.Status != mover.StatusSkipped || result.Outcome.Kind != mover.KindVanished {
		t.Fatalf("expected vanished skip, got %+v", result.Outcome)
	}
	events := rec.Events()
	if len(events) != 1 || events[0].ErrorKind != "vanished" || events[0].Level != report.LevelInfo {
		t.Fatalf("expected one vanished event at info, got %+v", events)
	}
}

func TestOrganizeOneCategoryPathBlockedByFile(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "Documents"), "not a directory", time.Time{})
	src := filepath.Join(root, "notes.txt")
	testsupport.WriteFile(t, src, "n", december)

	var rec report.Recorder
	result := newOrganizer(t, root, &rec).OrganizeOne(context.Background(), src)
	if result.Outcome.Status != mover.StatusFailed || result.Outcome.Kind != mover.KindPathInvalid {
		t.Fatalf("expected path_invalid failure, got %+v", result.Outcome)
	}
	if testsupport.ReadFile(t, src) != "n" {
		t.Fatal("source must be untouched")
	}
	if events := rec.Events(); len(events) != 1 || events[0].Level != report.LevelError {
		t.Fatalf("expected one error event, got %+v", events)
	}
}

func TestOrganizeOneConcurrentSameNameGetsDistinctNames(t *testing.T) {
	root := t.TempDir()
	staging := t.TempDir()
	const n = 8
	sources := make([]string, n)
	for i := range sources {
		sources[i] = filepath.Join(staging, fmt.Sprintf("batch%d", i), "photo.jpg")
		testsupport.WriteFile(t, sources[i], fmt.Sprintf("copy-%d", i), december)
	}

	org := newOrganizer(t, root, &report.Recorder{})
	var wg sync.WaitGroup
	paths := make([]string, n)
	for i, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := org.OrganizeOne(context.Background(), src)
			if result.Outcome.Status != mover.StatusMoved {
				t.Errorf("%s: %+v", src, result.Outcome)
			}
			paths[i] = filepath.Base(result.Outcome.Path)
		}()
	}
	wg.Wait()

	sort.Strings(paths)
	want := []string{"photo(1).jpg", "photo(2).jpg", "photo(3).jpg", "photo(4).jpg", "photo(5).jpg", "photo(6).jpg", "photo(7).jpg", "photo.jpg"}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("unexpected names %v", paths)
		}
	}
}

func TestOrganizeAllReportsInListingOrder(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "b.mp3"), "b", december)
	testsupport.WriteFile(t, filepath.Join(root, "a.zip"), "a", december)
	testsupport.WriteFile(t, filepath.Join(root, "c.download"), "c", december)
	testsupport.WriteFile(t, filepath.Join(root, "Pictures", "2024", "Jan", "old.png"), "old", time.Time{})

	var rec report.Recorder
	summary, err := newOrganizer(t, root, &rec).OrganizeAll(context.Background())
	if err != nil {
		t.Fatalf("OrganizeAll: %v", err)
	}
	if summary.Moved != 2 {
		t.Fatalf("expected 2 moved, got %d", summary.Moved)
	}

	var names []string
	for _, r := range summary.Results {
		names = append(names, filepath.Base(r.SourcePath))
	}
	wantOrder := []string{"Pictures", "a.zip", "b.mp3", "c.download"}
	if fmt.Sprint(names) != fmt.Sprint(wantOrder) {
		t.Fatalf("unexpected order %v", names)
	}
	moved, skipped, failed := summary.Counts()
	if moved != 2 || skipped != 2 || failed != 0 {
		t.Fatalf("unexpected counts %d/%d/%d", moved, skipped, failed)
	}
	if _, err := os.Stat(filepath.Join(root, "Archives", "2025", "Dec", "a.zip")); err != nil {
		t.Fatalf("expected archive moved: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "Pictures", "2024", "Jan", "old.png")); err != nil {
		t.Fatalf("category tree must not be reorganized: %v", err)
	}
	if len(rec.Events()) != 4 {
		t.Fatalf("expected an event per entry, got %d", len(rec.Events()))
	}
}

func TestOrganizeAllMissingRoot(t *testing.T) {
	org := newOrganizer(t, filepath.Join(t.TempDir(), "missing"), &report.Recorder{})
	if _, err := org.OrganizeAll(context.Background()); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestOrganizeAllCancelled(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "a.txt"), "a", december)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := newOrganizer(t, root, &report.Recorder{}).OrganizeAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.Moved != 0 {
		t.Fatalf("expected nothing moved, got %d", summary.Moved)
	}
	if testsupport.ReadFile(t, filepath.Join(root, "a.txt")) != "a" {
		t.Fatal("file must stay in place")
	}
}

func TestSinkFailureDoesNotChangeOutcome(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "clip.mov")
	testsupport.WriteFile(t, src, "v", december)

	sink := report.SinkFunc(func(context.Context, report.Event) error { return errors.New("disk full") })
	result := newOrganizer(t, root, sink).OrganizeOne(context.Background(), src)
	if result.Outcome.Status != mover.StatusMoved {
		t.Fatalf("expected moved despite sink failure, got %+v", result.Outcome)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	if _, err := organizer.New(organizer.Options{}); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error for empty root, got %v", err)
	}
	_, err := organizer.New(organizer.Options{Root: t.TempDir(), Ignore: []string{"[oops"}})
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error for bad glob, got %v", err)
	}
}
