package changelog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeChangelog(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "CHANGELOG.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write CHANGELOG.md: %v", err)
	}
	return path
}

func TestOpenWithoutFrontMatter(t *testing.T) {
	path := writeChangelog(t, `# Changelog

## v1.2.0

- added widget support

## v1.1.0

- initial release
`)

	cl, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if cl.FrontMatter() != nil {
		t.Fatalf("expected nil front matter, got %+v", cl.FrontMatter())
	}

	changes, err := cl.Changes()
	if err != nil {
		t.Fatalf("Changes: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(changes))
	}
	if changes[0].Kind != ChangeRelease || changes[0].Version != "1.2.0" {
		t.Errorf("entry 0 = %+v, want release 1.2.0", changes[0])
	}
	if changes[1].Version != "1.1.0" {
		t.Errorf("entry 1 = %+v, want release 1.1.0", changes[1])
	}

	version, ok := cl.PreviousRelease()
	if !ok || version != "1.2.0" {
		t.Errorf("PreviousRelease() = (%q, %v), want (1.2.0, true)", version, ok)
	}
}

func TestOpenWithFrontMatter(t *testing.T) {
	path := writeChangelog(t, `---
unreleasable: true
---
# Changelog

## Unreleased

- work in progress

## v0.9.0

- prior release
`)

	cl, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	fm := cl.FrontMatter()
	if fm == nil {
		t.Fatal("expected front matter, got nil")
	}
	if !fm.Unreleasable {
		t.Error("expected Unreleasable = true")
	}

	changes, err := cl.Changes()
	if err != nil {
		t.Fatalf("Changes: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(changes))
	}
	if changes[0].Kind != ChangeOther {
		t.Errorf("entry 0 kind = %v, want ChangeOther", changes[0].Kind)
	}
	if changes[1].Kind != ChangeRelease || changes[1].Version != "0.9.0" {
		t.Errorf("entry 1 = %+v, want release 0.9.0", changes[1])
	}
}

func TestPreviousReleaseAbsent(t *testing.T) {
	path := writeChangelog(t, `# Changelog

## Unreleased

- nothing shipped yet
`)

	cl, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, ok := cl.PreviousRelease(); ok {
		t.Error("expected no previous release")
	}
}

func TestOpenMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "CHANGELOG.md")); err == nil {
		t.Fatal("expected an error for a missing changelog")
	}
}
