package vcs

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/tidenhill/relsel/internal/relerr"
)

// requireGit skips a test if no git binary is on PATH. These tests
// exercise real git against a freshly initialized repo under
// t.TempDir() rather than faking the binary, so they stay honest about
// actual git behavior (diff ranges, exit codes, unknown refs).
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
}

func initRepo(t *testing.T, dir string) *Repository {
	t.Helper()
	r := Open(dir)
	mustRun(t, r, "init", "-q")
	mustRun(t, r, "config", "user.email", "test@example.com")
	mustRun(t, r, "config", "user.name", "Test")
	return r
}

func mustRun(t *testing.T, r *Repository, args ...string) {
	t.Helper()
	if _, err := r.run(args...); err != nil {
		t.Fatalf("git %v: %v", args, err)
	}
}

func writeAndCommit(t *testing.T, dir, name, content, message string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	r := Open(dir)
	mustRun(t, r, "add", "-A")
	mustRun(t, r, "commit", "-q", "-m", message)
}

func TestChangedFilesBetweenCommits(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)

	writeAndCommit(t, dir, "a.txt", "one", "first")
	firstRev := headRev(t, dir)

	writeAndCommit(t, dir, "b.txt", "two", "second")
	secondRev := headRev(t, dir)

	files, err := ChangedFiles(dir, firstRev, secondRev)
	if err != nil {
		t.Fatalf("ChangedFiles: %v", err)
	}
	want := filepath.Join(dir, "b.txt")
	if len(files) != 1 || files[0] != want {
		t.Fatalf("files = %v, want [%s]", files, want)
	}
}

func TestChangedFilesNoDiff(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)
	writeAndCommit(t, dir, "a.txt", "one", "first")
	rev := headRev(t, dir)

	files, err := ChangedFiles(dir, rev, rev)
	if err != nil {
		t.Fatalf("ChangedFiles: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("files = %v, want none", files)
	}
}

func TestChangedFilesRestrictedByPathspec(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	r := initRepo(t, dir)

	if err := os.MkdirAll(filepath.Join(dir, "pkg-a"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "pkg-b"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeAndCommit(t, dir, "pkg-a/f.go", "package a", "init a")
	firstRev := headRev(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "pkg-b", "f.go"), []byte("package b"), 0o644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, r, "add", "-A")
	mustRun(t, r, "commit", "-q", "-m", "change b")
	secondRev := headRev(t, dir)

	changedA, err := r.diffNames(firstRev+".."+secondRev, "pkg-a")
	if err != nil {
		t.Fatalf("diffNames(pkg-a): %v", err)
	}
	if len(changedA) != 0 {
		t.Errorf("pkg-a should not have changed, got %v", changedA)
	}

	changedB, err := r.diffNames(firstRev+".."+secondRev, "pkg-b")
	if err != nil {
		t.Fatalf("diffNames(pkg-b): %v", err)
	}
	if len(changedB) != 1 || changedB[0] != filepath.Join(dir, "pkg-b", "f.go") {
		t.Errorf("pkg-b changed files = %v, want [%s]", changedB, filepath.Join(dir, "pkg-b", "f.go"))
	}
}

func TestChangedFilesInvalidRevisionIsVersionControlError(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)
	writeAndCommit(t, dir, "a.txt", "one", "first")

	_, err := ChangedFiles(dir, "not-a-real-rev", "HEAD")
	if err == nil {
		t.Fatal("expected an error for an unresolvable revision")
	}
	var vcErr *relerr.VersionControlError
	if !errors.As(err, &vcErr) {
		t.Fatalf("expected *relerr.VersionControlError, got %T: %v", err, err)
	}
}

func TestHeadBranchDetachedIsErrMissingBranch(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	r := initRepo(t, dir)
	writeAndCommit(t, dir, "a.txt", "one", "first")
	rev := headRev(t, dir)
	mustRun(t, r, "checkout", "-q", rev)

	_, err := r.HeadBranch()
	if !errors.Is(err, relerr.ErrMissingBranch) {
		t.Fatalf("expected relerr.ErrMissingBranch, got %v", err)
	}
}

func TestResolveRefMissingIsErrMissingReference(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	r := initRepo(t, dir)
	writeAndCommit(t, dir, "a.txt", "one", "first")

	_, err := r.ResolveRef("refs/heads/does-not-exist")
	if !errors.Is(err, relerr.ErrMissingReference) {
		t.Fatalf("expected relerr.ErrMissingReference, got %v", err)
	}
}

func TestLookupTagMissing(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	initRepo(t, dir)
	writeAndCommit(t, dir, "a.txt", "one", "first")

	r := Open(dir)
	_, found, err := r.LookupTag("v9.9.9")
	if err != nil {
		t.Fatalf("LookupTag: %v", err)
	}
	if found {
		t.Error("expected tag not to be found")
	}
}

func TestTagAndLookup(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	r := initRepo(t, dir)
	writeAndCommit(t, dir, "a.txt", "one", "first")

	if err := r.Tag("v1.0.0", "release v1.0.0"); err != nil {
		t.Fatalf("Tag: %v", err)
	}

	commit, found, err := r.LookupTag("v1.0.0")
	if err != nil {
		t.Fatalf("LookupTag: %v", err)
	}
	if !found || commit == "" {
		t.Fatalf("LookupTag = (%q, %v), want a resolved commit", commit, found)
	}
}

func headRev(t *testing.T, dir string) string {
	t.Helper()
	r := Open(dir)
	out, err := r.run("rev-parse", "HEAD")
	if err != nil {
		t.Fatalf("rev-parse HEAD: %v", err)
	}
	return trimNewline(out)
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
