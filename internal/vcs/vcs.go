// Package vcs shells out to git for the handful of operations the
// selection engine needs: diffing between two revisions, resolving
// tags, and creating the branches/commits/tags a release produces.
//
// Every operation runs git as a child process and interprets its exit
// code directly rather than linking a git implementation, the same
// approach this codebase uses elsewhere for invoking external tools.
package vcs

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/tidenhill/relsel/internal/relerr"
)

// Repository is a working tree git operates against.
type Repository struct {
	Dir string
}

// Open returns a Repository rooted at dir. It does not verify dir is a
// git working tree; the first command run against it will fail if not.
func Open(dir string) *Repository {
	return &Repository{Dir: dir}
}

func (r *Repository) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return "", &Error{Args: args, Stderr: strings.TrimSpace(stderr.String()), Cause: err}
	}
	return stdout.String(), nil
}

// Error wraps a failed git invocation with the command's arguments and
// stderr, so callers can report something more useful than "exit status 1".
type Error struct {
	Args   []string
	Stderr string
	Cause  error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), e.Stderr)
	}
	return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// HeadBranch returns the name of the branch HEAD points at. It fails
// with relerr.ErrMissingBranch when HEAD is detached: "rev-parse
// --abbrev-ref HEAD" succeeds and prints the literal string "HEAD" in
// that case rather than failing, so a caller asking for a branch name
// needs this checked explicitly.
func (r *Repository) HeadBranch() (string, error) {
	out, err := r.run("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	branch := strings.TrimSpace(out)
	if branch == "HEAD" {
		return "", fmt.Errorf("%w: HEAD is detached", relerr.ErrMissingBranch)
	}
	return branch, nil
}

// CreateBranch creates and checks out a new branch from the current HEAD.
func (r *Repository) CreateBranch(name string) error {
	_, err := r.run("checkout", "-b", name)
	return err
}

// Commit stages every pending change in the working tree and commits
// it with message.
func (r *Repository) Commit(message string) error {
	if _, err := r.run("add", "-A"); err != nil {
		return err
	}
	_, err := r.run("commit", "-m", message)
	return err
}

// Tag creates an annotated tag named name at HEAD.
func (r *Repository) Tag(name, message string) error {
	_, err := r.run("tag", "-a", name, "-m", message)
	return err
}

// LookupTag reports whether a tag with the given name exists, and if
// so, the commit it resolves to.
func (r *Repository) LookupTag(name string) (commit string, found bool, err error) {
	out, runErr := r.run("rev-list", "-n", "1", name)
	if runErr != nil {
		// git exits non-zero for an unknown ref; that is "not found",
		// not a failure this caller should propagate.
		return "", false, nil
	}
	return strings.TrimSpace(out), true, nil
}

// ResolveRef resolves a named revision to its commit hash, failing with
// relerr.ErrMissingReference when it does not exist.
func (r *Repository) ResolveRef(rev string) (string, error) {
	out, err := r.run("rev-parse", "--verify", rev)
	if err != nil {
		return "", fmt.Errorf("%w: %s", relerr.ErrMissingReference, rev)
	}
	return strings.TrimSpace(out), nil
}

// diffNames runs "git diff --exit-code --name-only" over rangeArg,
// optionally restricted to pathspec, and interprets the exit code the
// way git documents it for this flag combination: 0 means the trees are
// identical, 1 means they differ (and stdout lists which paths), and
// anything else is a real failure (bad revision, not a git repository,
// and so on) reported as a relerr.VersionControlError carrying the
// exit code. Returned paths are joined onto r.Dir to be absolute.
func (r *Repository) diffNames(rangeArg string, pathspec ...string) ([]string, error) {
	args := []string{"diff", "--exit-code", "--name-only", rangeArg}
	if len(pathspec) > 0 {
		args = append(args, "--")
		args = append(args, pathspec...)
	}

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	if err == nil {
		return nil, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		out := strings.TrimSpace(stdout.String())
		if out == "" {
			return nil, nil
		}
		names := strings.Split(out, "\n")
		abs := make([]string, len(names))
		for i, n := range names {
			abs[i] = filepath.Join(r.Dir, n)
		}
		return abs, nil
	}

	exitCode := -1
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return nil, relerr.NewVersionControlError(strings.Join(args, " "), exitCode, err)
}

// ChangedFiles returns the absolute paths that differ between fromRev
// and toRev. With an empty fromRev, git compares the working tree
// against toRev instead.
func ChangedFiles(dir, fromRev, toRev string) ([]string, error) {
	r := Open(dir)

	rangeArg := toRev
	if fromRev != "" {
		rangeArg = fromRev + ".." + toRev
	}
	return r.diffNames(rangeArg)
}
