// Package relerr defines the typed errors the selection engine returns,
// modeled on the task-executor's TaskError/ExecutionError pattern: a
// struct implementing Error() and Unwrap() so callers can check for a
// specific failure with errors.As instead of string matching.
package relerr

import (
	"errors"
	"fmt"
)

// ErrWorkspaceLoad is wrapped around any failure reading the workspace
// manifest, a member's version, or a member's changelog during load.
var ErrWorkspaceLoad = errors.New("workspace load failed")

// ErrMissingBranch is returned when HEAD does not point at a branch
// (a detached HEAD).
var ErrMissingBranch = errors.New("branch not found")

// ErrMissingReference is returned when a requested tag or revision does
// not resolve to a commit.
var ErrMissingReference = errors.New("reference not found")

// CycleError reports a dependency cycle discovered while walking a
// package's workspace dependency set or sorting members topologically.
type CycleError struct {
	From string
	To   string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s -> %s", e.From, e.To)
}

// NewCycleError builds a CycleError for the edge from -> to that closes
// a cycle.
func NewCycleError(from, to string) *CycleError {
	return &CycleError{From: from, To: to}
}

// BlockedReleaseError is returned when one or more packages are
// selected for release but remain blocked after forgiveness. It carries
// the rendered state report so the caller can show the operator why.
type BlockedReleaseError struct {
	Report string
	Names  []string
}

func (e *BlockedReleaseError) Error() string {
	return fmt.Sprintf("%d package(s) selected for release remain blocked: %v", len(e.Names), e.Names)
}

// NewBlockedReleaseError constructs a BlockedReleaseError for the given
// blocked package names and a pre-rendered report.
func NewBlockedReleaseError(names []string, report string) *BlockedReleaseError {
	return &BlockedReleaseError{Report: report, Names: names}
}

// VersionControlError wraps a failed git invocation with the exit code
// the process returned, when available.
type VersionControlError struct {
	Operation string
	ExitCode  int
	Err       error
}

func (e *VersionControlError) Error() string {
	return fmt.Sprintf("version control operation %q failed (exit %d): %v", e.Operation, e.ExitCode, e.Err)
}

func (e *VersionControlError) Unwrap() error {
	return e.Err
}

// NewVersionControlError builds a VersionControlError.
func NewVersionControlError(operation string, exitCode int, err error) *VersionControlError {
	return &VersionControlError{Operation: operation, ExitCode: exitCode, Err: err}
}
