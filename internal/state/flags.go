// Package state implements the per-package state bitset used to decide
// whether a workspace member is changed, selected, blocked, or allowed
// to participate in a release.
package state

import (
	"fmt"
	"strings"
)

// Flag is a single fine-grained condition observed about a package
// during workspace load. Flags are disjoint bits so they can be
// combined, intersected, and masked with plain bitwise operators.
type Flag uint16

const (
	// Matched indicates the package name matches the selection filter.
	Matched Flag = 1 << iota
	// IsWorkspaceDependency indicates the package is transitively
	// depended on by some Matched package.
	IsWorkspaceDependency
	// HasPreviousRelease indicates a prior release tag exists for this
	// package.
	HasPreviousRelease
	// ChangedSincePreviousRelease indicates files under the package's
	// root differ between the previous release tag and HEAD.
	ChangedSincePreviousRelease
	// MissingChangelog indicates the package has no CHANGELOG.md.
	MissingChangelog
	// MissingReadme indicates the package has no README.md.
	MissingReadme
	// UnreleasableViaChangelogFrontmatter indicates the changelog front
	// matter marks this package unreleasable.
	UnreleasableViaChangelogFrontmatter
	// EnforcedVersionReqViolated indicates the current version fails a
	// required version constraint.
	EnforcedVersionReqViolated
	// DisallowedVersionReqViolated indicates the current version
	// matches a forbidden version constraint.
	DisallowedVersionReqViolated
)

// BlockingStates is the set of flags that, by default, disqualify a
// package from release unless forgiven by a criteria mask.
const BlockingStates = MissingChangelog |
	MissingReadme |
	UnreleasableViaChangelogFrontmatter |
	EnforcedVersionReqViolated |
	DisallowedVersionReqViolated

var flagNames = []struct {
	bit  Flag
	name string
}{
	{Matched, "Matched"},
	{IsWorkspaceDependency, "IsWorkspaceDependency"},
	{HasPreviousRelease, "HasPreviousRelease"},
	{ChangedSincePreviousRelease, "ChangedSincePreviousRelease"},
	{MissingChangelog, "MissingChangelog"},
	{MissingReadme, "MissingReadme"},
	{UnreleasableViaChangelogFrontmatter, "UnreleasableViaChangelogFrontmatter"},
	{EnforcedVersionReqViolated, "EnforcedVersionReqViolated"},
	{DisallowedVersionReqViolated, "DisallowedVersionReqViolated"},
}

// Names returns the flag names set in f, in declaration order.
func (f Flag) Names() []string {
	var names []string
	for _, entry := range flagNames {
		if f&entry.bit != 0 {
			names = append(names, entry.name)
		}
	}
	return names
}

// String renders f as a bracketed, comma-separated list of flag names.
func (f Flag) String() string {
	names := f.Names()
	if len(names) == 0 {
		return "[]"
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// Contains reports whether every bit set in other is also set in f.
func (f Flag) Contains(other Flag) bool {
	return f&other == other
}

// State is a package's release state: the primary flags observed
// during workspace load plus the forgiveness masks that apply when
// deriving Allowed.
//
// The meta-flags (Changed/Blocked/Selected/Allowed) are not stored;
// each is computed from the primary flags whenever it is queried, so
// callers never observe a stale value after a mutation.
type State struct {
	flags Flag

	allowedDependencyBlockers Flag
	allowedSelectionBlockers  Flag
}

// New builds a State from an initial flag set and the two forgiveness
// masks that apply to it.
func New(flags Flag, allowedDependencyBlockers, allowedSelectionBlockers Flag) State {
	return State{
		flags:                     flags,
		allowedDependencyBlockers: allowedDependencyBlockers,
		allowedSelectionBlockers:  allowedSelectionBlockers,
	}
}

// Insert sets flag on s.
func (s *State) Insert(flag Flag) {
	s.flags |= flag
}

// Merge ORs other's flags into s, preserving s's own forgiveness masks.
func (s *State) Merge(other State) {
	s.flags |= other.flags
}

// Flags returns the raw primary flag set.
func (s State) Flags() Flag {
	return s.flags
}

// IsMatched reports whether the Matched flag is set.
func (s State) IsMatched() bool {
	return s.flags&Matched != 0
}

// IsDependency reports whether the IsWorkspaceDependency flag is set.
func (s State) IsDependency() bool {
	return s.flags&IsWorkspaceDependency != 0
}

// Changed reports whether the package has unreleased work: either it
// has never been released, or files changed since its last release.
func (s State) Changed() bool {
	return s.flags&HasPreviousRelease == 0 || s.flags&ChangedSincePreviousRelease != 0
}

// Selected reports whether the package was explicitly matched or
// pulled in as a transitive dependency of a matched package.
func (s State) Selected() bool {
	return s.IsMatched() || s.IsDependency()
}

// BlockedBy returns the intersection of BlockingStates with the flags
// currently set on s.
func (s State) BlockedBy() Flag {
	return BlockingStates & s.flags
}

// Blocked reports whether any blocking flag is set, before forgiveness.
func (s State) Blocked() bool {
	return s.BlockedBy() != 0
}

// applicableForgivenessMask returns the forgiveness mask that applies
// to s given its role: the selection mask if matched, else the
// dependency mask if it is a dependency, else no mask (a package that
// is neither matched nor a dependency is irrelevant to the release).
func (s State) applicableForgivenessMask() Flag {
	switch {
	case s.IsMatched():
		return s.allowedSelectionBlockers
	case s.IsDependency():
		return s.allowedDependencyBlockers
	default:
		return 0
	}
}

// DisallowedBlockers returns BlockedBy() minus whatever the applicable
// forgiveness mask excuses.
func (s State) DisallowedBlockers() Flag {
	return s.BlockedBy() &^ s.applicableForgivenessMask()
}

// Allowed reports whether, after forgiveness, no blocking flag remains.
func (s State) Allowed() bool {
	return s.DisallowedBlockers() == 0
}

// ReleaseSelection reports whether the package belongs in the release:
// it must not be blocked, and must be either changed or selected.
func (s State) ReleaseSelection() bool {
	return !s.Blocked() && (s.Changed() || s.Selected())
}

// NamedState pairs a package name with its derived State, the unit the
// report renderers and the release selector operate over.
type NamedState struct {
	Name  string
	State State
}

// Report renders a human-readable, multi-line overview of states,
// separating entries with a rule sized to width columns (callers pass
// the terminal width so the report fits the window it is printed to,
// falling back to 80 when width is not positive).
func Report(states []NamedState, title string, width int, showBlocking, showFlags, showMeta bool) string {
	if width <= 0 {
		width = 80
	}
	var sb strings.Builder

	fmt.Fprintf(&sb, "\n%s\n%s\n", strings.Repeat("-", width), title)

	var shown []string
	if showBlocking {
		shown = append(shown, "Blocking")
	}
	if showFlags {
		shown = append(shown, "Flags")
	}
	if showMeta {
		shown = append(shown, "Meta")
	}
	if len(shown) > 0 {
		fmt.Fprintf(&sb, "Showing states: %s\n", strings.Join(shown, " "))
	}

	for _, ns := range states {
		fmt.Fprintf(&sb, "%s\n%-30s", strings.Repeat("-", width), ns.Name)
		if showBlocking {
			fmt.Fprintf(&sb, "%v\n%-30s", ns.State.BlockedBy().Names(), "")
		}
		if showFlags {
			fmt.Fprintf(&sb, "%v\n%-30s", ns.State.Flags().Names(), "")
		}
		if showMeta {
			fmt.Fprintf(&sb, "%v", metaNames(ns.State))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// metaNames renders the derived meta-flags (Changed/Blocked/Selected/
// Allowed) that currently hold for s, in a fixed, stable order.
func metaNames(s State) []string {
	var names []string
	if s.Changed() {
		names = append(names, "Changed")
	}
	if s.Blocked() {
		names = append(names, "Blocked")
	}
	if s.Selected() {
		names = append(names, "Selected")
	}
	if s.Allowed() {
		names = append(names, "Allowed")
	}
	return names
}
