package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidenhill/relsel/internal/changelog"
	"github.com/tidenhill/relsel/internal/criteria"
	"github.com/tidenhill/relsel/internal/manifest"
	"github.com/tidenhill/relsel/internal/relerr"
	"github.com/tidenhill/relsel/internal/state"
	"github.com/tidenhill/relsel/internal/vcs"
)

// Workspace is the loaded, in-memory view of a go.work multi-module
// workspace: its members, their dependency graph, and the release
// state each member derives from its flags.
type Workspace struct {
	RootPath string
	Criteria *criteria.Criteria
	Repo     *vcs.Repository

	byName map[string]*Package
	names  []string // go.work declaration order

	// changelog is the workspace-root CHANGELOG.md handle. ResetState
	// deliberately does not clear this field: the source this engine
	// was built from never refreshes its changelog cache on reset
	// either, a quirk preserved here rather than silently fixed.
	changelog       *changelog.Changelog
	changelogLoaded bool

	membersUnsorted []*Package
	membersSorted   []*Package
	membersStates   []state.NamedState

	dependentsComputed bool
}

// New loads the workspace at root under the default selection criteria
// (every member matched, no constraints, no forgiveness).
func New(root string) (*Workspace, error) {
	return NewWithCriteria(root, criteria.Default())
}

// NewWithCriteria loads the workspace at root under the given
// criteria.
func NewWithCriteria(root string, c *criteria.Criteria) (*Workspace, error) {
	mws, err := manifest.Load(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", relerr.ErrWorkspaceLoad, err)
	}

	ws := &Workspace{
		RootPath: root,
		Criteria: c,
		Repo:     vcs.Open(root),
		byName:   make(map[string]*Package, len(mws.Members)),
		names:    make([]string, 0, len(mws.Members)),
	}

	for _, m := range mws.Members {
		pkg := &Package{
			RootPath: m.RootPath,
			Name:     m.Name,
			ws:       ws,
			rawDeps:  m.Dependencies,
		}
		if m.Version != "" {
			v, err := parseVersion(m.Version)
			if err != nil {
				return nil, fmt.Errorf("%w: member %s: %v", relerr.ErrWorkspaceLoad, m.Name, err)
			}
			pkg.Version = v
		}

		cl, err := loadMemberChangelog(m.RootPath)
		if err != nil {
			return nil, fmt.Errorf("%w: member %s: %v", relerr.ErrWorkspaceLoad, m.Name, err)
		}
		pkg.Changelog = cl

		ws.byName[m.Name] = pkg
		ws.names = append(ws.names, m.Name)
	}

	return ws, nil
}

func loadMemberChangelog(rootPath string) (*changelog.Changelog, error) {
	path := filepath.Join(rootPath, "CHANGELOG.md")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return changelog.Open(path)
}

// ResetState clears the cached unsorted/sorted member lists and the
// derived per-package states, forcing the next call to MembersUnsorted,
// Members, or MembersStates to recompute from scratch. It does not
// reload the workspace-root changelog or rebuild per-package
// dependency sets, a preserved quirk: a changed CHANGELOG.md between
// two ResetState calls within the same process is not picked up.
func (w *Workspace) ResetState() {
	w.membersUnsorted = nil
	w.membersSorted = nil
	w.membersStates = nil
}

// Changelog returns the workspace-root CHANGELOG.md handle, or nil if
// none exists. The result is cached for the lifetime of the Workspace.
func (w *Workspace) Changelog() (*changelog.Changelog, error) {
	if w.changelogLoaded {
		return w.changelog, nil
	}
	cl, err := loadMemberChangelog(w.RootPath)
	if err != nil {
		return nil, err
	}
	w.changelog = cl
	w.changelogLoaded = true
	return w.changelog, nil
}

// MembersUnsorted returns every workspace member in the order go.work
// declares them.
func (w *Workspace) MembersUnsorted() []*Package {
	if w.membersUnsorted != nil {
		return w.membersUnsorted
	}
	members := make([]*Package, 0, len(w.names))
	for _, name := range w.names {
		members = append(members, w.byName[name])
	}
	w.membersUnsorted = members
	return members
}

// Members returns every workspace member ordered so that a package
// never precedes one of its own workspace dependencies. Members are
// stably sorted by the size of their precomputed transitive dependency
// name set: a package's set strictly contains each dependency's set
// plus the dependency itself, so dependencies sort first. Members with
// equal set sizes keep their go.work order.
func (w *Workspace) Members() ([]*Package, error) {
	if w.membersSorted != nil {
		return w.membersSorted, nil
	}

	unsorted := w.MembersUnsorted()
	depNames := make(map[string]map[string]struct{}, len(unsorted))
	for _, pkg := range unsorted {
		deps, err := pkg.DependenciesInWorkspace()
		if err != nil {
			return nil, err
		}
		set := make(map[string]struct{}, len(deps))
		for _, d := range deps {
			set[d.Name] = struct{}{}
		}
		depNames[pkg.Name] = set
	}

	sorted := make([]*Package, len(unsorted))
	copy(sorted, unsorted)

	var sortErr error
	sort.SliceStable(sorted, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		a, b := sorted[i], sorted[j]
		_, bDependsOnA := depNames[b.Name][a.Name]
		_, aDependsOnB := depNames[a.Name][b.Name]
		if bDependsOnA && aDependsOnB {
			sortErr = relerr.NewCycleError(a.Name, b.Name)
			return false
		}
		return len(depNames[a.Name]) < len(depNames[b.Name])
	})
	if sortErr != nil {
		return nil, sortErr
	}

	w.membersSorted = sorted
	return sorted, nil
}

// computeDependents fills every package's dependents slice from the
// transitive dependency sets of all members, once per Workspace
// lifetime (or since the last ResetState, which does not clear this
// particular cache — see ResetState's doc comment).
func (w *Workspace) computeDependents() error {
	if w.dependentsComputed {
		return nil
	}
	for _, pkg := range w.MembersUnsorted() {
		deps, err := pkg.DependenciesInWorkspace()
		if err != nil {
			return err
		}
		for _, d := range deps {
			if d.Resolved == nil {
				continue
			}
			d.Resolved.dependents = append(d.Resolved.dependents, Dependency{
				Name:     pkg.Name,
				Kind:     d.Kind,
				Optional: d.Optional,
				Path:     pkg.RootPath,
				Resolved: pkg,
			})
		}
	}
	w.dependentsComputed = true
	return nil
}

// MembersStates computes the derived release State for every member,
// in the same dependency order as Members. Computation is six steps:
//
//  1. Mark every member matching the selection filter as Matched.
//  2. Propagate IsWorkspaceDependency to the transitive workspace
//     dependencies of every Matched package.
//  3. Check each member's version against the enforced/disallowed
//     version constraints.
//  4. Check for a README.md at the member's root.
//  5. Check for a CHANGELOG.md, its front matter, and (via the
//     version-control driver) whether the member has a previous
//     release tag and whether it has changed since.
//  6. Build each member's State with the workspace's forgiveness masks
//     applied.
func (w *Workspace) MembersStates() ([]state.NamedState, error) {
	if w.membersStates != nil {
		return w.membersStates, nil
	}

	members, err := w.Members()
	if err != nil {
		return nil, err
	}

	flags := make(map[string]state.Flag, len(members))
	for _, pkg := range members {
		var f state.Flag
		if w.Criteria.Matches(pkg.Name) {
			f |= state.Matched
		}
		flags[pkg.Name] = f
	}

	for _, pkg := range members {
		if flags[pkg.Name]&state.Matched == 0 {
			continue
		}
		deps, err := pkg.DependenciesInWorkspace()
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			if d.Resolved == nil {
				continue
			}
			flags[d.Name] |= state.IsWorkspaceDependency
		}
	}

	named := make([]state.NamedState, 0, len(members))
	for _, pkg := range members {
		f := flags[pkg.Name]

		if pkg.Version != nil {
			if versionViolatesEnforced(pkg.Version, w.Criteria.EnforcedVersionReqs) {
				f |= state.EnforcedVersionReqViolated
			}
			if versionViolatesDisallowed(pkg.Version, w.Criteria.DisallowedVersionReqs) {
				f |= state.DisallowedVersionReqViolated
			}
		}

		if _, err := os.Stat(filepath.Join(pkg.RootPath, "README.md")); err != nil {
			f |= state.MissingReadme
		}

		if pkg.Changelog == nil {
			f |= state.MissingChangelog
		} else {
			if fm := pkg.Changelog.FrontMatter(); fm != nil && fm.Unreleasable {
				f |= state.UnreleasableViaChangelogFrontmatter
			}

			if previous, ok := pkg.Changelog.PreviousRelease(); ok {
				tag := releaseTag(pkg.Name, previous)
				if commit, found, err := w.Repo.LookupTag(tag); err == nil && found {
					f |= state.HasPreviousRelease

					if _, err := w.Repo.ResolveRef("HEAD"); err != nil {
						return nil, err
					}
					changedFiles, err := vcs.ChangedFiles(w.RootPath, commit, "HEAD")
					if err != nil {
						return nil, err
					}
					if anyUnder(changedFiles, pkg.RootPath) {
						f |= state.ChangedSincePreviousRelease
					}
				}
			}
		}

		named = append(named, state.NamedState{
			Name: pkg.Name,
			State: state.New(f,
				w.Criteria.AllowedDependencyBlockers,
				w.Criteria.AllowedSelectionBlockers,
			),
		})
	}

	w.membersStates = named
	return named, nil
}

// ReleaseSelection returns the ordered subset of members that belong
// in the release: unblocked, and either changed or selected.
func (w *Workspace) ReleaseSelection() ([]state.NamedState, error) {
	all, err := w.MembersStates()
	if err != nil {
		return nil, err
	}
	var selected []state.NamedState
	for _, ns := range all {
		if ns.State.ReleaseSelection() {
			selected = append(selected, ns)
		}
	}
	return selected, nil
}

// releaseTag renders the git tag convention this engine looks up for a
// member's previous release: "{base}-v{version}", where base is the
// last element of the module path (example.com/a -> "a-v1.0.0"), the same
// per-package tag naming a multi-package monorepo release tool
// conventionally uses to disambiguate releases of different members
// cut from the same commit history.
func releaseTag(name, version string) string {
	return fmt.Sprintf("%s-v%s", filepath.Base(name), version)
}

// anyUnder reports whether any path in files falls under root.
func anyUnder(files []string, root string) bool {
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		if err != nil {
			continue
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return true
	}
	return false
}
