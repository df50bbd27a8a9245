// Package workspace implements the package record and workspace model:
// the in-memory view of a go.work multi-module workspace, its
// dependency graph, and the derived release state of each member.
package workspace

import (
	"github.com/Masterminds/semver/v3"

	"github.com/tidenhill/relsel/internal/changelog"
	"github.com/tidenhill/relsel/internal/manifest"
	"github.com/tidenhill/relsel/internal/relerr"
)

// Dependency is one resolved entry in a package's workspace dependency
// set: a path-sourced require/replace edge, traversed when it resolves
// to another workspace member and merely recorded when it doesn't.
type Dependency struct {
	Name     string
	Kind     manifest.DepKind
	Optional bool
	Path     string
	// Resolved is the dependency's own Package record, or nil when the
	// edge is path-sourced but points outside this workspace (not a
	// member named in go.work), in which case it is recorded but never
	// traversed.
	Resolved *Package
}

// Package is one go.work member module: its identity, version,
// changelog handle, and the lazily computed dependency sets a release
// query walks.
type Package struct {
	Name     string
	Version  *semver.Version
	RootPath string

	// Changelog is nil when {RootPath}/CHANGELOG.md does not exist;
	// callers treat that as the MissingChangelog condition.
	Changelog *changelog.Changelog

	ws       *Workspace
	rawDeps  []manifest.Dependency

	// dependencies and dependents are memoized the first time they are
	// computed; nil means "not yet computed", matching the nil-check
	// cache pattern used throughout this package (the Go analogue of a
	// lazily-initialized cell, since the engine runs single-threaded).
	dependencies []Dependency
	dependents   []Dependency
}

// DependenciesInWorkspace returns the package's full transitive
// workspace dependency set, in the order each dependency was first
// reached by a depth-first walk of require/replace edges. Registry
// dependencies (no local path) are never included; edges excluded by
// the workspace's criteria (dependency kind, optional-ness) are
// skipped entirely, including for traversal.
func (p *Package) DependenciesInWorkspace() ([]Dependency, error) {
	if p.dependencies != nil {
		return p.dependencies, nil
	}

	seen := map[string]bool{}
	onPath := map[string]bool{p.Name: true}
	var order []Dependency

	var visit func(pkg *Package) error
	visit = func(pkg *Package) error {
		for _, raw := range pkg.rawDeps {
			if raw.Source != manifest.SourcePath {
				continue
			}
			if p.ws.Criteria != nil {
				if p.ws.Criteria.ExcludesKind(raw.Kind) {
					continue
				}
				if p.ws.Criteria.ExcludeOptionalDeps && raw.Optional {
					continue
				}
			}

			target := p.ws.byName[raw.TargetName]

			if !seen[raw.TargetName] {
				seen[raw.TargetName] = true
				order = append(order, Dependency{
					Name:     raw.TargetName,
					Kind:     raw.Kind,
					Optional: raw.Optional,
					Path:     raw.LocalPath,
					Resolved: target,
				})
			}

			if target == nil {
				// Path-sourced but not a workspace member: preserve the
				// edge, never traverse it.
				continue
			}

			if onPath[raw.TargetName] {
				return relerr.NewCycleError(pkg.Name, raw.TargetName)
			}
			onPath[raw.TargetName] = true
			if err := visit(target); err != nil {
				return err
			}
			delete(onPath, raw.TargetName)
		}
		return nil
	}

	if err := visit(p); err != nil {
		return nil, err
	}

	p.dependencies = order
	if p.dependencies == nil {
		p.dependencies = []Dependency{}
	}
	return p.dependencies, nil
}

// DependentsInWorkspace returns every workspace member whose
// DependenciesInWorkspace transitively includes this package, computed
// once across all members and cached on the workspace.
func (p *Package) DependentsInWorkspace() ([]Dependency, error) {
	if err := p.ws.computeDependents(); err != nil {
		return nil, err
	}
	return p.dependents, nil
}
