// Package criteria holds the selection criteria a query against the
// workspace model runs under: which packages are "matched" by name,
// which version constraints every member must or must not satisfy,
// and which blocking conditions are forgiven for a selected package
// versus one pulled in only as a dependency.
package criteria

import (
	"fmt"
	"os"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/tidenhill/relsel/internal/manifest"
	"github.com/tidenhill/relsel/internal/state"
)

// Criteria is the full set of knobs a selection query runs under.
type Criteria struct {
	// SelectionFilter matches a member's module path to decide whether
	// it is explicitly "matched" for this query. A nil filter matches
	// every member.
	SelectionFilter *regexp.Regexp

	// EnforcedVersionReqs lists constraints every member's version
	// must satisfy; a violation sets EnforcedVersionReqViolated.
	EnforcedVersionReqs []*semver.Constraints

	// DisallowedVersionReqs lists constraints a member's version must
	// NOT satisfy; satisfying one sets DisallowedVersionReqViolated.
	DisallowedVersionReqs []*semver.Constraints

	// AllowedSelectionBlockers forgives these blocking flags for a
	// package that is itself matched by SelectionFilter.
	AllowedSelectionBlockers state.Flag

	// AllowedDependencyBlockers forgives these blocking flags for a
	// package pulled in only as a workspace dependency of a matched
	// package.
	AllowedDependencyBlockers state.Flag

	// ExcludeDepKinds omits dependency edges of these kinds when
	// walking a package's workspace dependency set.
	ExcludeDepKinds map[manifest.DepKind]struct{}

	// ExcludeOptionalDeps omits optional dependency edges when walking
	// a package's workspace dependency set.
	ExcludeOptionalDeps bool
}

// Default returns the criteria a bare invocation runs under: every
// member matched, no version constraints, no forgiveness, no
// dependency-edge exclusions.
func Default() *Criteria {
	return &Criteria{
		SelectionFilter:           nil,
		ExcludeDepKinds:           map[manifest.DepKind]struct{}{},
		AllowedSelectionBlockers:  0,
		AllowedDependencyBlockers: 0,
	}
}

// Matches reports whether name is matched by c's selection filter. A
// nil filter (the default) matches every name, mirroring a bare
// substring pattern of "".
func (c *Criteria) Matches(name string) bool {
	if c.SelectionFilter == nil {
		return true
	}
	return c.SelectionFilter.MatchString(name)
}

// ExcludesKind reports whether edges of the given dependency kind
// should be skipped while walking workspace dependencies.
func (c *Criteria) ExcludesKind(k manifest.DepKind) bool {
	if c.ExcludeDepKinds == nil {
		return false
	}
	_, excluded := c.ExcludeDepKinds[k]
	return excluded
}

// fileFormat is the on-disk YAML shape for a criteria file. Version
// constraints are plain strings here and compiled to *semver.Constraints
// on load so that a malformed file is rejected at load time rather than
// at first use.
type fileFormat struct {
	SelectionFilter           string   `yaml:"selection_filter"`
	EnforcedVersionReqs       []string `yaml:"enforced_version_reqs"`
	DisallowedVersionReqs     []string `yaml:"disallowed_version_reqs"`
	AllowedSelectionBlockers  []string `yaml:"allowed_selection_blockers"`
	AllowedDependencyBlockers []string `yaml:"allowed_dependency_blockers"`
	ExcludeDepKinds           []string `yaml:"exclude_dep_kinds"`
	ExcludeOptionalDeps       bool     `yaml:"exclude_optional_deps"`
}

// Load reads criteria from a YAML file at path. A missing file is not
// an error: it yields Default() criteria, the same merge-over-defaults
// behavior this codebase uses for its other configuration file.
func Load(path string) (*Criteria, error) {
	c := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading criteria file %s: %w", path, err)
	}

	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parsing criteria file %s: %w", path, err)
	}

	if ff.SelectionFilter != "" {
		re, err := regexp.Compile(ff.SelectionFilter)
		if err != nil {
			return nil, fmt.Errorf("compiling selection_filter %q: %w", ff.SelectionFilter, err)
		}
		c.SelectionFilter = re
	}

	c.EnforcedVersionReqs, err = compileConstraints(ff.EnforcedVersionReqs)
	if err != nil {
		return nil, fmt.Errorf("enforced_version_reqs: %w", err)
	}

	c.DisallowedVersionReqs, err = compileConstraints(ff.DisallowedVersionReqs)
	if err != nil {
		return nil, fmt.Errorf("disallowed_version_reqs: %w", err)
	}

	c.AllowedSelectionBlockers, err = parseFlagNames(ff.AllowedSelectionBlockers)
	if err != nil {
		return nil, fmt.Errorf("allowed_selection_blockers: %w", err)
	}

	c.AllowedDependencyBlockers, err = parseFlagNames(ff.AllowedDependencyBlockers)
	if err != nil {
		return nil, fmt.Errorf("allowed_dependency_blockers: %w", err)
	}

	c.ExcludeDepKinds = map[manifest.DepKind]struct{}{}
	for _, name := range ff.ExcludeDepKinds {
		kind, err := parseDepKind(name)
		if err != nil {
			return nil, fmt.Errorf("exclude_dep_kinds: %w", err)
		}
		c.ExcludeDepKinds[kind] = struct{}{}
	}

	c.ExcludeOptionalDeps = ff.ExcludeOptionalDeps

	return c, nil
}

func compileConstraints(exprs []string) ([]*semver.Constraints, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	out := make([]*semver.Constraints, 0, len(exprs))
	for _, expr := range exprs {
		c, err := semver.NewConstraint(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid constraint %q: %w", expr, err)
		}
		out = append(out, c)
	}
	return out, nil
}

var flagsByName = map[string]state.Flag{
	"matched":                                state.Matched,
	"is_workspace_dependency":                state.IsWorkspaceDependency,
	"has_previous_release":                   state.HasPreviousRelease,
	"changed_since_previous_release":         state.ChangedSincePreviousRelease,
	"missing_changelog":                      state.MissingChangelog,
	"missing_readme":                         state.MissingReadme,
	"unreleasable_via_changelog_frontmatter": state.UnreleasableViaChangelogFrontmatter,
	"enforced_version_req_violated":           state.EnforcedVersionReqViolated,
	"disallowed_version_req_violated":         state.DisallowedVersionReqViolated,
}

func parseFlagNames(names []string) (state.Flag, error) {
	var f state.Flag
	for _, name := range names {
		flag, ok := flagsByName[name]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", name)
		}
		f |= flag
	}
	return f, nil
}

func parseDepKind(name string) (manifest.DepKind, error) {
	switch name {
	case "normal":
		return manifest.DepKindNormal, nil
	case "development":
		return manifest.DepKindDevelopment, nil
	case "build":
		return manifest.DepKindBuild, nil
	default:
		return 0, fmt.Errorf("unknown dependency kind %q", name)
	}
}
