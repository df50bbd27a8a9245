// Package manifest reads a multi-module Go workspace: the go.work file
// listing member modules, each member's go.mod, and the declared
// version each member carries in a sibling VERSION file.
//
// It is the Go-native analogue of the Cargo manifest reader described
// by the workspace model: Package records consume its output but never
// parse go.mod/go.work themselves.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// DepKind approximates Cargo's normal/development/build dependency
// taxonomy for a Go module. Go has no first-class equivalent, so this
// engine classifies a dependency by a marker comment on its require
// line; see ClassifyKind.
type DepKind int

const (
	// DepKindNormal is a require line with no kind marker comment.
	DepKindNormal DepKind = iota
	// DepKindDevelopment is a require line marked "// tools" or
	// "// tool".
	DepKindDevelopment
	// DepKindBuild is a require line marked "// test" or "// tests".
	DepKindBuild
)

func (k DepKind) String() string {
	switch k {
	case DepKindNormal:
		return "normal"
	case DepKindDevelopment:
		return "development"
	case DepKindBuild:
		return "build"
	default:
		return "unknown"
	}
}

// DepSource classifies where a dependency's code comes from.
type DepSource int

const (
	// SourceRegistry is an ordinary module-proxy-resolved dependency.
	SourceRegistry DepSource = iota
	// SourcePath is a dependency resolved to a local filesystem path,
	// either because it is another workspace member or because of an
	// explicit replace directive pointing outside the workspace.
	SourcePath
	// SourceOther stands for a non-path, non-registry source. Load
	// never assigns it: every require that is not path-sourced,
	// including one pinned to a pseudo-version, is SourceRegistry.
	SourceOther
)

// Dependency is one declared dependency edge from a member's go.mod.
type Dependency struct {
	TargetName string
	Kind       DepKind
	Optional   bool
	Source     DepSource
	// LocalPath is set when Source is SourcePath: the member's
	// directory for a workspace member, or the replace directive's
	// target path exactly as written in go.mod (possibly relative to
	// the requiring member). Empty otherwise.
	LocalPath string
}

// Member is one workspace module as declared by go.work and its own
// go.mod, with its version read from its VERSION file.
type Member struct {
	Name         string
	Version      string
	RootPath     string
	Dependencies []Dependency
}

// Workspace is the parsed set of modules a go.work file names.
type Workspace struct {
	RootPath string
	Members  []Member
}

// ErrNoWorkFile is returned when the workspace root has no go.work.
var ErrNoWorkFile = fmt.Errorf("no go.work file found")

// Load parses {root}/go.work and every member's go.mod, returning a
// Workspace describing each member and its dependency edges.
//
// Dependency classification runs in two passes: the first pass reads
// every member's go.mod into a lookup table keyed by module path, the
// second pass walks each member's require/replace directives against
// that table so that local-path detection does not depend on member
// enumeration order within go.work.
func Load(root string) (*Workspace, error) {
	workPath := filepath.Join(root, "go.work")
	data, err := os.ReadFile(workPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoWorkFile
		}
		return nil, fmt.Errorf("reading %s: %w", workPath, err)
	}

	wf, err := modfile.ParseWork(workPath, data, nil)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", workPath, err)
	}

	type parsedMember struct {
		dir     string
		modPath string
		mf      *modfile.File
	}

	var parsed []parsedMember
	byModulePath := make(map[string]string) // module path -> root dir

	for _, use := range wf.Use {
		dir := use.Path
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		goModPath := filepath.Join(dir, "go.mod")
		modData, err := os.ReadFile(goModPath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", goModPath, err)
		}
		mf, err := modfile.Parse(goModPath, modData, nil)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", goModPath, err)
		}
		if mf.Module == nil {
			return nil, fmt.Errorf("%s: missing module directive", goModPath)
		}

		modulePath := mf.Module.Mod.Path
		parsed = append(parsed, parsedMember{dir: dir, modPath: modulePath, mf: mf})
		byModulePath[modulePath] = dir
	}

	members := make([]Member, 0, len(parsed))
	for _, pm := range parsed {
		version, err := readVersionFile(pm.dir)
		if err != nil {
			return nil, err
		}

		deps, err := buildDependencies(pm.mf, byModulePath)
		if err != nil {
			return nil, err
		}

		members = append(members, Member{
			Name:         pm.modPath,
			Version:      version,
			RootPath:     pm.dir,
			Dependencies: deps,
		})
	}

	return &Workspace{RootPath: root, Members: members}, nil
}

// readVersionFile reads a single-line semver string from {dir}/VERSION.
func readVersionFile(dir string) (string, error) {
	path := filepath.Join(dir, "VERSION")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// buildDependencies walks a parsed go.mod's require and replace
// directives, classifying each as path- or registry-sourced.
func buildDependencies(mf *modfile.File, byModulePath map[string]string) ([]Dependency, error) {
	replaced := make(map[string]string) // module path -> local dir, from explicit replace
	for _, r := range mf.Replace {
		if r.New.Version != "" {
			// replace targets a version, not a local path; skip.
			continue
		}
		dir := r.New.Path
		if dir == "" {
			continue
		}
		replaced[r.Old.Path] = dir
	}

	deps := make([]Dependency, 0, len(mf.Require))
	for _, req := range mf.Require {
		name := req.Mod.Path

		if memberDir, ok := byModulePath[name]; ok {
			deps = append(deps, Dependency{
				TargetName: name,
				Kind:       ClassifyKind(req),
				Optional:   ClassifyOptional(req),
				Source:     SourcePath,
				LocalPath:  memberDir,
			})
			continue
		}

		if localDir, ok := replaced[name]; ok {
			deps = append(deps, Dependency{
				TargetName: name,
				Kind:       ClassifyKind(req),
				Optional:   ClassifyOptional(req),
				Source:     SourcePath,
				LocalPath:  localDir,
			})
			continue
		}

		deps = append(deps, Dependency{
			TargetName: name,
			Kind:       ClassifyKind(req),
			Optional:   ClassifyOptional(req),
			Source:     SourceRegistry,
		})
	}

	return deps, nil
}

// ClassifyKind maps a require directive to a DepKind. go.mod has no
// dependency-kind taxonomy, so this is a deliberate, documented
// heuristic: it reads the suffix comments on the require line itself
// for a recognized marker ("// tools" or "// tool" for
// DepKindDevelopment, "// test" or "// tests" for DepKindBuild) that
// a maintainer can add to mark its purpose. Absent a marker, the
// dependency is DepKindNormal.
func ClassifyKind(req *modfile.Require) DepKind {
	if req.Syntax == nil {
		return DepKindNormal
	}
	for _, c := range req.Syntax.Comments.Suffix {
		text := strings.TrimSpace(strings.TrimPrefix(c.Token, "//"))
		switch strings.ToLower(text) {
		case "tools", "tool":
			return DepKindDevelopment
		case "test", "tests":
			return DepKindBuild
		}
	}
	return DepKindNormal
}

// ClassifyOptional reports whether a require directive is marked
// optional. go.mod has no native optional-dependency field the way
// Cargo.toml does, so this engine reuses the same marker-comment
// mechanism ClassifyKind does: a maintainer marks a require line
// "// optional" to record that a package's absence from the build
// should not block release selection.
func ClassifyOptional(req *modfile.Require) bool {
	if req.Syntax == nil {
		return false
	}
	for _, c := range req.Syntax.Comments.Suffix {
		text := strings.TrimSpace(strings.TrimPrefix(c.Token, "//"))
		if strings.EqualFold(text, "optional") {
			return true
		}
	}
	return false
}
