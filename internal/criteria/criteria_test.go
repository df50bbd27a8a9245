package criteria

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tidenhill/relsel/internal/manifest"
	"github.com/tidenhill/relsel/internal/state"
)

func TestDefaultMatchesEverything(t *testing.T) {
	c := Default()
	if !c.Matches("example.com/anything") {
		t.Error("default criteria should match any name")
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "criteria.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !c.Matches("anything") {
		t.Error("missing criteria file should behave like Default()")
	}
}

func TestLoadParsesSelectionFilterAndMasks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "criteria.yaml")
	content := `
selection_filter: "^example.com/svc-"
enforced_version_reqs:
  - ">=1.0.0"
disallowed_version_reqs:
  - "<0.1.0"
allowed_selection_blockers:
  - missing_readme
allowed_dependency_blockers:
  - missing_changelog
  - missing_readme
exclude_dep_kinds:
  - build
exclude_optional_deps: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write criteria file: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !c.Matches("example.com/svc-foo") {
		t.Error("svc-foo should match selection filter")
	}
	if c.Matches("example.com/lib-bar") {
		t.Error("lib-bar should not match selection filter")
	}

	if len(c.EnforcedVersionReqs) != 1 {
		t.Fatalf("expected 1 enforced constraint, got %d", len(c.EnforcedVersionReqs))
	}
	if len(c.DisallowedVersionReqs) != 1 {
		t.Fatalf("expected 1 disallowed constraint, got %d", len(c.DisallowedVersionReqs))
	}

	if c.AllowedSelectionBlockers != state.MissingReadme {
		t.Errorf("allowed_selection_blockers = %v, want MissingReadme", c.AllowedSelectionBlockers)
	}
	want := state.MissingChangelog | state.MissingReadme
	if c.AllowedDependencyBlockers != want {
		t.Errorf("allowed_dependency_blockers = %v, want %v", c.AllowedDependencyBlockers, want)
	}

	if !c.ExcludesKind(manifest.DepKindBuild) {
		t.Error("expected build dep kind to be excluded")
	}
	if c.ExcludesKind(manifest.DepKindNormal) {
		t.Error("normal dep kind should not be excluded")
	}
	if !c.ExcludeOptionalDeps {
		t.Error("expected exclude_optional_deps = true")
	}
}

func TestLoadRejectsUnknownFlagName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "criteria.yaml")
	content := "allowed_selection_blockers:\n  - not_a_real_flag\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write criteria file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown flag name")
	}
}

func TestLoadRejectsInvalidConstraint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "criteria.yaml")
	content := "enforced_version_reqs:\n  - \"not a constraint\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write criteria file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an invalid constraint")
	}
}
