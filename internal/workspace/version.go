package workspace

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// parseVersion parses a VERSION file's contents as a semantic version,
// tolerating a leading "v" the way git tags conventionally carry one
// but a bare VERSION file usually doesn't.
func parseVersion(raw string) (*semver.Version, error) {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing version %q: %w", raw, err)
	}
	return v, nil
}

// versionViolatesEnforced reports whether v fails any of the required
// constraints, stopping at the first failure.
func versionViolatesEnforced(v *semver.Version, reqs []*semver.Constraints) bool {
	for _, req := range reqs {
		if !req.Check(v) {
			return true
		}
	}
	return false
}

// versionViolatesDisallowed reports whether v satisfies any of the
// forbidden constraints.
func versionViolatesDisallowed(v *semver.Version, reqs []*semver.Constraints) bool {
	for _, req := range reqs {
		if req.Check(v) {
			return true
		}
	}
	return false
}
