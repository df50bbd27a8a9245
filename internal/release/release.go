// Package release implements the top-level release-selection query:
// given a loaded workspace, decide the ordered set of packages to
// release, failing loudly if any selected package remains blocked.
package release

import (
	"github.com/tidenhill/relsel/internal/logger"
	"github.com/tidenhill/relsel/internal/relerr"
	"github.com/tidenhill/relsel/internal/state"
	"github.com/tidenhill/relsel/internal/workspace"
)

// Select returns the ordered subset of ws's members that belong in the
// release. If any package is Selected but not Allowed, it returns a
// *relerr.BlockedReleaseError carrying a rendered report of every
// member's state instead of a partial selection: a release tool must
// not silently skip a package its own selection criteria asked for.
func Select(ws *workspace.Workspace) ([]state.NamedState, error) {
	all, err := ws.MembersStates()
	if err != nil {
		return nil, err
	}

	report := state.Report(all, "RELEASE SELECTION", logger.ReportWidth(), true, true, true)
	logger.Default().Tracef("%s", report)

	var blockedRequired []string
	var selected []state.NamedState
	for _, ns := range all {
		if ns.State.Selected() && !ns.State.Allowed() {
			blockedRequired = append(blockedRequired, ns.Name)
			continue
		}
		if ns.State.ReleaseSelection() {
			selected = append(selected, ns)
		}
	}

	if len(blockedRequired) > 0 {
		return nil, relerr.NewBlockedReleaseError(blockedRequired, report)
	}

	return selected, nil
}
