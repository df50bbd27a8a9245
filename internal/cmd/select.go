package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidenhill/relsel/internal/relerr"
	"github.com/tidenhill/relsel/internal/release"
)

func runSelect(cmd *cobra.Command, f *rootFlags) error {
	log.Debugf("loading workspace at %s", f.root)
	ws, err := loadWorkspace(f)
	if err != nil {
		return fmt.Errorf("loading workspace: %w", err)
	}

	selected, err := release.Select(ws)
	if err != nil {
		var blocked *relerr.BlockedReleaseError
		if errors.As(err, &blocked) {
			fmt.Fprintln(cmd.ErrOrStderr(), blocked.Report)
		}
		return err
	}

	for _, ns := range selected {
		fmt.Fprintln(cmd.OutOrStdout(), ns.Name)
	}
	return nil
}
