// Package cmd wires the selection engine's cobra commands: select,
// state, and graph, each loading a workspace from --root under an
// optional --criteria file.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tidenhill/relsel/internal/criteria"
	"github.com/tidenhill/relsel/internal/logger"
	"github.com/tidenhill/relsel/internal/workspace"
)

// NewRootCommand builds the relsel root command with its subcommands
// attached.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "relsel",
		Short: "Decide which packages in a Go workspace are eligible for release",
		Long: "relsel inspects a go.work multi-module workspace and decides which\n" +
			"member packages are eligible for release, in what order, and why.",
		SilenceUsage: true,
	}

	root.AddCommand(newSelectCommand())
	root.AddCommand(newStateCommand())
	root.AddCommand(newGraphCommand())

	return root
}

// rootFlags are the --root/--criteria flags shared by every subcommand.
type rootFlags struct {
	root        string
	criteriaPath string
}

func addRootFlags(cmd *cobra.Command, f *rootFlags) {
	cmd.Flags().StringVar(&f.root, "root", ".", "path to the workspace root (directory containing go.work)")
	cmd.Flags().StringVar(&f.criteriaPath, "criteria", "", "path to a criteria YAML file (default: {root}/.relsel.yaml)")
}

func (f *rootFlags) criteriaFile() string {
	if f.criteriaPath != "" {
		return f.criteriaPath
	}
	return f.root + "/.relsel.yaml"
}

func loadWorkspace(f *rootFlags) (*workspace.Workspace, error) {
	c, err := criteria.Load(f.criteriaFile())
	if err != nil {
		return nil, fmt.Errorf("loading criteria: %w", err)
	}
	return workspace.NewWithCriteria(f.root, c)
}

func newSelectCommand() *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Print the ordered release selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, f)
		},
	}
	addRootFlags(cmd, f)
	return cmd
}

func newStateCommand() *cobra.Command {
	f := &rootFlags{}
	var verbose bool
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the full per-package state report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(cmd, f, verbose)
		},
	}
	addRootFlags(cmd, f)
	cmd.Flags().BoolVar(&verbose, "verbose", false, "also list every package's primary flags (blocking and meta-flag state are always shown)")
	return cmd
}

func newGraphCommand() *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the dependency-ordered member list, ignoring selection criteria",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, f)
		},
	}
	addRootFlags(cmd, f)
	return cmd
}

var log = logger.Default()
