package app

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/stonemap/cmd/stonemap/cmd/list"
	"github.com/agentstation/stonemap/cmd/stonemap/cmd/merge"
	"github.com/agentstation/stonemap/cmd/stonemap/cmd/serve"
	"github.com/agentstation/stonemap/cmd/stonemap/cmd/validate"
)

// CreateMergeCommand creates the merge command with app dependencies.
func (a *App) CreateMergeCommand() *cobra.Command {
	return merge.NewCommand(a)
}

// CreateListCommand creates the list command with app dependencies.
func (a *App) CreateListCommand() *cobra.Command {
	return list.NewCommand(a)
}

// CreateServeCommand creates the serve command with app dependencies.
func (a *App) CreateServeCommand() *cobra.Command {
	return serve.NewCommand(a)
}

// CreateValidateCommand creates the validate command with app dependencies.
func (a *App) CreateValidateCommand() *cobra.Command {
	return validate.NewCommand(a)
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		GroupID: "management",
		Short:   "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("stonemap %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
