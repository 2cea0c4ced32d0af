// Package cli defines the cvsearch command tree.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the cvsearch command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "cvsearch",
		Short:         "Search voice transcriptions indexed in Elasticsearch",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand())
	root.AddCommand(newIndexCommand())
	root.AddCommand(newUICommand())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
