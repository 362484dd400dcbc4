package commands

import (
	"github.com/spf13/cobra"

	"github.com/willibrandon/gomigrator/cmd/gomigrator/cli"
	"github.com/willibrandon/gomigrator/cmd/gomigrator/output"
)

// NewVersionCommand creates the version command
func NewVersionCommand(console *output.Console) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  `Display detailed version information including commit, build date, builder and Go version.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			console.Println(cli.GetFullVersion())
			return nil
		},
	}
}
