package commands

import (
	"github.com/spf13/cobra"

	"github.com/willibrandon/gomigrator/cmd/gomigrator/config"
	"github.com/willibrandon/gomigrator/cmd/gomigrator/output"
)

// NewConfigCommand creates the config command, which prints the effective
// configuration after defaults are applied.
func NewConfigCommand(console *output.Console) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Loads the config file named by --config, or the first of
./gomigrator.yaml, ./.gomigrator.yaml, ./gomigrator.hcl and
~/.config/gomigrator/config.yaml, and prints it as YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, used, err := config.LoadOrDefault(path)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			if used == "" {
				console.Printf("# no config file found, showing defaults\n")
			} else {
				console.Printf("# %s\n", used)
			}
			console.Printf("%s", data)
			return nil
		},
	}
}
