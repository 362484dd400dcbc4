package cli

import (
	"github.com/spf13/cobra"

	"github.com/willibrandon/gomigrator/cmd/gomigrator/output"
)

var rootCmd = &cobra.Command{
	Use:   "gomigrator",
	Short: "Migrate qmake projects to CMake",
	Long: `gomigrator converts a qmake project into a CMake project.

It reads the debug trace of a qmake run ("qmake -d -d ... 2> qmake.log"),
builds a model of the targets it describes, recovers the conditional
scopes of the project files and writes CMakeLists.txt.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return ApplyGlobalFlags(cmd, Console)
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Console is the global console for CLI commands
var Console *output.Console

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the root command.
func Root() *cobra.Command {
	return rootCmd
}

func init() {
	Console = output.DefaultConsole()
	AddGlobalFlags(rootCmd)
}

// AddGlobalFlags registers the flags shared by every subcommand on root.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().String("config", "", "Config file to use (gomigrator.yaml or gomigrator.hcl)")
	root.PersistentFlags().StringP("verbosity", "v", "normal", "Display verbosity (quiet, normal, detailed, diagnostic)")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")
}

// ApplyGlobalFlags copies --verbosity and --no-color onto console.
func ApplyGlobalFlags(cmd *cobra.Command, console *output.Console) error {
	verbosity, err := cmd.Flags().GetString("verbosity")
	if err != nil {
		return err
	}
	console.SetVerbosity(output.ParseVerbosity(verbosity))

	noColor, err := cmd.Flags().GetBool("no-color")
	if err != nil {
		return err
	}
	if noColor {
		console.SetColors(false)
	}
	return nil
}

// SetupVersion configures version information after variables are set
func SetupVersion() {
	rootCmd.SetVersionTemplate(GetFullVersion() + "\n")
	rootCmd.Version = GetVersion()
}

// AddCommand adds a command to the root command
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
