package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/willibrandon/gomigrator/cmd/gomigrator/output"
)

func TestGetVersion(t *testing.T) {
	if got := GetVersion(); got != Version {
		t.Errorf("GetVersion() = %v, want %v", got, Version)
	}
}

func TestGetFullVersion(t *testing.T) {
	got := GetFullVersion()
	if !strings.HasPrefix(got, "gomigrator version "+Version+"\n") {
		t.Errorf("GetFullVersion() = %q", got)
	}
	if !strings.Contains(got, "commit: "+Commit) {
		t.Errorf("GetFullVersion() missing commit: %q", got)
	}
}

func TestApplyGlobalFlags(t *testing.T) {
	var out bytes.Buffer
	console := output.NewConsole(&out, &out, output.VerbosityNormal)

	var ran bool
	root := &cobra.Command{
		Use: "gomigrator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ApplyGlobalFlags(cmd, console)
		},
	}
	AddGlobalFlags(root)
	root.AddCommand(&cobra.Command{
		Use: "noop",
		Run: func(cmd *cobra.Command, args []string) { ran = true },
	})

	root.SetArgs([]string{"noop", "--verbosity", "diag", "--no-color"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !ran {
		t.Fatal("subcommand did not run")
	}
	if got := console.GetVerbosity(); got != output.VerbosityDiagnostic {
		t.Errorf("verbosity = %v, want diagnostic", got)
	}
	if console.Colors() {
		t.Error("colors should be disabled")
	}
}

func TestRootRegistersGlobalFlags(t *testing.T) {
	for _, name := range []string{"config", "verbosity", "no-color"} {
		if Root().PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
}
