package main

import (
	"testing"

	"github.com/willibrandon/gomigrator/cmd/gomigrator/cli"
)

// TestVersionDefaults ensures version variables are initialized
func TestVersionDefaults(t *testing.T) {
	if version == "" {
		t.Error("version should have a default value")
	}
	if cli.Version == "" {
		t.Error("cli.Version should have a default value")
	}
}
