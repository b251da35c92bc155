package main

import (
	"testing"
)

func TestVersionCommand(t *testing.T) {
	resetFlags()

	output, err := captureOutput(t, runVersion)
	if err != nil {
		t.Fatalf("runVersion() error = %v", err)
	}
	assertContains(t, output, []string{"memctl " + version, "commit:", "go:"})

	if rootCmd.Version != version {
		t.Errorf("--version reports %q, version command reports %q", rootCmd.Version, version)
	}
}

func TestVersionCommand_JSON(t *testing.T) {
	resetFlags()
	jsonOut = true
	t.Cleanup(resetFlags)

	output, err := captureOutput(t, runVersion)
	if err != nil {
		t.Fatalf("runVersion() error = %v", err)
	}
	result := assertJSON(t, output)
	if result["version"] != version {
		t.Errorf("version = %v, want %q", result["version"], version)
	}
}
