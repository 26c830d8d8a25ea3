// Package main provides tests for the jobflow CLI.
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leapstack-labs/jobflow/internal/cli"
)

func TestVersionCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(buf.String(), "jobflow v") {
		t.Errorf("expected version output, got %q", buf.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"frobnicate"})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}

func TestIngestRequiresCSVPath(t *testing.T) {
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"ingest"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected an error when no CSV path is configured")
	}
	if !strings.Contains(err.Error(), "CSV path") {
		t.Errorf("unexpected error: %v", err)
	}
}
