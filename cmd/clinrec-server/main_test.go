package main

import "testing"

func TestServeCmd(t *testing.T) {
	cmd := serveCmd()
	if cmd.Use != "serve" {
		t.Errorf("Use = %q", cmd.Use)
	}
	if cmd.RunE == nil {
		t.Error("serve command has no RunE")
	}
}

func TestMigrateCmd(t *testing.T) {
	cmd := migrateCmd()
	if cmd.Use != "migrate" {
		t.Errorf("Use = %q", cmd.Use)
	}

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Use] = true
	}
	if !names["up"] || !names["status"] {
		t.Errorf("missing subcommands, got %v", names)
	}
}
