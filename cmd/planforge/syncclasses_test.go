package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/electrovision/planforge/dbopen"
)

func TestSyncClassesRecordsRun(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("nc: 2\nnames:\n  0: switch\n  2: light\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "classes.txt")
	dbPath := filepath.Join(dir, "runs.db")

	cmd := syncClassesCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", cfgPath, "--db", dbPath, target})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	db, err := dbopen.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var configPath string
	var classes, total, inSync, gaps int
	err = db.QueryRow(
		`SELECT config_path, class_count, targets_total, targets_in_sync, gap_count FROM sync_runs`,
	).Scan(&configPath, &classes, &total, &inSync, &gaps)
	if err != nil {
		t.Fatal(err)
	}
	if configPath != cfgPath {
		t.Fatalf("config_path = %q", configPath)
	}
	if classes != 2 || total != 1 || inSync != 1 {
		t.Fatalf("classes=%d total=%d in_sync=%d", classes, total, inSync)
	}
	if gaps != 1 {
		t.Fatalf("gap_count = %d, want 1 (id 1 missing)", gaps)
	}
}

func TestSyncClassesNoDBWritesNoHistory(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("nc: 1\nnames:\n  0: outlet\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "classes.txt")

	t.Setenv("PLANFORGE_DB", "")
	cmd := syncClassesCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", cfgPath, target})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	// Sidecar written, no stray database created next to it.
	if _, err := os.Stat(target); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".db" {
			t.Fatalf("unexpected database %s", e.Name())
		}
	}
}
