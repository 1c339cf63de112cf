package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fastprodman/creditledger/internal/services/catalog"
)

func TestSyncCmd_RejectsInvalidFileBeforeConnecting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")

	err := os.WriteFile(path, []byte("[[product]]\nproduct_id = \"x\"\ncredits = 0\n"), 0o600)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	// No PG_DSN is set; reaching the database would fail with a config error.
	t.Setenv("PG_DSN", "")

	root := newRootCmd()
	root.SetArgs([]string{"sync", "-f", path, "--dry-run"})
	root.SetOut(new(bytes.Buffer))

	err = root.Execute()
	if err == nil || !strings.Contains(err.Error(), catalog.ErrInvalidCatalog.Error()) {
		t.Fatalf("want invalid catalog error, got %v", err)
	}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()

	for _, name := range []string{"sync", "list"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("subcommand %q not registered: %v", name, err)
		}
	}

	sync, _, _ := root.Find([]string{"sync"})
	for _, flag := range []string{"file", "deactivate-missing", "dry-run"} {
		if sync.Flags().Lookup(flag) == nil {
			t.Fatalf("sync is missing --%s", flag)
		}
	}
}

func TestJoinOrDash(t *testing.T) {
	t.Parallel()

	if got := joinOrDash(nil); got != "-" {
		t.Fatalf("empty: got %q", got)
	}
	if got := joinOrDash([]string{"a", "b"}); got != "a, b" {
		t.Fatalf("join: got %q", got)
	}
}
