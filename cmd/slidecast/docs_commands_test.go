package main

import (
	"encoding/json"
	"testing"

	"slidecast/internal/testsupport"
)

func TestDocsDoneLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedDocument(t, env.cfg, "tale", testsupport.UnitFixture{})

	requireContains(t, mustRunCLI(t, env, "docs", "list"), "No documents marked done")
	requireContains(t, mustRunCLI(t, env, "docs", "done", "tale", "--note", "shipped"), "Marked tale done")

	out := mustRunCLI(t, env, "docs", "list")
	requireContains(t, out, "tale")
	requireContains(t, out, "shipped")

	var views []reportView
	if err := json.Unmarshal([]byte(mustRunCLI(t, env, "status", "tale", "--json")), &views); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if len(views) != 1 || !views[0].Done {
		t.Fatalf("status should report done: %+v", views)
	}

	requireContains(t, mustRunCLI(t, env, "docs", "undone", "tale"), "Cleared done flag")
	requireContains(t, mustRunCLI(t, env, "docs", "undone", "tale"), "refused:")
}

func TestDocsDoneRequiresExistingDocument(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "docs", "done", "ghost"); err == nil {
		t.Fatal("expected error for unknown document")
	}
}
