package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points config, vault and database at a temp dir so commands never
// touch the real ~/.notekeeper.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("NOTEKEEPER_CONFIG", filepath.Join(dir, "missing.yaml"))
	t.Setenv("NOTEKEEPER_VAULT", filepath.Join(dir, "vault"))
	t.Setenv("NOTEKEEPER_DB", filepath.Join(dir, "test.db"))
	if err := os.MkdirAll(filepath.Join(dir, "vault"), 0755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "notekeeper dev") {
		t.Errorf("output = %q", out)
	}
}

func TestMergeCommand(t *testing.T) {
	dir := isolate(t)
	existing := filepath.Join(dir, "existing.md")
	fresh := filepath.Join(dir, "fresh.md")
	writeFile(t, existing, "---\ntype: daily\nmood: calm\n---\n# Today\n\nGenerated.\n\nMy own thought.\n")
	writeFile(t, fresh, "---\ntype: daily\n---\n# Today\n\nGenerated.\n")

	out, err := execute(t, "merge", "--existing", existing, "--fresh", fresh)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	for _, want := range []string{"mood: calm", "## Your Notes", "My own thought."} {
		if !strings.Contains(out, want) {
			t.Errorf("merged output missing %q:\n%s", want, out)
		}
	}
}

func TestMergeCommand_OutFileAndMissingExisting(t *testing.T) {
	dir := isolate(t)
	fresh := filepath.Join(dir, "fresh.md")
	dest := filepath.Join(dir, "out.md")
	writeFile(t, fresh, "# Fresh\n\nBody.\n")

	out, err := execute(t, "merge", "--existing", filepath.Join(dir, "nope.md"), "--fresh", fresh, "-o", dest)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if out != "" {
		t.Errorf("stdout should be empty with -o, got %q", out)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "# Fresh\n\nBody.\n" {
		t.Errorf("out file = %q", got)
	}
}

func TestRegenAndRunsCommands(t *testing.T) {
	dir := isolate(t)
	fresh := filepath.Join(dir, "render.md")
	writeFile(t, fresh, "---\ntype: daily\n---\n# Today\n\nGenerated.\n")

	out, err := execute(t, "regen", "daily.md", "--fresh", fresh)
	if err != nil {
		t.Fatalf("regen: %v", err)
	}
	if !strings.Contains(out, "daily.md: written") {
		t.Errorf("regen output = %q", out)
	}

	if _, err := os.Stat(filepath.Join(dir, "vault", "daily.md")); err != nil {
		t.Fatalf("note not written: %v", err)
	}

	out, err = execute(t, "runs", "daily.md")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, "written") || !strings.Contains(out, "daily.md") {
		t.Errorf("runs output = %q", out)
	}
}

func TestRegenCommand_RejectsEscape(t *testing.T) {
	dir := isolate(t)
	fresh := filepath.Join(dir, "render.md")
	writeFile(t, fresh, "# x\n")

	if _, err := execute(t, "regen", "../outside.md", "--fresh", fresh); err == nil {
		t.Fatal("expected error for path outside the vault")
	}
}

func TestRunsCommand_Empty(t *testing.T) {
	isolate(t)
	out, err := execute(t, "runs")
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if !strings.Contains(out, "No runs recorded.") {
		t.Errorf("output = %q", out)
	}
}
