// ABOUTME: Integration tests for full workflow
// ABOUTME: Builds the binary and drives it end-to-end against both backends

package test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestFullWorkflow(t *testing.T) {
	projectRoot, err := filepath.Abs("..")
	if err != nil {
		t.Fatalf("Failed to get project root: %v", err)
	}

	binary := filepath.Join(t.TempDir(), "sortable")
	buildCmd := exec.Command("go", "build", "-o", binary, "./cmd/sortable")
	buildCmd.Dir = projectRoot
	buildOutput, err := buildCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Failed to build: %v\nOutput: %s", err, buildOutput)
	}

	for _, backend := range []string{"sqlite", "badger"} {
		t.Run(backend, func(t *testing.T) {
			workflow(t, binary, backend)
		})
	}
}

func workflow(t *testing.T, binary, backend string) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")
	config := `{"backend": "` + backend + `", "data_dir": "` + filepath.Join(tmpDir, "data") + `"}`
	if err := os.WriteFile(configPath, []byte(config), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	run := func(args ...string) (string, error) {
		fullArgs := append([]string{"--config", configPath}, args...)
		cmd := exec.Command(binary, fullArgs...)
		cmd.Env = append(os.Environ(), "NO_COLOR=1")
		output, err := cmd.CombinedOutput()
		return string(output), err
	}
	mustRun := func(args ...string) string {
		t.Helper()
		output, err := run(args...)
		if err != nil {
			t.Fatalf("sortable %s failed: %v\n%s", strings.Join(args, " "), err, output)
		}
		return output
	}
	// add prints "✓ Added <id> to <group> at position N"
	add := func(args ...string) string {
		t.Helper()
		fields := strings.Fields(mustRun(append([]string{"add"}, args...)...))
		if len(fields) < 3 || fields[1] != "Added" {
			t.Fatalf("Unexpected add output: %v", fields)
		}
		return fields[2]
	}

	milk := add("list=inbox", "title=milk")
	add("list=inbox", "title=eggs")
	bread := add("list=inbox", "title=bread")
	add("list=done", "title=laundry")

	// Bread jumps to the top, the rest shift down
	output := mustRun("top", bread)
	if !strings.Contains(output, "from 3 to 1") {
		t.Errorf("Expected move from 3 to 1, got:\n%s", output)
	}

	output = mustRun("list", "list=inbox")
	if strings.Index(output, "bread") > strings.Index(output, "milk") ||
		strings.Index(output, "milk") > strings.Index(output, "eggs") {
		t.Errorf("Expected bread, milk, eggs order:\n%s", output)
	}
	if strings.Contains(output, "laundry") {
		t.Error("Group filter should hide other lists")
	}

	// Moving milk to done closes the gap in inbox
	output = mustRun("set", milk, "list=done", "--at", "1")
	if !strings.Contains(output, "to list=done at position 1") {
		t.Errorf("Expected group change, got:\n%s", output)
	}

	output = mustRun("check")
	if !strings.Contains(output, "4 rows in order") {
		t.Errorf("Expected all rows in order, got:\n%s", output)
	}

	output = mustRun("remove", bread, "--confirm")
	if !strings.Contains(output, "Removed") {
		t.Error("Expected removal confirmation")
	}

	output = mustRun("export", "--format", "markdown")
	if !strings.Contains(output, "## list=inbox") || !strings.Contains(output, "## list=done") {
		t.Errorf("Expected both lists in markdown export:\n%s", output)
	}
	if strings.Contains(output, "bread") {
		t.Error("bread should be removed")
	}

	mustRun("check")

	if output, err := run("move", "00000000", "1"); err == nil {
		t.Errorf("Expected error for unknown row, got:\n%s", output)
	}

	t.Log("Integration test passed!")
}
