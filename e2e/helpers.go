package e2e

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

const chickenBuild = `{
  "id": "b1",
  "itemId": "chicken-bowl",
  "version": 1,
  "status": "draft",
  "steps": [
    {
      "id": "s1",
      "orderIndex": 0,
      "action": {"family": "HEAT"},
      "instruction": "Sous vide the chicken",
      "equipment": {"applianceId": "waterbath"},
      "time": {"durationSeconds": 1200, "isActive": false}
    }
  ]
}
`

const stationOnlyBuild = `{
  "id": "b2",
  "itemId": "rice-bowl",
  "version": 3,
  "status": "draft",
  "steps": [
    {"id": "s1", "orderIndex": 0, "action": {"family": "HEAT"}, "stationId": "hot"}
  ]
}
`

// buildLinecheckBinary compiles cmd/linecheck into a temporary directory
func buildLinecheckBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "linecheck")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/linecheck")

	// Build from the project root (one level up from e2e directory)
	projectRoot, err := filepath.Abs("..")
	if err != nil {
		t.Fatalf("Failed to get project root: %v", err)
	}
	cmd.Dir = projectRoot

	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build linecheck binary: %v\n%s", err, out)
	}
	return binaryPath
}

func createTestBuildFile(t *testing.T, dir, filename, content string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create directory %s: %v", dir, err)
	}
	filePath := filepath.Join(dir, filename)
	if err := os.WriteFile(filePath, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", filename, err)
	}
	return filePath
}

// createTestConfigFile creates a temporary .linecheck.toml config file for testing
// that directs output to the specified output directory
func createTestConfigFile(t *testing.T, testDir, outputDir string) {
	t.Helper()
	configFile := filepath.Join(testDir, ".linecheck.toml")
	configContent := fmt.Sprintf("[output]\ndirectory = %q\n", outputDir)
	if err := os.WriteFile(configFile, []byte(configContent), 0o644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
}

// exitCodeOf returns the process exit code carried by err, 0 for nil
func exitCodeOf(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Command did not run: %v", err)
	}
	return exitErr.ExitCode()
}
